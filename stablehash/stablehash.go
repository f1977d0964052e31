// Copyright 2026 The apinotes Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package stablehash computes structural hashes over indexed symbol
// occurrences.  Two index runs that produce the same aggregate hash saw
// the same set of declarations, roles, and relations, so a consumer can
// skip reprocessing.  Hashes are derived from declaration structure, not
// source locations, except for anonymous declarations where the location
// is the only distinguishing feature.
package stablehash

import (
	"github.com/dgryski/go-farm"
)

// initialHash seeds every combine chain.
const initialHash uint64 = 5381

// Role is a bitmask describing how a symbol occurrence relates to its
// declaration (definition, reference, call, and so on).  The package never
// interprets individual bits; equal masks hash equal.
type Role uint64

// Location identifies a source position, used only to disambiguate
// anonymous declarations.
type Location struct {
	File   string
	Offset uint32
}

// Decl is one declaration in scope-nesting form.  Parent is the enclosing
// declaration, nil at file scope.  A Decl with an empty Name is anonymous
// and hashes by Loc instead.
//
// Decls are compared by identity: the per-declaration cache is keyed by
// pointer, so callers must reuse one Decl value for all occurrences that
// reference the same declaration.
type Decl struct {
	Parent *Decl
	Kind   string
	Name   string
	Loc    Location
}

// Relation links an occurrence to another declaration, such as a call
// target's receiver or an override base.
type Relation struct {
	Roles Role
	Decl  *Decl
}

// Occurrence is one indexed symbol occurrence.
type Occurrence struct {
	Decl      *Decl
	Roles     Role
	Offset    uint32
	Relations []Relation
}

// Hasher computes structural hashes, caching per-declaration results so
// the many occurrences referencing one declaration hash it once.  A Hasher
// is not safe for concurrent use.
type Hasher struct {
	decls map[*Decl]uint64
}

// New returns an empty hasher.
func New() *Hasher {
	return &Hasher{decls: make(map[*Decl]uint64)}
}

func combine(h uint64, values ...uint64) uint64 {
	for _, v := range values {
		h = h*33 + v
	}
	return h
}

func hashString(s string) uint64 {
	return farm.Hash64([]byte(s))
}

// HashDecl returns the structural hash of a declaration: its kind and name
// combined with the hash of its enclosing scope.  Anonymous declarations
// substitute their location for the missing name.
func (h *Hasher) HashDecl(d *Decl) uint64 {
	if d == nil {
		return initialHash
	}
	if cached, ok := h.decls[d]; ok {
		return cached
	}
	sum := combine(initialHash, hashString(d.Kind))
	if d.Name != "" {
		sum = combine(sum, hashString(d.Name))
	} else {
		sum = combine(sum, hashString(d.Loc.File), uint64(d.Loc.Offset))
	}
	sum = combine(sum, h.HashDecl(d.Parent))
	h.decls[d] = sum
	return sum
}

// HashOccurrence returns the hash of one occurrence: roles, offset, the
// referenced declaration, and every relation in order.
func (h *Hasher) HashOccurrence(o *Occurrence) uint64 {
	sum := combine(initialHash, uint64(o.Roles), uint64(o.Offset), h.HashDecl(o.Decl))
	for i := range o.Relations {
		rel := &o.Relations[i]
		sum = combine(sum, uint64(rel.Roles), h.HashDecl(rel.Decl))
	}
	return sum
}

// HashRecord folds a file's occurrences into one aggregate.  The fold is
// order-sensitive: reordered occurrences produce a different hash.
func (h *Hasher) HashRecord(occurrences []Occurrence) uint64 {
	sum := initialHash
	for i := range occurrences {
		sum = combine(sum, h.HashOccurrence(&occurrences[i]))
	}
	return sum
}
