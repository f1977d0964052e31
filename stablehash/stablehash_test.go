// Copyright 2026 The apinotes Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package stablehash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeclHashIgnoresLocation(t *testing.T) {
	a := &Decl{Kind: "function", Name: "doThing", Loc: Location{File: "a.c", Offset: 10}}
	b := &Decl{Kind: "function", Name: "doThing", Loc: Location{File: "b.c", Offset: 999}}
	h := New()
	require.Equal(t, h.HashDecl(a), h.HashDecl(b))
}

func TestAnonymousDeclHashesByLocation(t *testing.T) {
	a := &Decl{Kind: "enum", Loc: Location{File: "a.c", Offset: 10}}
	b := &Decl{Kind: "enum", Loc: Location{File: "a.c", Offset: 20}}
	same := &Decl{Kind: "enum", Loc: Location{File: "a.c", Offset: 10}}
	h := New()
	require.NotEqual(t, h.HashDecl(a), h.HashDecl(b))
	require.Equal(t, h.HashDecl(a), h.HashDecl(same))
}

func TestDeclHashIsContextSensitive(t *testing.T) {
	outer1 := &Decl{Kind: "class", Name: "Foo"}
	outer2 := &Decl{Kind: "class", Name: "Bar"}
	a := &Decl{Parent: outer1, Kind: "method", Name: "run"}
	b := &Decl{Parent: outer2, Kind: "method", Name: "run"}
	h := New()
	require.NotEqual(t, h.HashDecl(a), h.HashDecl(b))
}

func TestDeclHashCached(t *testing.T) {
	d := &Decl{Kind: "function", Name: "f"}
	h := New()
	first := h.HashDecl(d)
	// Mutating after the first hash must not change the cached result.
	d.Name = "g"
	require.Equal(t, first, h.HashDecl(d))

	fresh := New()
	require.NotEqual(t, first, fresh.HashDecl(d))
}

func TestRecordHashOrderSensitive(t *testing.T) {
	d1 := &Decl{Kind: "function", Name: "f"}
	d2 := &Decl{Kind: "function", Name: "g"}
	occs := []Occurrence{
		{Decl: d1, Roles: 1, Offset: 10},
		{Decl: d2, Roles: 2, Offset: 20},
	}
	reversed := []Occurrence{occs[1], occs[0]}

	require.Equal(t, New().HashRecord(occs), New().HashRecord(occs))
	require.NotEqual(t, New().HashRecord(occs), New().HashRecord(reversed))
}

func TestRelationsAffectOccurrenceHash(t *testing.T) {
	target := &Decl{Kind: "function", Name: "f"}
	base := &Decl{Kind: "class", Name: "Base"}
	plain := Occurrence{Decl: target, Roles: 4, Offset: 0}
	related := Occurrence{Decl: target, Roles: 4, Offset: 0, Relations: []Relation{{Roles: 8, Decl: base}}}

	h := New()
	require.NotEqual(t, h.HashOccurrence(&plain), h.HashOccurrence(&related))
}

func TestEmptyRecord(t *testing.T) {
	require.Equal(t, initialHash, New().HashRecord(nil))
}
