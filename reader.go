// Copyright 2026 The apinotes Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package apinotes

import (
	"errors"
	"fmt"
	"math"

	"github.com/dgryski/go-farm"

	"github.com/mlowell/apinotes/internal/container"
	"github.com/mlowell/apinotes/internal/mmap"
	"github.com/mlowell/apinotes/internal/ondisk"
	"github.com/mlowell/apinotes/internal/wire"
)

var (
	// ErrInvalidSignature reports a buffer that is not a compiled API notes
	// file.
	ErrInvalidSignature = container.ErrInvalidSignature

	// ErrMalformed reports a structurally damaged container.
	ErrMalformed = errors.New("apinotes: malformed container")

	// ErrVersionMismatch reports a file with an unsupported major version.
	ErrVersionMismatch = errors.New("apinotes: unsupported format major version")
)

// Reader answers point lookups against a compiled API notes buffer.  The
// buffer is treated as immutable and is never copied; all lookups decode only
// the entries they touch.  Construction is all-or-nothing: a malformed buffer
// yields an error and no reader.
//
// A Reader is safe for concurrent lookups as long as the backing buffer is
// not mutated.
type Reader struct {
	moduleName string
	options    *ModuleOptions
	mapped     *mmap.File

	identifiers     *ondisk.Table
	contexts        *ondisk.Table
	properties      *ondisk.Table
	methods         *ondisk.Table
	selectors       *ondisk.Table
	globalVariables *ondisk.Table
	globalFunctions *ondisk.Table
	enumConstants   *ondisk.Table
	tags            *ondisk.Table
	typedefs        *ondisk.Table
}

// NewReader opens a compiled API notes buffer.  The reader keeps references
// into data; the caller must keep it alive and unmodified for the reader's
// lifetime.
func NewReader(data []byte) (*Reader, error) {
	blocks, err := container.Parse(data)
	if err != nil {
		if errors.Is(err, container.ErrInvalidSignature) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	r := &Reader{}
	sawControl := false
	for _, blk := range blocks {
		switch blk.ID {
		case blockInfoBlockID:
			// Descriptive only.
		case controlBlockID:
			if err := r.readControlBlock(blk.Payload); err != nil {
				return nil, err
			}
			sawControl = true
		case identifierBlockID:
			r.identifiers, err = readEntityBlock(blk.Payload)
		case objcContextBlockID:
			r.contexts, err = readEntityBlock(blk.Payload)
		case objcPropertyBlockID:
			r.properties, err = readEntityBlock(blk.Payload)
		case objcMethodBlockID:
			r.methods, err = readEntityBlock(blk.Payload)
		case objcSelectorBlockID:
			r.selectors, err = readEntityBlock(blk.Payload)
		case globalVariableBlockID:
			r.globalVariables, err = readEntityBlock(blk.Payload)
		case globalFunctionBlockID:
			r.globalFunctions, err = readEntityBlock(blk.Payload)
		case enumConstantBlockID:
			r.enumConstants, err = readEntityBlock(blk.Payload)
		case tagBlockID:
			r.tags, err = readEntityBlock(blk.Payload)
		case typedefBlockID:
			r.typedefs, err = readEntityBlock(blk.Payload)
		default:
			// Unknown blocks are skippable by design.
		}
		if err != nil {
			return nil, err
		}
	}
	if !sawControl {
		return nil, fmt.Errorf("%w: missing control block", ErrMalformed)
	}
	return r, nil
}

// OpenFile memory-maps a compiled API notes file read-only and opens a
// reader over it.  Close releases the mapping.
func OpenFile(path string) (*Reader, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(m.Data())
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	r.mapped = m
	return r, nil
}

// Close releases the file mapping, if any.  Readers over caller-owned
// buffers need no Close.
func (r *Reader) Close() error {
	if r.mapped == nil {
		return nil
	}
	return r.mapped.Close()
}

func (r *Reader) readControlBlock(payload []byte) error {
	records, err := container.Records(payload)
	if err != nil {
		return fmt.Errorf("%w: control block: %v", ErrMalformed, err)
	}
	sawMetadata := false
	for _, rec := range records {
		switch rec.ID {
		case controlMetadata:
			d := wire.NewDecoder(rec.Data)
			major, err := d.Uint16()
			if err != nil {
				return fmt.Errorf("%w: control metadata", ErrMalformed)
			}
			if _, err := d.Uint16(); err != nil {
				return fmt.Errorf("%w: control metadata", ErrMalformed)
			}
			if major != VersionMajor {
				return fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, major, VersionMajor)
			}
			sawMetadata = true
		case controlModuleName:
			r.moduleName = string(rec.Data)
		case controlModuleOptions:
			if len(rec.Data) < 1 {
				return fmt.Errorf("%w: module options", ErrMalformed)
			}
			r.options = &ModuleOptions{
				SwiftInferImportAsMember: rec.Data[0]&moduleOptInferImportAsMember != 0,
			}
		}
	}
	if !sawMetadata {
		return fmt.Errorf("%w: missing format metadata", ErrMalformed)
	}
	return nil
}

func readEntityBlock(payload []byte) (*ondisk.Table, error) {
	records, err := container.Records(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: entity block: %v", ErrMalformed, err)
	}
	for _, rec := range records {
		if rec.ID != entityDataRecord {
			continue
		}
		d := wire.NewDecoder(rec.Data)
		tableOffset, err := d.Uint32()
		if err != nil {
			return nil, fmt.Errorf("%w: entity record header", ErrMalformed)
		}
		blob, err := d.Bytes(d.Remaining())
		if err != nil {
			return nil, fmt.Errorf("%w: entity record blob", ErrMalformed)
		}
		table, err := ondisk.NewTable(blob, tableOffset)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return table, nil
	}
	return nil, nil
}

// ModuleName returns the module the notes were compiled for.
func (r *Reader) ModuleName() string {
	return r.moduleName
}

// ModuleOptions returns the module options record, if one was written.
func (r *Reader) ModuleOptions() (ModuleOptions, bool) {
	if r.options == nil {
		return ModuleOptions{}, false
	}
	return *r.options, true
}

// lookupIdentifier resolves a name to its interned ID.  The empty string is
// always ID 0.
func (r *Reader) lookupIdentifier(name string) (IdentifierID, bool) {
	if name == "" {
		return 0, true
	}
	if r.identifiers == nil {
		return 0, false
	}
	key := []byte(name)
	data, found, err := r.identifiers.Lookup(farm.Hash32(key), key)
	if err != nil || !found {
		return 0, false
	}
	id, err := wire.NewDecoder(data).Uint32()
	if err != nil {
		return 0, false
	}
	return IdentifierID(id), true
}

// lookupSelector resolves a selector to its interned ID.  Any piece missing
// from the identifier table means the selector cannot be present either, as
// is a piece count no writer could have stored.
func (r *Reader) lookupSelector(sel Selector) (SelectorID, bool) {
	if r.selectors == nil || sel.NumPieces < 0 || sel.NumPieces > math.MaxUint16 {
		return 0, false
	}
	ids := make([]IdentifierID, len(sel.Identifiers))
	for i, piece := range sel.Identifiers {
		id, ok := r.lookupIdentifier(piece)
		if !ok {
			return 0, false
		}
		ids[i] = id
	}
	key := storedSelector{numPieces: uint16(sel.NumPieces), pieces: encodeSelectorPieces(ids)}
	encoded := encodeKey(key.encode)
	data, found, err := r.selectors.Lookup(farm.Hash32(encoded), encoded)
	if err != nil || !found {
		return 0, false
	}
	id, err := wire.NewDecoder(data).Uint32()
	if err != nil {
		return 0, false
	}
	return SelectorID(id), true
}

// LookupObjCContext finds a class (isProtocol false) or protocol context by
// name, returning its ID and info.
func (r *Reader) LookupObjCContext(name string, isProtocol bool) (ContextID, ObjCContextInfo, bool) {
	var info ObjCContextInfo
	if r.contexts == nil {
		return 0, info, false
	}
	nameID, ok := r.lookupIdentifier(name)
	if !ok {
		return 0, info, false
	}
	key := contextKey{nameID: nameID, isProtocol: isProtocol}
	encoded := encodeKey(key.encode)
	data, found, err := r.contexts.Lookup(farm.Hash32(encoded), encoded)
	if err != nil || !found {
		return 0, info, false
	}
	d := wire.NewDecoder(data)
	id, err := d.Uint32()
	if err != nil {
		return 0, info, false
	}
	if err := readObjCContextInfo(d, &info); err != nil {
		return 0, info, false
	}
	return ContextID(id), info, true
}

func lookupMember[V any](t *ondisk.Table, key memberKey, read func(*wire.Decoder, *V) error) (V, bool) {
	var info V
	if t == nil {
		return info, false
	}
	encoded := encodeKey(key.encode)
	data, found, err := t.Lookup(farm.Hash32(encoded), encoded)
	if err != nil || !found {
		return info, false
	}
	if err := read(wire.NewDecoder(data), &info); err != nil {
		var zero V
		return zero, false
	}
	return info, true
}

// LookupObjCProperty finds a property by owning context, name, and the
// instance/class bit.
func (r *Reader) LookupObjCProperty(ctx ContextID, name string, isInstance bool) (ObjCPropertyInfo, bool) {
	nameID, ok := r.lookupIdentifier(name)
	if !ok {
		return ObjCPropertyInfo{}, false
	}
	key := memberKey{context: ctx, id: uint32(nameID), isInstance: isInstance}
	return lookupMember(r.properties, key, readVariableInfo)
}

// LookupObjCMethod finds a method by owning context, selector, and the
// instance/class bit.
func (r *Reader) LookupObjCMethod(ctx ContextID, sel Selector, isInstance bool) (ObjCMethodInfo, bool) {
	selID, ok := r.lookupSelector(sel)
	if !ok {
		return ObjCMethodInfo{}, false
	}
	key := memberKey{context: ctx, id: uint32(selID), isInstance: isInstance}
	return lookupMember(r.methods, key, readObjCMethodInfo)
}

func lookupNamed[V any](r *Reader, t *ondisk.Table, name string, read func(*wire.Decoder, *V) error) (V, bool) {
	var info V
	if t == nil {
		return info, false
	}
	nameID, ok := r.lookupIdentifier(name)
	if !ok {
		return info, false
	}
	encoded := encodeKey(func(e *wire.Encoder) { e.Uint32(uint32(nameID)) })
	data, found, err := t.Lookup(farm.Hash32(encoded), encoded)
	if err != nil || !found {
		return info, false
	}
	if err := read(wire.NewDecoder(data), &info); err != nil {
		var zero V
		return zero, false
	}
	return info, true
}

// LookupGlobalVariable finds a global variable by name.
func (r *Reader) LookupGlobalVariable(name string) (GlobalVariableInfo, bool) {
	return lookupNamed(r, r.globalVariables, name, readVariableInfo)
}

// LookupGlobalFunction finds a global function by name.
func (r *Reader) LookupGlobalFunction(name string) (GlobalFunctionInfo, bool) {
	return lookupNamed(r, r.globalFunctions, name, readFunctionInfo)
}

// LookupEnumConstant finds an enumerator by name.
func (r *Reader) LookupEnumConstant(name string) (EnumConstantInfo, bool) {
	return lookupNamed(r, r.enumConstants, name, func(d *wire.Decoder, v *EnumConstantInfo) error {
		return readCommonEntityInfo(d, &v.CommonEntityInfo)
	})
}

// LookupTag finds a tag by name.
func (r *Reader) LookupTag(name string) (TagInfo, bool) {
	return lookupNamed(r, r.tags, name, func(d *wire.Decoder, v *TagInfo) error {
		return readCommonTypeInfo(d, &v.CommonTypeInfo)
	})
}

// LookupTypedef finds a typedef by name.
func (r *Reader) LookupTypedef(name string) (TypedefInfo, bool) {
	return lookupNamed(r, r.typedefs, name, func(d *wire.Decoder, v *TypedefInfo) error {
		return readCommonTypeInfo(d, &v.CommonTypeInfo)
	})
}
