// Copyright 2026 The apinotes Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package apinotes

import (
	"github.com/dgryski/go-farm"

	"github.com/mlowell/apinotes/internal/wire"
)

// Composite keys and per-kind table infos, shared between the writer (table
// construction) and the reader (lookup key encoding).  Every key hashes as
// farm.Hash32 over its encoded bytes, so writer and reader agree by
// construction.

// storedSelector is the interned form of a selector: the piece count plus the
// identifier-ID sequence, already encoded little-endian so it can serve as a
// map key.
type storedSelector struct {
	numPieces uint16
	pieces    string // 4 bytes per identifier ID
}

func encodeSelectorPieces(ids []IdentifierID) string {
	e := wire.NewEncoder()
	for _, id := range ids {
		e.Uint32(uint32(id))
	}
	return string(e.Bytes())
}

func (s storedSelector) keyLen() int {
	return 2 + len(s.pieces)
}

func (s storedSelector) encode(e *wire.Encoder) {
	e.Uint16(s.numPieces)
	e.RawString(s.pieces)
}

// contextKey identifies a class or protocol context by name.  The protocol
// bit keeps the two numbering spaces apart.
type contextKey struct {
	nameID     IdentifierID
	isProtocol bool
}

func (k contextKey) encode(e *wire.Encoder) {
	e.Uint32(uint32(k.nameID))
	e.Uint8(boolByte(k.isProtocol))
}

// memberKey identifies a property or method within a context; id is the
// property name's IdentifierID or the method's SelectorID.
type memberKey struct {
	context    ContextID
	id         uint32
	isInstance bool
}

func (k memberKey) encode(e *wire.Encoder) {
	e.Uint32(uint32(k.context))
	e.Uint32(k.id)
	e.Uint8(boolByte(k.isInstance))
}

// contextValue pairs the allocated ContextID with the context's info record.
type contextValue struct {
	id   ContextID
	info ObjCContextInfo
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func hashKey(fn func(e *wire.Encoder)) uint32 {
	e := wire.NewEncoder()
	fn(e)
	return farm.Hash32(e.Bytes())
}

func encodeKey(fn func(e *wire.Encoder)) []byte {
	e := wire.NewEncoder()
	fn(e)
	return e.Bytes()
}

// identifierTableInfo maps identifier strings to their IDs.
type identifierTableInfo struct{}

func (identifierTableInfo) HashKey(key string) uint32 { return farm.Hash32([]byte(key)) }
func (identifierTableInfo) KeyLen(key string) int     { return len(key) }
func (identifierTableInfo) DataLen(IdentifierID) int  { return 4 }
func (identifierTableInfo) EncodeKey(e *wire.Encoder, key string) {
	e.RawString(key)
}
func (identifierTableInfo) EncodeData(e *wire.Encoder, value IdentifierID) {
	e.Uint32(uint32(value))
}

// selectorTableInfo maps stored selectors to selector IDs.
type selectorTableInfo struct{}

func (selectorTableInfo) HashKey(key storedSelector) uint32 {
	return hashKey(key.encode)
}
func (selectorTableInfo) KeyLen(key storedSelector) int { return key.keyLen() }
func (selectorTableInfo) DataLen(SelectorID) int        { return 4 }
func (selectorTableInfo) EncodeKey(e *wire.Encoder, key storedSelector) {
	key.encode(e)
}
func (selectorTableInfo) EncodeData(e *wire.Encoder, value SelectorID) {
	e.Uint32(uint32(value))
}

// contextTableInfo maps (name ID, protocol bit) to (context ID, info).
type contextTableInfo struct{}

func (contextTableInfo) HashKey(key contextKey) uint32 {
	return hashKey(key.encode)
}
func (contextTableInfo) KeyLen(contextKey) int { return 4 + 1 }
func (contextTableInfo) DataLen(value contextValue) int {
	return 4 + objcContextInfoSize(&value.info)
}
func (contextTableInfo) EncodeKey(e *wire.Encoder, key contextKey) {
	key.encode(e)
}
func (contextTableInfo) EncodeData(e *wire.Encoder, value contextValue) {
	e.Uint32(uint32(value.id))
	emitObjCContextInfo(e, &value.info)
}

// propertyTableInfo maps (context, name, instance bit) to property info.
type propertyTableInfo struct{}

func (propertyTableInfo) HashKey(key memberKey) uint32 {
	return hashKey(key.encode)
}
func (propertyTableInfo) KeyLen(memberKey) int { return 4 + 4 + 1 }
func (propertyTableInfo) DataLen(value ObjCPropertyInfo) int {
	return variableInfoSize(&value)
}
func (propertyTableInfo) EncodeKey(e *wire.Encoder, key memberKey) {
	key.encode(e)
}
func (propertyTableInfo) EncodeData(e *wire.Encoder, value ObjCPropertyInfo) {
	emitVariableInfo(e, &value)
}

// methodTableInfo maps (context, selector, instance bit) to method info.
type methodTableInfo struct{}

func (methodTableInfo) HashKey(key memberKey) uint32 {
	return hashKey(key.encode)
}
func (methodTableInfo) KeyLen(memberKey) int { return 4 + 4 + 1 }
func (methodTableInfo) DataLen(value ObjCMethodInfo) int {
	return objcMethodInfoSize(&value)
}
func (methodTableInfo) EncodeKey(e *wire.Encoder, key memberKey) {
	key.encode(e)
}
func (methodTableInfo) EncodeData(e *wire.Encoder, value ObjCMethodInfo) {
	emitObjCMethodInfo(e, &value)
}

// namedTableInfo covers the entity kinds keyed by a bare identifier ID.
type namedTableInfo[V any] struct {
	dataLen func(*V) int
	encode  func(*wire.Encoder, *V)
}

func (t namedTableInfo[V]) HashKey(key IdentifierID) uint32 {
	return hashKey(func(e *wire.Encoder) { e.Uint32(uint32(key)) })
}
func (t namedTableInfo[V]) KeyLen(IdentifierID) int { return 4 }
func (t namedTableInfo[V]) DataLen(value V) int     { return t.dataLen(&value) }
func (t namedTableInfo[V]) EncodeKey(e *wire.Encoder, key IdentifierID) {
	e.Uint32(uint32(key))
}
func (t namedTableInfo[V]) EncodeData(e *wire.Encoder, value V) {
	t.encode(e, &value)
}

var (
	globalVariableTableInfo = namedTableInfo[GlobalVariableInfo]{
		dataLen: variableInfoSize,
		encode:  emitVariableInfo,
	}
	globalFunctionTableInfo = namedTableInfo[GlobalFunctionInfo]{
		dataLen: functionInfoSize,
		encode:  emitFunctionInfo,
	}
	enumConstantTableInfo = namedTableInfo[EnumConstantInfo]{
		dataLen: func(v *EnumConstantInfo) int { return commonEntityInfoSize(&v.CommonEntityInfo) },
		encode:  func(e *wire.Encoder, v *EnumConstantInfo) { emitCommonEntityInfo(e, &v.CommonEntityInfo) },
	}
	tagTableInfo = namedTableInfo[TagInfo]{
		dataLen: func(v *TagInfo) int { return commonTypeInfoSize(&v.CommonTypeInfo) },
		encode:  func(e *wire.Encoder, v *TagInfo) { emitCommonTypeInfo(e, &v.CommonTypeInfo) },
	}
	typedefTableInfo = namedTableInfo[TypedefInfo]{
		dataLen: func(v *TypedefInfo) int { return commonTypeInfoSize(&v.CommonTypeInfo) },
		encode:  func(e *wire.Encoder, v *TypedefInfo) { emitCommonTypeInfo(e, &v.CommonTypeInfo) },
	}
)
