// Copyright 2026 The apinotes Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package apinotes

// Format version of compiled API notes files.  A reader refuses to interpret
// entity blocks from a different major version.  Minor bumps may append
// fields to the end of existing records; readers ignore trailing bytes they
// do not understand.
const (
	VersionMajor uint16 = 1
	VersionMinor uint16 = 0
)

// Block IDs.  These must not be renumbered or reordered without bumping
// VersionMajor.
const (
	blockInfoBlockID uint8 = 1 + iota
	controlBlockID
	identifierBlockID
	objcContextBlockID
	objcPropertyBlockID
	objcMethodBlockID
	objcSelectorBlockID
	globalVariableBlockID
	globalFunctionBlockID
	enumConstantBlockID
	tagBlockID
	typedefBlockID
)

// Block-info directory record IDs.
const (
	blockInfoSetBlockID    uint8 = 1
	blockInfoBlockName     uint8 = 2
	blockInfoSetRecordName uint8 = 3
)

// Control block record IDs.
const (
	controlMetadata      uint8 = 1
	controlModuleName    uint8 = 2
	controlModuleOptions uint8 = 3
)

// Every entity block holds at most one record: the serialized lookup table.
const entityDataRecord uint8 = 1

// Module options bitfield.
const moduleOptInferImportAsMember uint8 = 1 << 0

type recordDesc struct {
	id   uint8
	name string
}

type blockDesc struct {
	id      uint8
	name    string
	records []recordDesc
}

// blockDirectory drives the self-describing directory emitted at the front
// of every file.  Purely descriptive; decoding never consults it.
var blockDirectory = []blockDesc{
	{controlBlockID, "CONTROL_BLOCK", []recordDesc{
		{controlMetadata, "METADATA"},
		{controlModuleName, "MODULE_NAME"},
		{controlModuleOptions, "MODULE_OPTIONS"},
	}},
	{identifierBlockID, "IDENTIFIER_BLOCK", []recordDesc{{entityDataRecord, "IDENTIFIER_DATA"}}},
	{objcContextBlockID, "OBJC_CONTEXT_BLOCK", []recordDesc{{entityDataRecord, "OBJC_CONTEXT_DATA"}}},
	{objcPropertyBlockID, "OBJC_PROPERTY_BLOCK", []recordDesc{{entityDataRecord, "OBJC_PROPERTY_DATA"}}},
	{objcMethodBlockID, "OBJC_METHOD_BLOCK", []recordDesc{{entityDataRecord, "OBJC_METHOD_DATA"}}},
	{objcSelectorBlockID, "OBJC_SELECTOR_BLOCK", []recordDesc{{entityDataRecord, "OBJC_SELECTOR_DATA"}}},
	{globalVariableBlockID, "GLOBAL_VARIABLE_BLOCK", []recordDesc{{entityDataRecord, "GLOBAL_VARIABLE_DATA"}}},
	{globalFunctionBlockID, "GLOBAL_FUNCTION_BLOCK", []recordDesc{{entityDataRecord, "GLOBAL_FUNCTION_DATA"}}},
	{enumConstantBlockID, "ENUM_CONSTANT_BLOCK", []recordDesc{{entityDataRecord, "ENUM_CONSTANT_DATA"}}},
	{tagBlockID, "TAG_BLOCK", []recordDesc{{entityDataRecord, "TAG_DATA"}}},
	{typedefBlockID, "TYPEDEF_BLOCK", []recordDesc{{entityDataRecord, "TYPEDEF_DATA"}}},
}
