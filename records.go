// Copyright 2026 The apinotes Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package apinotes

import (
	"github.com/mlowell/apinotes/internal/wire"
)

// Per-kind record encoding.  Every emit function has a paired size function
// that must agree byte-for-byte; the table builder enforces the pairing.
// Decoders read exactly the fields they know about and leave trailing bytes
// untouched, which is what lets a minor version append fields.

func commonEntityInfoSize(info *CommonEntityInfo) int {
	return 1 + 2 + len(info.UnavailableMsg) + 2 + len(info.SwiftName)
}

func emitCommonEntityInfo(e *wire.Encoder, info *CommonEntityInfo) {
	var payload uint8
	if info.SwiftPrivate {
		payload |= 1 << 2
	}
	if info.Unavailable {
		payload |= 1 << 1
	}
	if info.UnavailableInSwift {
		payload |= 1 << 0
	}
	e.Uint8(payload)
	e.String16(info.UnavailableMsg)
	e.String16(info.SwiftName)
}

func readCommonEntityInfo(d *wire.Decoder, info *CommonEntityInfo) error {
	payload, err := d.Uint8()
	if err != nil {
		return err
	}
	info.SwiftPrivate = payload&(1<<2) != 0
	info.Unavailable = payload&(1<<1) != 0
	info.UnavailableInSwift = payload&(1<<0) != 0
	if info.UnavailableMsg, err = d.String16(); err != nil {
		return err
	}
	if info.SwiftName, err = d.String16(); err != nil {
		return err
	}
	return nil
}

func optionalStringSize(s *string) int {
	if s == nil {
		return 0
	}
	return len(*s)
}

func commonTypeInfoSize(info *CommonTypeInfo) int {
	return commonEntityInfoSize(&info.CommonEntityInfo) +
		2 + optionalStringSize(info.SwiftBridge) +
		2 + optionalStringSize(info.NSErrorDomain)
}

func emitCommonTypeInfo(e *wire.Encoder, info *CommonTypeInfo) {
	emitCommonEntityInfo(e, &info.CommonEntityInfo)
	e.OptionalString16(info.SwiftBridge)
	e.OptionalString16(info.NSErrorDomain)
}

func readCommonTypeInfo(d *wire.Decoder, info *CommonTypeInfo) error {
	if err := readCommonEntityInfo(d, &info.CommonEntityInfo); err != nil {
		return err
	}
	var err error
	if info.SwiftBridge, err = d.OptionalString16(); err != nil {
		return err
	}
	if info.NSErrorDomain, err = d.OptionalString16(); err != nil {
		return err
	}
	return nil
}

func variableInfoSize(info *VariableInfo) int {
	return commonEntityInfoSize(&info.CommonEntityInfo) + 2
}

func emitVariableInfo(e *wire.Encoder, info *VariableInfo) {
	emitCommonEntityInfo(e, &info.CommonEntityInfo)
	if info.HasNullability {
		e.Uint8(1)
		e.Uint8(uint8(info.Nullability))
	} else {
		e.Uint8(0)
		e.Uint8(0)
	}
}

func readVariableInfo(d *wire.Decoder, info *VariableInfo) error {
	if err := readCommonEntityInfo(d, &info.CommonEntityInfo); err != nil {
		return err
	}
	has, err := d.Uint8()
	if err != nil {
		return err
	}
	kind, err := d.Uint8()
	if err != nil {
		return err
	}
	if has != 0 {
		info.HasNullability = true
		info.Nullability = Nullability(kind)
	}
	return nil
}

// Parameter payload: (noescape << 1 | hasNullability) << 2 | kind.
func emitParamInfo(e *wire.Encoder, info *ParamInfo) {
	var payload uint8
	if info.NoEscape {
		payload |= 1 << 1
	}
	if info.HasNullability {
		payload |= 1 << 0
	}
	payload <<= 2
	if info.HasNullability {
		payload |= uint8(info.Nullability) & 0x3
	}
	e.Uint8(payload)
}

func readParamInfo(d *wire.Decoder, info *ParamInfo) error {
	payload, err := d.Uint8()
	if err != nil {
		return err
	}
	info.NoEscape = payload&(1<<3) != 0
	if payload&(1<<2) != 0 {
		info.HasNullability = true
		info.Nullability = Nullability(payload & 0x3)
	}
	return nil
}

func functionInfoSize(info *FunctionInfo) int {
	return commonEntityInfoSize(&info.CommonEntityInfo) + 1 + 1 + 8 + 2 + len(info.Params)
}

func emitFunctionInfo(e *wire.Encoder, info *FunctionInfo) {
	emitCommonEntityInfo(e, &info.CommonEntityInfo)
	var payload uint8
	if info.NullabilityAudited {
		payload |= 1
	}
	e.Uint8(payload)
	e.Uint8(info.NumAdjustedNullable)
	e.Uint64(info.NullabilityPayload)
	e.Uint16(uint16(len(info.Params)))
	for i := range info.Params {
		emitParamInfo(e, &info.Params[i])
	}
}

func readFunctionInfo(d *wire.Decoder, info *FunctionInfo) error {
	if err := readCommonEntityInfo(d, &info.CommonEntityInfo); err != nil {
		return err
	}
	payload, err := d.Uint8()
	if err != nil {
		return err
	}
	info.NullabilityAudited = payload&1 != 0
	if info.NumAdjustedNullable, err = d.Uint8(); err != nil {
		return err
	}
	if info.NullabilityPayload, err = d.Uint64(); err != nil {
		return err
	}
	numParams, err := d.Uint16()
	if err != nil {
		return err
	}
	if numParams > 0 {
		info.Params = make([]ParamInfo, numParams)
		for i := range info.Params {
			if err := readParamInfo(d, &info.Params[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func objcMethodInfoSize(info *ObjCMethodInfo) int {
	return 1 + functionInfoSize(&info.FunctionInfo)
}

func emitObjCMethodInfo(e *wire.Encoder, info *ObjCMethodInfo) {
	var payload uint8
	if info.DesignatedInit {
		payload |= 1 << 2
	}
	if info.FactoryAsInit {
		payload |= 1 << 1
	}
	if info.RequiredInit {
		payload |= 1 << 0
	}
	e.Uint8(payload)
	emitFunctionInfo(e, &info.FunctionInfo)
}

func readObjCMethodInfo(d *wire.Decoder, info *ObjCMethodInfo) error {
	payload, err := d.Uint8()
	if err != nil {
		return err
	}
	info.DesignatedInit = payload&(1<<2) != 0
	info.FactoryAsInit = payload&(1<<1) != 0
	info.RequiredInit = payload&(1<<0) != 0
	return readFunctionInfo(d, &info.FunctionInfo)
}

func objcContextInfoSize(info *ObjCContextInfo) int {
	return commonTypeInfoSize(&info.CommonTypeInfo) + 1
}

func emitObjCContextInfo(e *wire.Encoder, info *ObjCContextInfo) {
	emitCommonTypeInfo(e, &info.CommonTypeInfo)
	var payload uint8
	if info.HasDefaultNullability {
		payload |= 1 << 2
		payload |= uint8(info.DefaultNullability) & 0x3
	}
	payload <<= 1
	if info.HasDesignatedInits {
		payload |= 1
	}
	e.Uint8(payload)
}

func readObjCContextInfo(d *wire.Decoder, info *ObjCContextInfo) error {
	if err := readCommonTypeInfo(d, &info.CommonTypeInfo); err != nil {
		return err
	}
	payload, err := d.Uint8()
	if err != nil {
		return err
	}
	info.HasDesignatedInits = payload&1 != 0
	payload >>= 1
	if payload&(1<<2) != 0 {
		info.HasDefaultNullability = true
		info.DefaultNullability = Nullability(payload & 0x3)
	}
	return nil
}
