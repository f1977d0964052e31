// Copyright 2026 The apinotes Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package apinotes persists annotation metadata about a module's Objective-C
// API surface into a compact binary file and reads it back with point
// lookups, without deserializing the whole file.
//
// A producer creates a Writer, registers entities (contexts before the
// members that reference them), and serializes once with WriteTo.  A consumer
// opens the resulting buffer with NewReader and issues independent lookups,
// or enumerates everything with Visit.
package apinotes

import (
	"fmt"
)

// IdentifierID is a dense identifier index assigned in first-seen order.
// ID 0 is reserved for the empty name.
type IdentifierID uint32

// SelectorID is a dense selector index assigned in first-seen order,
// starting at 0.
type SelectorID uint32

// ContextID identifies an Objective-C class or protocol within one module's
// notes.  IDs start at 1; class and protocol contexts with the same name are
// distinct.
type ContextID uint32

// Selector is an ordered sequence of name pieces identifying an Objective-C
// method signature shape.  A zero-argument selector has NumPieces == 0 and
// exactly one identifier holding its name.
type Selector struct {
	NumPieces   int
	Identifiers []string
}

// Sel builds a Selector from its pieces.  A single piece with no trailing
// colon is a zero-argument selector.
func Sel(numPieces int, pieces ...string) Selector {
	return Selector{NumPieces: numPieces, Identifiers: pieces}
}

// Nullability of a pointer-typed entity.
type Nullability uint8

const (
	NonNull Nullability = iota
	Nullable
	// Unspecified is an audited "explicitly unspecified", distinct from the
	// annotation being absent.
	Unspecified
)

// ModuleOptions are module-wide flags carried in the control block rather
// than on any entity.
type ModuleOptions struct {
	SwiftInferImportAsMember bool
}

// CommonEntityInfo holds the annotation fields shared by every named entity.
type CommonEntityInfo struct {
	// SwiftPrivate marks the entity private to the language overlay.
	SwiftPrivate bool

	// Unavailable marks the entity unavailable everywhere; UnavailableInSwift
	// restricts that to Swift only.
	Unavailable        bool
	UnavailableInSwift bool

	// UnavailableMsg is the message attached to the unavailability.
	UnavailableMsg string

	// SwiftName is the alternate name the entity is exposed under.
	SwiftName string
}

// mergeFrom combines a re-declaration into the receiver: boolean flags OR
// together, string fields keep the first non-empty value.
func (i *CommonEntityInfo) mergeFrom(other *CommonEntityInfo) {
	if other.Unavailable {
		i.Unavailable = true
		if i.UnavailableMsg == "" {
			i.UnavailableMsg = other.UnavailableMsg
		}
	}
	if other.UnavailableInSwift {
		i.UnavailableInSwift = true
		if i.UnavailableMsg == "" {
			i.UnavailableMsg = other.UnavailableMsg
		}
	}
	if other.SwiftPrivate {
		i.SwiftPrivate = true
	}
	if i.SwiftName == "" {
		i.SwiftName = other.SwiftName
	}
}

// CommonTypeInfo extends CommonEntityInfo for type-like entities.  The two
// optional strings distinguish absent from empty.
type CommonTypeInfo struct {
	CommonEntityInfo

	// SwiftBridge names the bridged type, if any.
	SwiftBridge *string

	// NSErrorDomain names the error domain associated with the type, if any.
	NSErrorDomain *string
}

func (i *CommonTypeInfo) mergeFrom(other *CommonTypeInfo) {
	i.CommonEntityInfo.mergeFrom(&other.CommonEntityInfo)
	if i.SwiftBridge == nil && other.SwiftBridge != nil {
		s := *other.SwiftBridge
		i.SwiftBridge = &s
	}
	if i.NSErrorDomain == nil && other.NSErrorDomain != nil {
		s := *other.NSErrorDomain
		i.NSErrorDomain = &s
	}
}

// VariableInfo describes a variable or property.
type VariableInfo struct {
	CommonEntityInfo

	// HasNullability gates Nullability; absent means unaudited.
	HasNullability bool
	Nullability    Nullability
}

// SetNullability marks the variable audited with the given kind.
func (i *VariableInfo) SetNullability(kind Nullability) {
	i.HasNullability = true
	i.Nullability = kind
}

// ObjCPropertyInfo describes an Objective-C property.  Instance vs. class
// property is part of the lookup key, not the payload.
type ObjCPropertyInfo = VariableInfo

// GlobalVariableInfo describes a global variable.
type GlobalVariableInfo = VariableInfo

// ParamInfo describes one function or method parameter.
type ParamInfo struct {
	// NoEscape carries the noescape attribute.
	NoEscape bool

	// HasNullability gates Nullability.
	HasNullability bool
	Nullability    Nullability
}

// FunctionInfo describes a function or method signature's annotations.
type FunctionInfo struct {
	CommonEntityInfo

	// NullabilityAudited reports whether the whole signature was audited.
	// When set, slots without explicit info default to non-null.
	NullabilityAudited bool

	// NumAdjustedNullable counts the slots encoded in NullabilityPayload.
	NumAdjustedNullable uint8

	// NullabilityPayload packs 2 bits of Nullability per slot; the return
	// type occupies slot 0, parameters follow.
	NullabilityPayload uint64

	Params []ParamInfo
}

const (
	nullabilityKindSize = 2
	maxNullabilitySlots = 64 / nullabilityKindSize
)

// AddTypeInfo records audited nullability for slot index (0 is the return
// type).  The payload holds 32 slots; indexing past that is a producer bug.
func (i *FunctionInfo) AddTypeInfo(index int, kind Nullability) {
	if index < 0 || index >= maxNullabilitySlots {
		panic(fmt.Sprintf("apinotes: nullability slot %d outside payload capacity %d", index, maxNullabilitySlots))
	}
	i.NullabilityAudited = true
	if int(i.NumAdjustedNullable) < index+1 {
		i.NumAdjustedNullable = uint8(index + 1)
	}
	shift := uint(index) * nullabilityKindSize
	i.NullabilityPayload &^= 0x3 << shift
	i.NullabilityPayload |= uint64(kind) << shift
}

// AddReturnTypeInfo records audited nullability for the return type.
func (i *FunctionInfo) AddReturnTypeInfo(kind Nullability) {
	i.AddTypeInfo(0, kind)
}

// AddParamTypeInfo records audited nullability for parameter index.
func (i *FunctionInfo) AddParamTypeInfo(index int, kind Nullability) {
	i.AddTypeInfo(index+1, kind)
}

// GlobalFunctionInfo describes a global function.
type GlobalFunctionInfo = FunctionInfo

// ObjCMethodInfo describes an Objective-C method.
type ObjCMethodInfo struct {
	FunctionInfo

	// DesignatedInit marks a designated initializer; registering one also
	// flags the owning class context.
	DesignatedInit bool

	// FactoryAsInit treats a factory method as an initializer.
	FactoryAsInit bool

	// RequiredInit marks a required initializer.
	RequiredInit bool
}

// ObjCContextInfo describes an Objective-C class or protocol.
type ObjCContextInfo struct {
	CommonTypeInfo

	// HasDefaultNullability gates DefaultNullability, the default for the
	// context's properties and methods.
	HasDefaultNullability bool
	DefaultNullability    Nullability

	// HasDesignatedInits is set when any designated initializer is
	// registered for the class.
	HasDesignatedInits bool
}

// SetDefaultNullability sets the default nullability for members of this
// context.
func (i *ObjCContextInfo) SetDefaultNullability(kind Nullability) {
	i.HasDefaultNullability = true
	i.DefaultNullability = kind
}

func (i *ObjCContextInfo) mergeFrom(other *ObjCContextInfo) {
	i.CommonTypeInfo.mergeFrom(&other.CommonTypeInfo)
	if !i.HasDefaultNullability && other.HasDefaultNullability {
		i.SetDefaultNullability(other.DefaultNullability)
	}
	if other.HasDesignatedInits {
		i.HasDesignatedInits = true
	}
}

// TagInfo describes a struct/union/enum tag.
type TagInfo struct {
	CommonTypeInfo
}

// TypedefInfo describes a typedef.
type TypedefInfo struct {
	CommonTypeInfo
}

// EnumConstantInfo describes an enumerator.
type EnumConstantInfo struct {
	CommonEntityInfo
}
