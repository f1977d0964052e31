// Copyright 2026 The apinotes Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package apinotes

import (
	"fmt"

	"github.com/mlowell/apinotes/internal/ondisk"
	"github.com/mlowell/apinotes/internal/wire"
)

// Visitor receives every entity stored in a compiled file.  Nil callbacks
// are skipped.  Entities of one kind arrive in table order, which is not the
// insertion order; callers needing a stable order must sort what they
// collect.
type Visitor struct {
	ObjCContext    func(name string, isProtocol bool, id ContextID, info ObjCContextInfo)
	ObjCProperty   func(ctx ContextID, name string, isInstance bool, info ObjCPropertyInfo)
	ObjCMethod     func(ctx ContextID, sel Selector, isInstance bool, info ObjCMethodInfo)
	GlobalVariable func(name string, info GlobalVariableInfo)
	GlobalFunction func(name string, info GlobalFunctionInfo)
	EnumConstant   func(name string, info EnumConstantInfo)
	Tag            func(name string, info TagInfo)
	Typedef        func(name string, info TypedefInfo)
}

// Visit walks the whole file, resolving interned IDs back to names before
// dispatching.  Decoding errors abort the walk.
func (r *Reader) Visit(v Visitor) error {
	names, err := r.identifierNames()
	if err != nil {
		return err
	}
	selectors, err := r.selectorsByID(names)
	if err != nil {
		return err
	}
	lookupName := func(id IdentifierID) (string, error) {
		if id == 0 {
			return "", nil
		}
		name, ok := names[id]
		if !ok {
			return "", fmt.Errorf("%w: dangling identifier ID %d", ErrMalformed, id)
		}
		return name, nil
	}

	if v.ObjCContext != nil && r.contexts != nil {
		err := r.contexts.All(func(key, data []byte) error {
			kd := wire.NewDecoder(key)
			nameID, err := kd.Uint32()
			if err != nil {
				return err
			}
			protocolByte, err := kd.Uint8()
			if err != nil {
				return err
			}
			d := wire.NewDecoder(data)
			id, err := d.Uint32()
			if err != nil {
				return err
			}
			var info ObjCContextInfo
			if err := readObjCContextInfo(d, &info); err != nil {
				return err
			}
			name, err := lookupName(IdentifierID(nameID))
			if err != nil {
				return err
			}
			v.ObjCContext(name, protocolByte != 0, ContextID(id), info)
			return nil
		})
		if err != nil {
			return err
		}
	}

	if v.ObjCProperty != nil && r.properties != nil {
		err := r.properties.All(func(key, data []byte) error {
			ctx, id, isInstance, err := decodeMemberKey(key)
			if err != nil {
				return err
			}
			var info ObjCPropertyInfo
			if err := readVariableInfo(wire.NewDecoder(data), &info); err != nil {
				return err
			}
			name, err := lookupName(IdentifierID(id))
			if err != nil {
				return err
			}
			v.ObjCProperty(ctx, name, isInstance, info)
			return nil
		})
		if err != nil {
			return err
		}
	}

	if v.ObjCMethod != nil && r.methods != nil {
		err := r.methods.All(func(key, data []byte) error {
			ctx, id, isInstance, err := decodeMemberKey(key)
			if err != nil {
				return err
			}
			var info ObjCMethodInfo
			if err := readObjCMethodInfo(wire.NewDecoder(data), &info); err != nil {
				return err
			}
			sel, ok := selectors[SelectorID(id)]
			if !ok {
				return fmt.Errorf("%w: dangling selector ID %d", ErrMalformed, id)
			}
			v.ObjCMethod(ctx, sel, isInstance, info)
			return nil
		})
		if err != nil {
			return err
		}
	}

	if err := visitNamed(r.globalVariables, lookupName, readVariableInfo, v.GlobalVariable); err != nil {
		return err
	}
	if err := visitNamed(r.globalFunctions, lookupName, readFunctionInfo, v.GlobalFunction); err != nil {
		return err
	}
	if err := visitNamed(r.enumConstants, lookupName, func(d *wire.Decoder, info *EnumConstantInfo) error {
		return readCommonEntityInfo(d, &info.CommonEntityInfo)
	}, v.EnumConstant); err != nil {
		return err
	}
	if err := visitNamed(r.tags, lookupName, func(d *wire.Decoder, info *TagInfo) error {
		return readCommonTypeInfo(d, &info.CommonTypeInfo)
	}, v.Tag); err != nil {
		return err
	}
	return visitNamed(r.typedefs, lookupName, func(d *wire.Decoder, info *TypedefInfo) error {
		return readCommonTypeInfo(d, &info.CommonTypeInfo)
	}, v.Typedef)
}

// identifierNames inverts the identifier table.
func (r *Reader) identifierNames() (map[IdentifierID]string, error) {
	names := make(map[IdentifierID]string)
	if r.identifiers == nil {
		return names, nil
	}
	err := r.identifiers.All(func(key, data []byte) error {
		id, err := wire.NewDecoder(data).Uint32()
		if err != nil {
			return err
		}
		names[IdentifierID(id)] = string(key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return names, nil
}

// selectorsByID inverts the selector table, resolving each piece back to its
// identifier text.
func (r *Reader) selectorsByID(names map[IdentifierID]string) (map[SelectorID]Selector, error) {
	selectors := make(map[SelectorID]Selector)
	if r.selectors == nil {
		return selectors, nil
	}
	err := r.selectors.All(func(key, data []byte) error {
		kd := wire.NewDecoder(key)
		numPieces, err := kd.Uint16()
		if err != nil {
			return err
		}
		var pieces []string
		for kd.Remaining() >= 4 {
			id, err := kd.Uint32()
			if err != nil {
				return err
			}
			piece := ""
			if id != 0 {
				var ok bool
				if piece, ok = names[IdentifierID(id)]; !ok {
					return fmt.Errorf("dangling identifier ID %d in selector", id)
				}
			}
			pieces = append(pieces, piece)
		}
		id, err := wire.NewDecoder(data).Uint32()
		if err != nil {
			return err
		}
		selectors[SelectorID(id)] = Selector{NumPieces: int(numPieces), Identifiers: pieces}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return selectors, nil
}

func decodeMemberKey(key []byte) (ContextID, uint32, bool, error) {
	d := wire.NewDecoder(key)
	ctx, err := d.Uint32()
	if err != nil {
		return 0, 0, false, err
	}
	id, err := d.Uint32()
	if err != nil {
		return 0, 0, false, err
	}
	instanceByte, err := d.Uint8()
	if err != nil {
		return 0, 0, false, err
	}
	return ContextID(ctx), id, instanceByte != 0, nil
}

func visitNamed[V any](t *ondisk.Table, lookupName func(IdentifierID) (string, error), read func(*wire.Decoder, *V) error, fn func(string, V)) error {
	if fn == nil || t == nil {
		return nil
	}
	return t.All(func(key, data []byte) error {
		id, err := wire.NewDecoder(key).Uint32()
		if err != nil {
			return err
		}
		var info V
		if err := read(wire.NewDecoder(data), &info); err != nil {
			return err
		}
		name, err := lookupName(IdentifierID(id))
		if err != nil {
			return err
		}
		fn(name, info)
		return nil
	})
}
