// Copyright 2026 The apinotes Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package apinotes

import (
	"fmt"
	"io"
	"math"

	"github.com/mlowell/apinotes/internal/container"
	"github.com/mlowell/apinotes/internal/ondisk"
	"github.com/mlowell/apinotes/internal/wire"
)

// Writer accumulates API notes for one module and serializes them once.
//
// Adds may arrive in any relative order among independent entity kinds, but a
// method's owning context must be added before the method.  Duplicate adds of
// a context merge; duplicate adds of any other entity are producer bugs and
// panic.  After WriteTo the writer is finalized and further adds panic.
type Writer struct {
	moduleName string
	options    *ModuleOptions
	finalized  bool

	identifiers map[string]IdentifierID
	selectors   map[storedSelector]SelectorID

	contexts     map[contextKey]*contextValue
	contextNames map[ContextID]IdentifierID

	properties      map[memberKey]ObjCPropertyInfo
	methods         map[memberKey]ObjCMethodInfo
	globalVariables map[IdentifierID]GlobalVariableInfo
	globalFunctions map[IdentifierID]GlobalFunctionInfo
	enumConstants   map[IdentifierID]EnumConstantInfo
	tags            map[IdentifierID]TagInfo
	typedefs        map[IdentifierID]TypedefInfo
}

// NewWriter creates a writer for the named module.
func NewWriter(moduleName string) *Writer {
	return &Writer{
		moduleName:      moduleName,
		identifiers:     make(map[string]IdentifierID),
		selectors:       make(map[storedSelector]SelectorID),
		contexts:        make(map[contextKey]*contextValue),
		contextNames:    make(map[ContextID]IdentifierID),
		properties:      make(map[memberKey]ObjCPropertyInfo),
		methods:         make(map[memberKey]ObjCMethodInfo),
		globalVariables: make(map[IdentifierID]GlobalVariableInfo),
		globalFunctions: make(map[IdentifierID]GlobalFunctionInfo),
		enumConstants:   make(map[IdentifierID]EnumConstantInfo),
		tags:            make(map[IdentifierID]TagInfo),
		typedefs:        make(map[IdentifierID]TypedefInfo),
	}
}

// ModuleName returns the name the writer was created with.
func (w *Writer) ModuleName() string {
	return w.moduleName
}

// SetModuleOptions attaches module-wide options to the container.
func (w *Writer) SetModuleOptions(opts ModuleOptions) {
	w.checkOpen()
	w.options = &opts
}

// internIdentifier returns the dense ID for name.  The empty string is
// always ID 0 and never occupies a table slot.
func (w *Writer) internIdentifier(name string) IdentifierID {
	if name == "" {
		return 0
	}
	if id, ok := w.identifiers[name]; ok {
		return id
	}
	id := IdentifierID(len(w.identifiers) + 1)
	w.identifiers[name] = id
	return id
}

// internSelector returns the dense ID for a selector, keyed by structural
// equality over (piece count, identifier-ID sequence).  The stored piece
// count is a u16; a count outside that range is a producer bug.
func (w *Writer) internSelector(sel Selector) SelectorID {
	if sel.NumPieces < 0 || sel.NumPieces > math.MaxUint16 {
		panic(fmt.Sprintf("apinotes: selector piece count %d outside u16 range", sel.NumPieces))
	}
	ids := make([]IdentifierID, len(sel.Identifiers))
	for i, piece := range sel.Identifiers {
		ids[i] = w.internIdentifier(piece)
	}
	key := storedSelector{
		numPieces: uint16(sel.NumPieces),
		pieces:    encodeSelectorPieces(ids),
	}
	if id, ok := w.selectors[key]; ok {
		return id
	}
	id := SelectorID(len(w.selectors))
	w.selectors[key] = id
	return id
}

func (w *Writer) checkOpen() {
	if w.finalized {
		panic("apinotes: writer already finalized")
	}
}

// AddObjCContext registers a class or protocol and returns its ContextID.
// Re-adding an existing context merges the new info into the stored record
// and returns the existing ID.
func (w *Writer) AddObjCContext(name string, isProtocol bool, info ObjCContextInfo) ContextID {
	w.checkOpen()
	nameID := w.internIdentifier(name)
	key := contextKey{nameID: nameID, isProtocol: isProtocol}
	if existing, ok := w.contexts[key]; ok {
		existing.info.mergeFrom(&info)
		return existing.id
	}
	id := ContextID(len(w.contexts) + 1)
	w.contexts[key] = &contextValue{id: id, info: info}
	w.contextNames[id] = nameID
	return id
}

// AddObjCProperty registers a property on a previously added context.
func (w *Writer) AddObjCProperty(ctx ContextID, name string, isInstance bool, info ObjCPropertyInfo) {
	w.checkOpen()
	nameID := w.internIdentifier(name)
	key := memberKey{context: ctx, id: uint32(nameID), isInstance: isInstance}
	if _, ok := w.properties[key]; ok {
		panic(fmt.Sprintf("apinotes: duplicate property %q (context %d)", name, ctx))
	}
	w.properties[key] = info
}

// AddObjCMethod registers a method on a previously added context.  A
// designated initializer also sets the owning class's HasDesignatedInits
// flag; the class context must already exist.
func (w *Writer) AddObjCMethod(ctx ContextID, sel Selector, isInstance bool, info ObjCMethodInfo) {
	w.checkOpen()
	selID := w.internSelector(sel)
	key := memberKey{context: ctx, id: uint32(selID), isInstance: isInstance}
	if _, ok := w.methods[key]; ok {
		panic(fmt.Sprintf("apinotes: duplicate method %v (context %d)", sel.Identifiers, ctx))
	}
	w.methods[key] = info

	if info.DesignatedInit {
		// The flag always lands on the class context, never a protocol.
		nameID, ok := w.contextNames[ctx]
		if !ok {
			panic(fmt.Sprintf("apinotes: method references unknown context %d", ctx))
		}
		class, ok := w.contexts[contextKey{nameID: nameID, isProtocol: false}]
		if !ok {
			panic(fmt.Sprintf("apinotes: designated initializer for context %d, but no class context exists", ctx))
		}
		class.info.HasDesignatedInits = true
	}
}

// AddGlobalVariable registers a global variable by name.
func (w *Writer) AddGlobalVariable(name string, info GlobalVariableInfo) {
	w.checkOpen()
	id := w.internIdentifier(name)
	if _, ok := w.globalVariables[id]; ok {
		panic(fmt.Sprintf("apinotes: duplicate global variable %q", name))
	}
	w.globalVariables[id] = info
}

// AddGlobalFunction registers a global function by name.
func (w *Writer) AddGlobalFunction(name string, info GlobalFunctionInfo) {
	w.checkOpen()
	id := w.internIdentifier(name)
	if _, ok := w.globalFunctions[id]; ok {
		panic(fmt.Sprintf("apinotes: duplicate global function %q", name))
	}
	w.globalFunctions[id] = info
}

// AddEnumConstant registers an enumerator by name.
func (w *Writer) AddEnumConstant(name string, info EnumConstantInfo) {
	w.checkOpen()
	id := w.internIdentifier(name)
	if _, ok := w.enumConstants[id]; ok {
		panic(fmt.Sprintf("apinotes: duplicate enum constant %q", name))
	}
	w.enumConstants[id] = info
}

// AddTag registers a struct/union/enum tag by name.
func (w *Writer) AddTag(name string, info TagInfo) {
	w.checkOpen()
	id := w.internIdentifier(name)
	if _, ok := w.tags[id]; ok {
		panic(fmt.Sprintf("apinotes: duplicate tag %q", name))
	}
	w.tags[id] = info
}

// AddTypedef registers a typedef by name.
func (w *Writer) AddTypedef(name string, info TypedefInfo) {
	w.checkOpen()
	id := w.internIdentifier(name)
	if _, ok := w.typedefs[id]; ok {
		panic(fmt.Sprintf("apinotes: duplicate typedef %q", name))
	}
	w.typedefs[id] = info
}

// WriteTo serializes the container.  The writer is finalized afterwards.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	w.checkOpen()
	w.finalized = true

	cw := container.NewWriter()
	writeBlockInfoBlock(cw)
	w.writeControlBlock(cw)

	if err := writeEntityBlock(cw, identifierBlockID, identifierTableInfo{}, w.identifiers); err != nil {
		return 0, err
	}
	contexts := make(map[contextKey]contextValue, len(w.contexts))
	for key, value := range w.contexts {
		contexts[key] = *value
	}
	if err := writeEntityBlock(cw, objcContextBlockID, contextTableInfo{}, contexts); err != nil {
		return 0, err
	}
	if err := writeEntityBlock(cw, objcPropertyBlockID, propertyTableInfo{}, w.properties); err != nil {
		return 0, err
	}
	if err := writeEntityBlock(cw, objcMethodBlockID, methodTableInfo{}, w.methods); err != nil {
		return 0, err
	}
	if err := writeEntityBlock(cw, objcSelectorBlockID, selectorTableInfo{}, w.selectors); err != nil {
		return 0, err
	}
	if err := writeEntityBlock(cw, globalVariableBlockID, globalVariableTableInfo, w.globalVariables); err != nil {
		return 0, err
	}
	if err := writeEntityBlock(cw, globalFunctionBlockID, globalFunctionTableInfo, w.globalFunctions); err != nil {
		return 0, err
	}
	if err := writeEntityBlock(cw, enumConstantBlockID, enumConstantTableInfo, w.enumConstants); err != nil {
		return 0, err
	}
	if err := writeEntityBlock(cw, tagBlockID, tagTableInfo, w.tags); err != nil {
		return 0, err
	}
	if err := writeEntityBlock(cw, typedefBlockID, typedefTableInfo, w.typedefs); err != nil {
		return 0, err
	}

	return cw.WriteTo(out)
}

func writeBlockInfoBlock(cw *container.Writer) {
	cw.WriteBlock(blockInfoBlockID, func(b *container.Block) {
		for _, desc := range blockDirectory {
			b.Record(blockInfoSetBlockID, []byte{desc.id})
			b.Record(blockInfoBlockName, []byte(desc.name))
			for _, rec := range desc.records {
				name := make([]byte, 0, len(rec.name)+1)
				name = append(name, rec.id)
				name = append(name, rec.name...)
				b.Record(blockInfoSetRecordName, name)
			}
		}
	})
}

func (w *Writer) writeControlBlock(cw *container.Writer) {
	cw.WriteBlock(controlBlockID, func(b *container.Block) {
		meta := wire.NewEncoder()
		meta.Uint16(VersionMajor)
		meta.Uint16(VersionMinor)
		b.Record(controlMetadata, meta.Bytes())

		b.Record(controlModuleName, []byte(w.moduleName))

		if w.options != nil {
			var bits uint8
			if w.options.SwiftInferImportAsMember {
				bits |= moduleOptInferImportAsMember
			}
			b.Record(controlModuleOptions, []byte{bits})
		}
	})
}

// writeEntityBlock builds the on-disk table for one entity kind and emits
// its block.  Empty stores produce no block at all.
func writeEntityBlock[K comparable, V any](cw *container.Writer, blockID uint8, info ondisk.TableInfo[K, V], entries map[K]V) error {
	if len(entries) == 0 {
		return nil
	}
	builder := ondisk.NewBuilder(info)
	for key, value := range entries {
		builder.Insert(key, value)
	}
	tableOffset, blob, err := builder.Finish()
	if err != nil {
		return fmt.Errorf("apinotes: block %d: %w", blockID, err)
	}
	e := wire.NewEncoder()
	e.Uint32(tableOffset)
	e.Raw(blob)
	cw.WriteBlock(blockID, func(b *container.Block) {
		b.Record(entityDataRecord, e.Bytes())
	})
	return nil
}
