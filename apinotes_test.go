// Copyright 2026 The apinotes Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package apinotes

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlowell/apinotes/internal/container"
	"github.com/mlowell/apinotes/internal/wire"
)

func writeAndRead(t *testing.T, w *Writer) *Reader {
	t.Helper()
	var buf bytes.Buffer
	n, err := w.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)
	r, err := NewReader(buf.Bytes())
	require.NoError(t, err)
	return r
}

func TestRoundTripScenario(t *testing.T) {
	w := NewWriter("TestModule")

	fooID := w.AddObjCContext("Foo", false, ObjCContextInfo{})

	var prop ObjCPropertyInfo
	prop.SetNullability(Nullable)
	w.AddObjCProperty(fooID, "bar", true, prop)

	var method ObjCMethodInfo
	method.DesignatedInit = true
	w.AddObjCMethod(fooID, Sel(1, "doWithBar"), true, method)

	r := writeAndRead(t, w)
	require.Equal(t, "TestModule", r.ModuleName())

	id, info, found := r.LookupObjCContext("Foo", false)
	require.True(t, found)
	require.Equal(t, fooID, id)
	require.True(t, info.HasDesignatedInits)

	gotProp, found := r.LookupObjCProperty(id, "bar", true)
	require.True(t, found)
	require.True(t, gotProp.HasNullability)
	require.Equal(t, Nullable, gotProp.Nullability)

	gotMethod, found := r.LookupObjCMethod(id, Sel(1, "doWithBar"), true)
	require.True(t, found)
	require.True(t, gotMethod.DesignatedInit)

	_, found = r.LookupObjCProperty(id, "bar", false)
	require.False(t, found)
	_, _, found = r.LookupObjCContext("Foo", true)
	require.False(t, found)
}

func TestEmptyContainer(t *testing.T) {
	r := writeAndRead(t, NewWriter("Empty"))
	require.Equal(t, "Empty", r.ModuleName())

	_, ok := r.ModuleOptions()
	require.False(t, ok)
	_, _, found := r.LookupObjCContext("Anything", false)
	require.False(t, found)
	_, found = r.LookupGlobalVariable("x")
	require.False(t, found)
	_, found = r.LookupGlobalFunction("f")
	require.False(t, found)
	_, found = r.LookupEnumConstant("E")
	require.False(t, found)
	_, found = r.LookupTag("T")
	require.False(t, found)
	_, found = r.LookupTypedef("T")
	require.False(t, found)

	visited := 0
	err := r.Visit(Visitor{
		ObjCContext:    func(string, bool, ContextID, ObjCContextInfo) { visited++ },
		ObjCProperty:   func(ContextID, string, bool, ObjCPropertyInfo) { visited++ },
		ObjCMethod:     func(ContextID, Selector, bool, ObjCMethodInfo) { visited++ },
		GlobalVariable: func(string, GlobalVariableInfo) { visited++ },
		GlobalFunction: func(string, GlobalFunctionInfo) { visited++ },
		EnumConstant:   func(string, EnumConstantInfo) { visited++ },
		Tag:            func(string, TagInfo) { visited++ },
		Typedef:        func(string, TypedefInfo) { visited++ },
	})
	require.NoError(t, err)
	require.Zero(t, visited)
}

func TestRoundTripAllKinds(t *testing.T) {
	w := NewWriter("Kitchen")
	w.SetModuleOptions(ModuleOptions{SwiftInferImportAsMember: true})

	bridge := "FooBridge"
	domain := "FooErrorDomain"
	var ctxInfo ObjCContextInfo
	ctxInfo.SwiftBridge = &bridge
	ctxInfo.NSErrorDomain = &domain
	ctxInfo.SetDefaultNullability(NonNull)
	classID := w.AddObjCContext("Foo", false, ctxInfo)
	protoID := w.AddObjCContext("Foo", true, ObjCContextInfo{})
	require.NotEqual(t, classID, protoID)

	var fn GlobalFunctionInfo
	fn.SwiftName = "doThing(_:)"
	fn.AddReturnTypeInfo(NonNull)
	fn.AddParamTypeInfo(0, Nullable)
	fn.Params = []ParamInfo{{NoEscape: true, HasNullability: true, Nullability: Nullable}}
	w.AddGlobalFunction("do_thing", fn)

	var gv GlobalVariableInfo
	gv.Unavailable = true
	gv.UnavailableMsg = "use doThing"
	w.AddGlobalVariable("kFooConstant", gv)

	var enum EnumConstantInfo
	enum.SwiftPrivate = true
	w.AddEnumConstant("FooKindA", enum)

	var tag TagInfo
	tag.SwiftName = "FooStruct"
	w.AddTag("foo_t", tag)

	var td TypedefInfo
	td.UnavailableInSwift = true
	w.AddTypedef("foo_ref_t", td)

	r := writeAndRead(t, w)

	opts, ok := r.ModuleOptions()
	require.True(t, ok)
	require.True(t, opts.SwiftInferImportAsMember)

	id, gotCtx, found := r.LookupObjCContext("Foo", false)
	require.True(t, found)
	require.Equal(t, classID, id)
	require.Equal(t, ctxInfo, gotCtx)

	gotFn, found := r.LookupGlobalFunction("do_thing")
	require.True(t, found)
	require.Equal(t, fn, gotFn)

	gotVar, found := r.LookupGlobalVariable("kFooConstant")
	require.True(t, found)
	require.Equal(t, gv, gotVar)

	gotEnum, found := r.LookupEnumConstant("FooKindA")
	require.True(t, found)
	require.Equal(t, enum, gotEnum)

	gotTag, found := r.LookupTag("foo_t")
	require.True(t, found)
	require.Equal(t, tag, gotTag)

	gotTd, found := r.LookupTypedef("foo_ref_t")
	require.True(t, found)
	require.Equal(t, td, gotTd)
}

func TestIdentifierInterning(t *testing.T) {
	w := NewWriter("M")
	require.Equal(t, IdentifierID(0), w.internIdentifier(""))
	a := w.internIdentifier("alpha")
	b := w.internIdentifier("beta")
	require.Equal(t, IdentifierID(1), a)
	require.Equal(t, IdentifierID(2), b)
	require.Equal(t, a, w.internIdentifier("alpha"))
	require.Equal(t, IdentifierID(0), w.internIdentifier(""))
	require.Len(t, w.identifiers, 2)
}

func TestSelectorIdentity(t *testing.T) {
	w := NewWriter("M")
	first := w.internSelector(Sel(2, "doWith", "bar"))
	w.internSelector(Sel(1, "unrelated"))
	again := w.internSelector(Sel(2, "doWith", "bar"))
	require.Equal(t, first, again)

	// Piece count distinguishes a zero-argument selector from a one-keyword
	// selector of the same name.
	zero := w.internSelector(Sel(0, "count"))
	one := w.internSelector(Sel(1, "count"))
	require.NotEqual(t, zero, one)
}

func TestContextMergeIdempotence(t *testing.T) {
	w := NewWriter("M")
	var a ObjCContextInfo
	a.SwiftPrivate = true
	var b ObjCContextInfo
	b.Unavailable = true
	b.UnavailableMsg = "gone"

	first := w.AddObjCContext("Foo", false, a)
	second := w.AddObjCContext("Foo", false, b)
	require.Equal(t, first, second)

	r := writeAndRead(t, w)
	_, info, found := r.LookupObjCContext("Foo", false)
	require.True(t, found)
	require.True(t, info.SwiftPrivate)
	require.True(t, info.Unavailable)
	require.Equal(t, "gone", info.UnavailableMsg)
}

func TestDesignatedInitPropagation(t *testing.T) {
	w := NewWriter("M")
	classID := w.AddObjCContext("Widget", false, ObjCContextInfo{})

	var method ObjCMethodInfo
	method.DesignatedInit = true
	method.RequiredInit = true
	w.AddObjCMethod(classID, Sel(1, "initWithName"), true, method)

	r := writeAndRead(t, w)
	_, info, found := r.LookupObjCContext("Widget", false)
	require.True(t, found)
	require.True(t, info.HasDesignatedInits)

	got, found := r.LookupObjCMethod(classID, Sel(1, "initWithName"), true)
	require.True(t, found)
	require.True(t, got.DesignatedInit)
	require.True(t, got.RequiredInit)
	require.False(t, got.FactoryAsInit)
}

func TestDuplicateAddPanics(t *testing.T) {
	w := NewWriter("M")
	id := w.AddObjCContext("Foo", false, ObjCContextInfo{})
	w.AddObjCProperty(id, "bar", true, ObjCPropertyInfo{})
	require.Panics(t, func() {
		w.AddObjCProperty(id, "bar", true, ObjCPropertyInfo{})
	})
	w.AddGlobalVariable("x", GlobalVariableInfo{})
	require.Panics(t, func() {
		w.AddGlobalVariable("x", GlobalVariableInfo{})
	})
}

func TestDesignatedInitWithoutClassPanics(t *testing.T) {
	w := NewWriter("M")
	protoID := w.AddObjCContext("Fooable", true, ObjCContextInfo{})
	var method ObjCMethodInfo
	method.DesignatedInit = true
	require.Panics(t, func() {
		w.AddObjCMethod(protoID, Sel(1, "initWithName"), true, method)
	})
}

func TestWriterFinalized(t *testing.T) {
	w := NewWriter("M")
	var buf bytes.Buffer
	_, err := w.WriteTo(&buf)
	require.NoError(t, err)
	require.Panics(t, func() {
		w.AddTag("t", TagInfo{})
	})
}

func TestVisitorEnumeratesEverything(t *testing.T) {
	w := NewWriter("M")
	classID := w.AddObjCContext("Foo", false, ObjCContextInfo{})
	w.AddObjCProperty(classID, "bar", true, ObjCPropertyInfo{})
	w.AddObjCMethod(classID, Sel(0, "count"), false, ObjCMethodInfo{})
	w.AddGlobalVariable("gv", GlobalVariableInfo{})
	w.AddGlobalFunction("gf", GlobalFunctionInfo{})
	w.AddEnumConstant("ec", EnumConstantInfo{})
	w.AddTag("tag", TagInfo{})
	w.AddTypedef("td", TypedefInfo{})

	r := writeAndRead(t, w)

	var contexts, members, named int
	err := r.Visit(Visitor{
		ObjCContext: func(name string, isProtocol bool, id ContextID, info ObjCContextInfo) {
			contexts++
			require.Equal(t, "Foo", name)
			require.False(t, isProtocol)
			require.Equal(t, classID, id)
		},
		ObjCProperty: func(ctx ContextID, name string, isInstance bool, info ObjCPropertyInfo) {
			members++
			require.Equal(t, classID, ctx)
			require.Equal(t, "bar", name)
			require.True(t, isInstance)
		},
		ObjCMethod: func(ctx ContextID, sel Selector, isInstance bool, info ObjCMethodInfo) {
			members++
			require.Equal(t, classID, ctx)
			require.Equal(t, Sel(0, "count"), sel)
			require.False(t, isInstance)
		},
		GlobalVariable: func(name string, info GlobalVariableInfo) {
			named++
			require.Equal(t, "gv", name)
		},
		GlobalFunction: func(name string, info GlobalFunctionInfo) {
			named++
			require.Equal(t, "gf", name)
		},
		EnumConstant: func(name string, info EnumConstantInfo) {
			named++
			require.Equal(t, "ec", name)
		},
		Tag: func(name string, info TagInfo) {
			named++
			require.Equal(t, "tag", name)
		},
		Typedef: func(name string, info TypedefInfo) {
			named++
			require.Equal(t, "td", name)
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, contexts)
	require.Equal(t, 2, members)
	require.Equal(t, 5, named)
}

func TestWriteRejectsOversizedRecord(t *testing.T) {
	// Each string fits its own 16-bit prefix, but the encoded record exceeds
	// the u16 entry header; the write must fail rather than wrap the length
	// and drop the key.
	w := NewWriter("M")
	var gv GlobalVariableInfo
	gv.UnavailableMsg = strings.Repeat("a", 40000)
	gv.SwiftName = strings.Repeat("b", 40000)
	w.AddGlobalVariable("victim", gv)

	var buf bytes.Buffer
	_, err := w.WriteTo(&buf)
	require.Error(t, err)
}

func TestWriteRejectsOversizedIdentifierKey(t *testing.T) {
	w := NewWriter("M")
	w.AddGlobalVariable(strings.Repeat("k", 70000), GlobalVariableInfo{})

	var buf bytes.Buffer
	_, err := w.WriteTo(&buf)
	require.Error(t, err)
}

func TestRoundTripNearEntryHeaderLimit(t *testing.T) {
	w := NewWriter("M")
	var gv GlobalVariableInfo
	gv.UnavailableMsg = strings.Repeat("a", 32000)
	gv.SwiftName = strings.Repeat("b", 33000)
	w.AddGlobalVariable("big", gv)

	r := writeAndRead(t, w)
	got, found := r.LookupGlobalVariable("big")
	require.True(t, found)
	require.Equal(t, gv, got)
}

func TestAddTypeInfoSlotLimit(t *testing.T) {
	var fn FunctionInfo
	fn.AddTypeInfo(31, Nullable)
	require.Equal(t, uint8(32), fn.NumAdjustedNullable)
	require.Panics(t, func() {
		fn.AddTypeInfo(32, Nullable)
	})
	require.Panics(t, func() {
		fn.AddTypeInfo(-1, Nullable)
	})
}

func TestSelectorPieceCountLimit(t *testing.T) {
	w := NewWriter("M")
	classID := w.AddObjCContext("Foo", false, ObjCContextInfo{})
	require.Panics(t, func() {
		w.AddObjCMethod(classID, Selector{NumPieces: math.MaxUint16 + 1, Identifiers: []string{"x"}}, true, ObjCMethodInfo{})
	})

	r := writeAndRead(t, w)
	ctx, _, found := r.LookupObjCContext("Foo", false)
	require.True(t, found)
	_, found = r.LookupObjCMethod(ctx, Selector{NumPieces: math.MaxUint16 + 1, Identifiers: []string{"x"}}, true)
	require.False(t, found)
}

func TestOpenFile(t *testing.T) {
	w := NewWriter("Mapped")
	w.AddTag("foo_t", TagInfo{})
	var buf bytes.Buffer
	_, err := w.WriteTo(&buf)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "Mapped.apinotesc")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	r, err := OpenFile(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, r.Close()) }()

	require.Equal(t, "Mapped", r.ModuleName())
	_, found := r.LookupTag("foo_t")
	require.True(t, found)

	_, err = OpenFile(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestReaderRejectsBadInput(t *testing.T) {
	_, err := NewReader([]byte("not api notes"))
	require.ErrorIs(t, err, ErrInvalidSignature)

	_, err = NewReader(nil)
	require.ErrorIs(t, err, ErrInvalidSignature)

	// Valid signature, truncated block header.
	var buf bytes.Buffer
	buf.Write(container.Signature[:])
	buf.WriteByte(controlBlockID)
	_, err = NewReader(buf.Bytes())
	require.ErrorIs(t, err, ErrMalformed)
}

func TestReaderRejectsFutureMajorVersion(t *testing.T) {
	cw := container.NewWriter()
	cw.WriteBlock(controlBlockID, func(b *container.Block) {
		meta := wire.NewEncoder()
		meta.Uint16(VersionMajor + 1)
		meta.Uint16(0)
		b.Record(controlMetadata, meta.Bytes())
		b.Record(controlModuleName, []byte("Future"))
	})
	var buf bytes.Buffer
	_, err := cw.WriteTo(&buf)
	require.NoError(t, err)

	_, err = NewReader(buf.Bytes())
	require.ErrorIs(t, err, ErrVersionMismatch)
}

func TestReaderToleratesTrailingRecordBytes(t *testing.T) {
	// A later minor version may append fields to a record; decoding reads
	// only the fields it knows.
	e := wire.NewEncoder()
	emitCommonEntityInfo(e, &CommonEntityInfo{SwiftName: "x"})
	e.Uint8(0xFF)

	var got CommonEntityInfo
	d := wire.NewDecoder(e.Bytes())
	require.NoError(t, readCommonEntityInfo(d, &got))
	require.Equal(t, "x", got.SwiftName)
	require.Equal(t, 1, d.Remaining())
}

func TestReaderSkipsUnknownBlocks(t *testing.T) {
	w := NewWriter("M")
	w.AddTag("t", TagInfo{})
	var buf bytes.Buffer
	_, err := w.WriteTo(&buf)
	require.NoError(t, err)

	// Append a block with an ID this version does not define.
	extra := wire.NewEncoder()
	extra.Uint8(200)
	extra.Uint32(3)
	extra.Raw([]byte{1, 2, 3})
	data := append(buf.Bytes(), extra.Bytes()...)

	r, err := NewReader(data)
	require.NoError(t, err)
	_, found := r.LookupTag("t")
	require.True(t, found)
}
