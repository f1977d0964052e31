// Copyright 2026 The apinotes Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mlowell/apinotes"
	"github.com/mlowell/apinotes/internal/memfs"
)

var (
	dumpFormat string
	dumpOutput string
)

var dumpCmd = &cobra.Command{
	Use:   "dump <apinotes-file>",
	Short: "Dump all API notes information",
	Long: `Dump every entity stored in a compiled API notes file.

Supported formats:
  - text: Human-readable text (default)
  - json: JSON format`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpFormat, "format", "f", "text", "output format (text, json)")
	dumpCmd.Flags().StringVarP(&dumpOutput, "output", "o", "", "write output to file instead of stdout")
}

func runDump(cmd *cobra.Command, args []string) error {
	r, err := apinotes.OpenFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to open API notes: %w", err)
	}
	defer r.Close()

	d, err := collectDump(r)
	if err != nil {
		return fmt.Errorf("failed to walk API notes: %w", err)
	}

	// Stage output in memory so a failed dump never leaves a partial file.
	fs := memfs.New()
	outPath := dumpOutput
	if outPath == "" {
		outPath = "-"
	}
	buf, tempPath := fs.CreateTemporaryBuffer(outPath)

	switch dumpFormat {
	case "json":
		err = dumpJSON(buf, d)
	case "text":
		err = dumpText(buf, d)
	default:
		err = fmt.Errorf("unknown format: %s", dumpFormat)
	}
	if err != nil {
		_ = fs.DeleteTemporaryBuffer(tempPath)
		return err
	}
	if err := fs.FinalizeTemporaryBuffer(outPath, tempPath); err != nil {
		return err
	}
	data, _ := fs.ReadFile(outPath)
	if dumpOutput == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(dumpOutput, data, 0o644)
}

type contextDump struct {
	Name       string                   `json:"name"`
	IsProtocol bool                     `json:"isProtocol"`
	ID         apinotes.ContextID       `json:"id"`
	Info       apinotes.ObjCContextInfo `json:"info"`
	Properties []propertyDump           `json:"properties,omitempty"`
	Methods    []methodDump             `json:"methods,omitempty"`
}

type propertyDump struct {
	Name       string                    `json:"name"`
	IsInstance bool                      `json:"isInstance"`
	Info       apinotes.ObjCPropertyInfo `json:"info"`
}

type methodDump struct {
	Selector   string                  `json:"selector"`
	IsInstance bool                    `json:"isInstance"`
	Info       apinotes.ObjCMethodInfo `json:"info"`
}

type namedDump[V any] struct {
	Name string `json:"name"`
	Info V      `json:"info"`
}

type fileDump struct {
	Module          string                                   `json:"module"`
	Options         *apinotes.ModuleOptions                  `json:"options,omitempty"`
	Contexts        []contextDump                            `json:"contexts,omitempty"`
	GlobalVariables []namedDump[apinotes.GlobalVariableInfo] `json:"globalVariables,omitempty"`
	GlobalFunctions []namedDump[apinotes.GlobalFunctionInfo] `json:"globalFunctions,omitempty"`
	EnumConstants   []namedDump[apinotes.EnumConstantInfo]   `json:"enumConstants,omitempty"`
	Tags            []namedDump[apinotes.TagInfo]            `json:"tags,omitempty"`
	Typedefs        []namedDump[apinotes.TypedefInfo]        `json:"typedefs,omitempty"`
}

func collectDump(r *apinotes.Reader) (*fileDump, error) {
	d := &fileDump{Module: r.ModuleName()}
	if opts, ok := r.ModuleOptions(); ok {
		d.Options = &opts
	}

	byID := make(map[apinotes.ContextID]*contextDump)
	contextFor := func(ctx apinotes.ContextID) *contextDump {
		if c, ok := byID[ctx]; ok {
			return c
		}
		// Members can precede their context in table order.
		c := &contextDump{ID: ctx}
		byID[ctx] = c
		return c
	}
	err := r.Visit(apinotes.Visitor{
		ObjCContext: func(name string, isProtocol bool, id apinotes.ContextID, info apinotes.ObjCContextInfo) {
			c := contextFor(id)
			c.Name = name
			c.IsProtocol = isProtocol
			c.Info = info
		},
		ObjCProperty: func(ctx apinotes.ContextID, name string, isInstance bool, info apinotes.ObjCPropertyInfo) {
			c := contextFor(ctx)
			c.Properties = append(c.Properties, propertyDump{Name: name, IsInstance: isInstance, Info: info})
		},
		ObjCMethod: func(ctx apinotes.ContextID, sel apinotes.Selector, isInstance bool, info apinotes.ObjCMethodInfo) {
			c := contextFor(ctx)
			c.Methods = append(c.Methods, methodDump{Selector: formatSelector(sel), IsInstance: isInstance, Info: info})
		},
		GlobalVariable: func(name string, info apinotes.GlobalVariableInfo) {
			d.GlobalVariables = append(d.GlobalVariables, namedDump[apinotes.GlobalVariableInfo]{Name: name, Info: info})
		},
		GlobalFunction: func(name string, info apinotes.GlobalFunctionInfo) {
			d.GlobalFunctions = append(d.GlobalFunctions, namedDump[apinotes.GlobalFunctionInfo]{Name: name, Info: info})
		},
		EnumConstant: func(name string, info apinotes.EnumConstantInfo) {
			d.EnumConstants = append(d.EnumConstants, namedDump[apinotes.EnumConstantInfo]{Name: name, Info: info})
		},
		Tag: func(name string, info apinotes.TagInfo) {
			d.Tags = append(d.Tags, namedDump[apinotes.TagInfo]{Name: name, Info: info})
		},
		Typedef: func(name string, info apinotes.TypedefInfo) {
			d.Typedefs = append(d.Typedefs, namedDump[apinotes.TypedefInfo]{Name: name, Info: info})
		},
	})
	if err != nil {
		return nil, err
	}
	for _, c := range byID {
		d.Contexts = append(d.Contexts, *c)
	}
	return d, nil
}

func formatSelector(sel apinotes.Selector) string {
	if sel.NumPieces == 0 {
		if len(sel.Identifiers) > 0 {
			return sel.Identifiers[0]
		}
		return ""
	}
	return strings.Join(sel.Identifiers, ":") + ":"
}

func dumpJSON(w io.Writer, d *fileDump) error {
	sortDump(d)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

func dumpText(w io.Writer, d *fileDump) error {
	sortDump(d)
	fmt.Fprintf(w, "Module: %s\n", d.Module)
	if d.Options != nil {
		fmt.Fprintf(w, "Swift infer import-as-member: %v\n", d.Options.SwiftInferImportAsMember)
	}
	for _, c := range d.Contexts {
		kind := "class"
		if c.IsProtocol {
			kind = "protocol"
		}
		fmt.Fprintf(w, "%s %s (context %d)\n", kind, c.Name, c.ID)
		for _, p := range c.Properties {
			fmt.Fprintf(w, "  property %s instance=%v\n", p.Name, p.IsInstance)
		}
		for _, m := range c.Methods {
			fmt.Fprintf(w, "  method %s instance=%v\n", m.Selector, m.IsInstance)
		}
	}
	for _, v := range d.GlobalVariables {
		fmt.Fprintf(w, "var %s\n", v.Name)
	}
	for _, f := range d.GlobalFunctions {
		fmt.Fprintf(w, "func %s\n", f.Name)
	}
	for _, e := range d.EnumConstants {
		fmt.Fprintf(w, "enum constant %s\n", e.Name)
	}
	for _, t := range d.Tags {
		fmt.Fprintf(w, "tag %s\n", t.Name)
	}
	for _, t := range d.Typedefs {
		fmt.Fprintf(w, "typedef %s\n", t.Name)
	}
	return nil
}

// sortDump orders everything by name so output is stable across runs; the
// visitor enumerates in table order.
func sortDump(d *fileDump) {
	sort.Slice(d.Contexts, func(i, j int) bool {
		if d.Contexts[i].Name != d.Contexts[j].Name {
			return d.Contexts[i].Name < d.Contexts[j].Name
		}
		return !d.Contexts[i].IsProtocol && d.Contexts[j].IsProtocol
	})
	for i := range d.Contexts {
		c := &d.Contexts[i]
		sort.Slice(c.Properties, func(a, b int) bool { return c.Properties[a].Name < c.Properties[b].Name })
		sort.Slice(c.Methods, func(a, b int) bool { return c.Methods[a].Selector < c.Methods[b].Selector })
	}
	sort.Slice(d.GlobalVariables, func(i, j int) bool { return d.GlobalVariables[i].Name < d.GlobalVariables[j].Name })
	sort.Slice(d.GlobalFunctions, func(i, j int) bool { return d.GlobalFunctions[i].Name < d.GlobalFunctions[j].Name })
	sort.Slice(d.EnumConstants, func(i, j int) bool { return d.EnumConstants[i].Name < d.EnumConstants[j].Name })
	sort.Slice(d.Tags, func(i, j int) bool { return d.Tags[i].Name < d.Tags[j].Name })
	sort.Slice(d.Typedefs, func(i, j int) bool { return d.Typedefs[i].Name < d.Typedefs[j].Name })
}
