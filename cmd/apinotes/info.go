// Copyright 2026 The apinotes Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlowell/apinotes"
)

var infoCmd = &cobra.Command{
	Use:   "info <apinotes-file>",
	Short: "Display API notes file information",
	Long:  `Display general information about a compiled API notes file: module name, options, and per-kind entity counts.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	r, err := apinotes.OpenFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to open API notes: %w", err)
	}
	defer r.Close()

	fmt.Printf("File: %s\n", args[0])
	fmt.Printf("Module: %s\n", r.ModuleName())
	if opts, ok := r.ModuleOptions(); ok {
		fmt.Printf("Swift infer import-as-member: %v\n", opts.SwiftInferImportAsMember)
	}

	var contexts, properties, methods, variables, functions, enums, tags, typedefs int
	err = r.Visit(apinotes.Visitor{
		ObjCContext: func(string, bool, apinotes.ContextID, apinotes.ObjCContextInfo) {
			contexts++
		},
		ObjCProperty: func(apinotes.ContextID, string, bool, apinotes.ObjCPropertyInfo) {
			properties++
		},
		ObjCMethod: func(apinotes.ContextID, apinotes.Selector, bool, apinotes.ObjCMethodInfo) {
			methods++
		},
		GlobalVariable: func(string, apinotes.GlobalVariableInfo) { variables++ },
		GlobalFunction: func(string, apinotes.GlobalFunctionInfo) { functions++ },
		EnumConstant:   func(string, apinotes.EnumConstantInfo) { enums++ },
		Tag:            func(string, apinotes.TagInfo) { tags++ },
		Typedef:        func(string, apinotes.TypedefInfo) { typedefs++ },
	})
	if err != nil {
		return fmt.Errorf("failed to walk API notes: %w", err)
	}

	fmt.Printf("Contexts: %d\n", contexts)
	fmt.Printf("Properties: %d\n", properties)
	fmt.Printf("Methods: %d\n", methods)
	fmt.Printf("Global Variables: %d\n", variables)
	fmt.Printf("Global Functions: %d\n", functions)
	fmt.Printf("Enum Constants: %d\n", enums)
	fmt.Printf("Tags: %d\n", tags)
	fmt.Printf("Typedefs: %d\n", typedefs)
	return nil
}
