// Copyright 2026 The apinotes Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mlowell/apinotes"
)

var lookupClass bool

var lookupCmd = &cobra.Command{
	Use:   "lookup <apinotes-file> <query>",
	Short: "Look up one entity by name",
	Long: `Look up a single entity in a compiled API notes file.

Query forms:
  - class:Foo, protocol:Foo
  - property:Foo.bar, method:Foo.doWithBar:
  - var:name, func:name, enum:name, tag:name, typedef:name

Member lookups resolve the owning context as a class; pass --protocol to
resolve it as a protocol, and --class-member to look up a class-level
(non-instance) member.`,
	Args: cobra.ExactArgs(2),
	RunE: runLookup,
}

var lookupProtocolOwner bool

func init() {
	lookupCmd.Flags().BoolVar(&lookupProtocolOwner, "protocol", false, "resolve the owning context as a protocol")
	lookupCmd.Flags().BoolVar(&lookupClass, "class-member", false, "look up a class-level member instead of an instance member")
}

func runLookup(cmd *cobra.Command, args []string) error {
	r, err := apinotes.OpenFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to open API notes: %w", err)
	}
	defer r.Close()

	kind, rest, ok := strings.Cut(args[1], ":")
	if !ok {
		return fmt.Errorf("malformed query %q", args[1])
	}

	switch kind {
	case "class", "protocol":
		id, info, found := r.LookupObjCContext(rest, kind == "protocol")
		if !found {
			return fmt.Errorf("%s %q not found", kind, rest)
		}
		fmt.Printf("%s %s: context %d designatedInits=%v\n", kind, rest, id, info.HasDesignatedInits)
	case "property":
		ctx, name, err := splitMember(r, rest)
		if err != nil {
			return err
		}
		info, found := r.LookupObjCProperty(ctx, name, !lookupClass)
		if !found {
			return fmt.Errorf("property %q not found", rest)
		}
		fmt.Printf("property %s: nullability=%v\n", rest, info.HasNullability)
	case "method":
		ctx, selText, err := splitMember(r, rest)
		if err != nil {
			return err
		}
		info, found := r.LookupObjCMethod(ctx, parseSelector(selText), !lookupClass)
		if !found {
			return fmt.Errorf("method %q not found", rest)
		}
		fmt.Printf("method %s: designatedInit=%v factoryAsInit=%v requiredInit=%v\n",
			rest, info.DesignatedInit, info.FactoryAsInit, info.RequiredInit)
	case "var":
		info, found := r.LookupGlobalVariable(rest)
		if !found {
			return fmt.Errorf("global variable %q not found", rest)
		}
		fmt.Printf("var %s: nullability=%v\n", rest, info.HasNullability)
	case "func":
		info, found := r.LookupGlobalFunction(rest)
		if !found {
			return fmt.Errorf("global function %q not found", rest)
		}
		fmt.Printf("func %s: audited=%v params=%d\n", rest, info.NullabilityAudited, len(info.Params))
	case "enum":
		info, found := r.LookupEnumConstant(rest)
		if !found {
			return fmt.Errorf("enum constant %q not found", rest)
		}
		fmt.Printf("enum constant %s: unavailable=%v\n", rest, info.Unavailable)
	case "tag":
		info, found := r.LookupTag(rest)
		if !found {
			return fmt.Errorf("tag %q not found", rest)
		}
		fmt.Printf("tag %s: swiftName=%q\n", rest, info.SwiftName)
	case "typedef":
		info, found := r.LookupTypedef(rest)
		if !found {
			return fmt.Errorf("typedef %q not found", rest)
		}
		fmt.Printf("typedef %s: swiftName=%q\n", rest, info.SwiftName)
	default:
		return fmt.Errorf("unknown entity kind %q", kind)
	}
	return nil
}

func splitMember(r *apinotes.Reader, query string) (apinotes.ContextID, string, error) {
	owner, member, ok := strings.Cut(query, ".")
	if !ok {
		return 0, "", fmt.Errorf("malformed member query %q, want Context.member", query)
	}
	ctx, _, found := r.LookupObjCContext(owner, lookupProtocolOwner)
	if !found {
		return 0, "", fmt.Errorf("context %q not found", owner)
	}
	return ctx, member, nil
}

// parseSelector turns "doWithBar:baz:" into its keyword pieces and a bare
// name like "count" into a zero-piece selector.
func parseSelector(text string) apinotes.Selector {
	if !strings.Contains(text, ":") {
		return apinotes.Selector{NumPieces: 0, Identifiers: []string{text}}
	}
	pieces := strings.Split(strings.TrimSuffix(text, ":"), ":")
	return apinotes.Selector{NumPieces: len(pieces), Identifiers: pieces}
}
