// Copyright 2026 The apinotes Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "apinotes",
	Short: "Compiled API notes viewer",
	Long: `apinotes is a command-line tool for inspecting compiled API notes
files: module metadata, entity counts, point lookups, and full dumps.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(lookupCmd)
}
