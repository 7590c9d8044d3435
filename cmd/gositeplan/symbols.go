/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"gositeplan/internal/domain"
	"gositeplan/internal/symbol"
	"gositeplan/internal/symbolpack"
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "Inspect and exchange symbol catalogs",
}

var symbolsListCmd = &cobra.Command{
	Use:   "list [dir]",
	Short: "List available symbols",
	Long:  "List the built-in catalog. With a project directory, symbols under <dir>/symbols are merged in (project definitions shadow built-ins).",
	Args:  cobra.MaximumNArgs(1),
	Run:   runSymbolsList,
}

var symbolsExportCmd = &cobra.Command{
	Use:   "export [dir] [out.zip]",
	Short: "Bundle a project's symbols directory into a pack",
	Args:  cobra.ExactArgs(2),
	Run:   runSymbolsExport,
}

var symbolsImportCmd = &cobra.Command{
	Use:   "import [dir] [pack.zip]",
	Short: "Install a symbol pack into a project",
	Args:  cobra.ExactArgs(2),
	Run:   runSymbolsImport,
}

func init() {
	symbolsCmd.AddCommand(symbolsListCmd, symbolsExportCmd, symbolsImportCmd)
	rootCmd.AddCommand(symbolsCmd)
}

func runSymbolsList(cmd *cobra.Command, args []string) {
	cat, err := symbol.Builtin()
	if err != nil {
		fail("load catalog: %v", err)
	}
	if len(args) == 1 {
		abs, aerr := filepath.Abs(args[0])
		if aerr != nil {
			fail("%v", aerr)
		}
		if lerr := cat.LoadDir(filepath.Join(abs, "symbols")); lerr != nil {
			fail("load project symbols: %v", lerr)
		}
	}
	defs := cat.List()
	for _, d := range defs {
		spin := "fixed"
		if d.Spins360 {
			spin = "360"
		}
		fmt.Printf("%-20s %-28s %4gx%-4g spin=%-5s anchor=%s\n",
			d.ID, d.Name, d.Width, d.Height, spin, domain.LabelAnchor(d.LabelAnchor).Normalize())
	}
	fmt.Printf("%d symbol(s)\n", len(defs))
}

func runSymbolsExport(cmd *cobra.Command, args []string) {
	abs, err := filepath.Abs(args[0])
	if err != nil {
		fail("%v", err)
	}
	out, err := filepath.Abs(args[1])
	if err != nil {
		fail("%v", err)
	}
	if err := symbolpack.ExportProjectSymbols(abs, out); err != nil {
		fail("export symbols: %v", err)
	}
	fmt.Printf("Exported project symbols to %s\n", out)
}

func runSymbolsImport(cmd *cobra.Command, args []string) {
	abs, err := filepath.Abs(args[0])
	if err != nil {
		fail("%v", err)
	}
	pack, err := filepath.Abs(args[1])
	if err != nil {
		fail("%v", err)
	}
	n, err := symbolpack.InstallPack(abs, pack)
	if err != nil {
		fail("install pack: %v", err)
	}
	fmt.Printf("Installed %d symbol(s) into %s\n", n, filepath.Join(abs, "symbols"))
}
