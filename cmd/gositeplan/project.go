/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"gositeplan/internal/domain"
	"gositeplan/internal/storage"
)

var initPlanName string

var initCmd = &cobra.Command{
	Use:   "init [dir] [name]",
	Short: "Create a new site plan project",
	Long:  "Scaffold a project directory with a manifest, assets/, symbols/, exports/ and backups/ folders, plus one empty plan.",
	Args:  cobra.ExactArgs(2),
	Run:   runInit,
}

var infoCmd = &cobra.Command{
	Use:   "info [dir]",
	Short: "Print a summary of a project",
	Args:  cobra.ExactArgs(1),
	Run:   runInfo,
}

var saveCmd = &cobra.Command{
	Use:   "save [dir]",
	Short: "Normalize, validate and rewrite the project manifest",
	Long:  "Open the project, normalize plan/page fields, validate the manifest against the schema, and save. The previous manifest is kept as a timestamped backup.",
	Args:  cobra.ExactArgs(1),
	Run:   runSave,
}

func init() {
	initCmd.Flags().StringVar(&initPlanName, "plan", "Main", "name of the first plan")
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(saveCmd)
}

func runInit(cmd *cobra.Command, args []string) {
	abs, err := filepath.Abs(args[0])
	if err != nil {
		fail("%v", err)
	}
	proj := domain.Project{Name: args[1], Plans: []domain.Plan{domain.NewPlan(initPlanName)}}
	h, err := storage.InitProject(abs, proj)
	if err != nil {
		fail("init project: %v", err)
	}
	activeHandle = h
	fmt.Printf("Created project %q at %s\n", h.Project.Name, abs)
	fmt.Printf("First plan: %q (1 page)\n", initPlanName)
}

func runInfo(cmd *cobra.Command, args []string) {
	h, err := openHandle(args[0])
	if err != nil {
		fail("open project: %v", err)
	}
	fmt.Printf("Project: %s\n", h.Project.Name)
	fmt.Printf("Root: %s\n", h.Root)
	md := h.Project.Metadata
	if md.Site != "" {
		fmt.Printf("Site: %s\n", md.Site)
	}
	if md.Client != "" {
		fmt.Printf("Client: %s\n", md.Client)
	}
	if md.Author != "" {
		fmt.Printf("Author: %s\n", md.Author)
	}
	fmt.Printf("Plans: %d\n", len(h.Project.Plans))
	for i := range h.Project.Plans {
		pl := &h.Project.Plans[i]
		fmt.Printf("  %-24s %d page(s), %d element(s)\n", pl.Name, pl.NumPages, len(pl.Elements))
	}
	if len(h.Project.Assets) > 0 {
		fmt.Printf("Assets: %d\n", len(h.Project.Assets))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// The index may lag a hand-edited manifest; counts are informational only.
	if counts, err := storage.CountByKind(ctx, h.Root); err == nil && len(counts) > 0 {
		kinds := make([]string, 0, len(counts))
		for k := range counts {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		fmt.Printf("Indexed:")
		for _, k := range kinds {
			fmt.Printf(" %s=%d", k, counts[k])
		}
		fmt.Println()
	}
}

func runSave(cmd *cobra.Command, args []string) {
	h, err := openHandle(args[0])
	if err != nil {
		fail("open project: %v", err)
	}
	h.Project.Normalize()
	if err := h.Project.Validate(); err != nil {
		fail("manifest invalid: %v", err)
	}
	if err := storage.Save(h); err != nil {
		fail("save: %v", err)
	}
	fmt.Println("Saved project; previous manifest backed up.")
}
