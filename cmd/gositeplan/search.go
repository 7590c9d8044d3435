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
	"time"

	"github.com/spf13/cobra"

	"gositeplan/internal/storage"
)

var (
	searchPlan     string
	searchKinds    []string
	searchLimit    int
	searchPageFrom int
	searchPageTo   int
	searchReindex  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [dir] [text]",
	Short: "Full-text search over element labels",
	Long:  "Query the project's label index. Matches print one line per element with plan, page, kind and a snippet.",
	Args:  cobra.ExactArgs(2),
	Run:   runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchPlan, "plan", "", "restrict to one plan")
	searchCmd.Flags().StringSliceVar(&searchKinds, "kind", nil, "restrict to element kinds (symbol, image)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 50, "maximum number of results")
	searchCmd.Flags().IntVar(&searchPageFrom, "page-from", 0, "lowest page to include")
	searchCmd.Flags().IntVar(&searchPageTo, "page-to", 0, "highest page to include")
	searchCmd.Flags().BoolVar(&searchReindex, "reindex", false, "rebuild the index from the manifest before searching")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	h, err := openHandle(args[0])
	if err != nil {
		fail("open project: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if searchReindex {
		if err := storage.RebuildIndex(ctx, h.Root, h.Project); err != nil {
			fail("rebuild index: %v", err)
		}
	}
	res, err := storage.Search(ctx, h.Root, storage.SearchQuery{
		Text:     args[1],
		Plan:     searchPlan,
		Kinds:    searchKinds,
		PageFrom: searchPageFrom,
		PageTo:   searchPageTo,
		Limit:    searchLimit,
	})
	if err != nil {
		fail("search: %v", err)
	}
	for _, r := range res {
		snippet := r.Snippet
		if snippet == "" {
			snippet = r.SymbolID
		}
		fmt.Printf("%-36s  %s p.%d [%s] %s\n", r.ElementID, r.Plan, r.Page, r.Kind, snippet)
	}
	fmt.Printf("%d result(s)\n", len(res))
}
