/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"gositeplan/internal/domain"
)

func TestSearchFiltersAndSnippets(t *testing.T) {
	root := t.TempDir()
	// Initialize project to bootstrap index
	proj := domain.Project{Name: "Search Test"}
	ph, err := InitProject(root, proj)
	if err != nil || ph == nil {
		t.Fatalf("InitProject error: %v", err)
	}
	// Give background initial index build a moment to complete to avoid clobbering our seeds
	time.Sleep(200 * time.Millisecond)
	// Open DB directly
	idx := IndexPath(root)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(2000)", filepath.ToSlash(idx))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	// Seed a few label rows with distinct patterns.
	// Use high label_ids to avoid collisions.
	seed := []struct {
		id     int
		elID   string
		plan   string
		page   int
		kind   string
		symbol any
		label  string
	}{
		{1001, "el-a", "north", 2, "symbol", "outlet", "Hello there"},
		{1002, "el-b", "north", 5, "symbol", "light", "Hello again"},
		{1003, "el-c", "south", 1, "image", nil, "Beach house 7"},
	}
	for _, s := range seed {
		_, err := db.ExecContext(ctx, `INSERT INTO labels(label_id, element_id, plan, page, kind, symbol_id, label) VALUES(?,?,?,?,?,?,?)`, s.id, s.elID, s.plan, s.page, s.kind, s.symbol, s.label)
		if err != nil {
			t.Fatalf("seed insert: %v", err)
		}
	}

	// Allow triggers to process
	time.Sleep(50 * time.Millisecond)

	// 1) FTS search for term 'Hello'
	res, err := Search(ctx, root, SearchQuery{Text: "Hello"})
	if err != nil {
		t.Fatalf("search 1: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("expected 2 results for 'Hello', got %d", len(res))
	}
	found := false
	for _, r := range res {
		if r.ElementID == "el-a" {
			found = true
			if r.Snippet == "" {
				t.Fatalf("expected snippet for FTS hit")
			}
		}
	}
	if !found {
		t.Fatalf("expected el-a in results")
	}

	// 2) Page range 2..5 within plan north
	res, err = Search(ctx, root, SearchQuery{Plan: "north", PageFrom: 2, PageTo: 5})
	if err != nil {
		t.Fatalf("search 2: %v", err)
	}
	want := map[string]bool{"el-a": true, "el-b": true}
	for _, r := range res {
		delete(want, r.ElementID)
	}
	if len(want) != 0 {
		t.Fatalf("missing expected elements after plan+range filter: %v", want)
	}

	// 3) Kind filter image
	res, err = Search(ctx, root, SearchQuery{Kinds: []string{"image"}})
	if err != nil {
		t.Fatalf("search 3: %v", err)
	}
	if len(res) != 1 || res[0].ElementID != "el-c" {
		t.Fatalf("expected only el-c for kind=image, got %+v", res)
	}

	// 4) Symbol filter
	res, err = Search(ctx, root, SearchQuery{SymbolID: "light"})
	if err != nil {
		t.Fatalf("search 4: %v", err)
	}
	if len(res) != 1 || res[0].ElementID != "el-b" {
		t.Fatalf("expected only el-b for symbol=light, got %+v", res)
	}

	// 5) Limit and offset paginate deterministically
	res, err = Search(ctx, root, SearchQuery{Plan: "north", Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("search 5: %v", err)
	}
	if len(res) != 1 || res[0].ElementID != "el-b" {
		t.Fatalf("expected el-b on second page, got %+v", res)
	}
}
