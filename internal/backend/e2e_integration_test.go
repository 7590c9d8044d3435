/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"gositeplan/internal/storage"
)

func TestE2E_BackendSchemaAndSearch(t *testing.T) {
	db := testPostgres(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Insert a project and a published plan snapshot
	var pid int64
	if err := db.QueryRowContext(ctx, `INSERT INTO projects(name, description) VALUES($1,$2) RETURNING id`, "E2E Project", "demo").Scan(&pid); err != nil {
		t.Fatalf("insert project: %v", err)
	}
	// Snapshot payload: small manifest-shaped JSON
	snap := map[string]any{"name": "E2E Project", "plans": []any{}}
	b, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO plan_snapshots(project_id, version, snapshot) VALUES($1,$2,$3)`, pid, 1, string(b)); err != nil {
		t.Fatalf("insert snapshot: %v", err)
	}
	// Fetch latest snapshot similar to server route
	var ver int64
	var raw string
	if err := db.QueryRowContext(ctx, `SELECT version, snapshot FROM plan_snapshots WHERE project_id=$1 ORDER BY version DESC, id DESC LIMIT 1`, pid).Scan(&ver, &raw); err != nil {
		t.Fatalf("select snapshot: %v", err)
	}
	if ver != 1 || raw == "" {
		t.Fatalf("unexpected snapshot ver=%d raw_empty=%v", ver, raw == "")
	}

	// Seed a label row and search it end-to-end through SearchPG
	if _, err := db.ExecContext(ctx,
		`INSERT INTO labels(project_id, element_id, plan, page_num, kind, symbol_id, label) VALUES($1,$2,$3,$4,$5,$6,$7)`,
		pid, "e-900", "Halle", 1, "symbol", "board", "Verteilerkasten Halle Ost"); err != nil {
		t.Fatalf("seed label: %v", err)
	}
	res, err := SearchPG(ctx, db, pid, storage.SearchQuery{Text: "Verteilerkasten"})
	if err != nil {
		t.Fatalf("searchpg: %v", err)
	}
	if len(res) == 0 || res[0].ElementID != "e-900" {
		t.Fatalf("expected result element e-900, got %+v", res)
	}
	if res[0].Snippet == "" {
		t.Fatalf("expected highlighted snippet, got empty")
	}
}
