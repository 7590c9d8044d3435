/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gositeplan/internal/domain"
	applog "gositeplan/internal/log"
	"gositeplan/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName stores all per-project ephemeral/index data under the project root.
	IndexDirName  = ".gsp"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema for the embedded index.
	// Bump this when you perform breaking schema changes and add a step to
	// indexMigrations.
	schemaVersion = 2
)

// indexDDL is the current core schema: one labels row per placed element, a
// contentless FTS5 table kept in step by triggers, plan-page checkpoints, and
// the preview cache. Everything here is derived from siteplan.json and can be
// rebuilt from it at any time.
var indexDDL = []string{
	`CREATE TABLE IF NOT EXISTS labels (
		label_id   INTEGER PRIMARY KEY,
		element_id TEXT    NOT NULL,
		plan       TEXT    NOT NULL,
		page       INTEGER NOT NULL,
		kind       TEXT    NOT NULL,
		symbol_id  TEXT,
		label      TEXT
	);`,
	`CREATE INDEX IF NOT EXISTS idx_labels_plan_page ON labels(plan, page);`,
	`CREATE INDEX IF NOT EXISTS idx_labels_element ON labels(element_id);`,

	`CREATE VIRTUAL TABLE IF NOT EXISTS labels_fts USING fts5(
		label,
		content='',
		tokenize = 'unicode61'
	);`,
	`CREATE TRIGGER IF NOT EXISTS labels_ai AFTER INSERT ON labels BEGIN
		INSERT INTO labels_fts(rowid, label) VALUES (new.label_id, new.label);
	END;`,
	`CREATE TRIGGER IF NOT EXISTS labels_ad AFTER DELETE ON labels BEGIN
		INSERT INTO labels_fts(labels_fts, rowid, label) VALUES ('delete', old.label_id, old.label);
	END;`,
	`CREATE TRIGGER IF NOT EXISTS labels_au AFTER UPDATE OF label ON labels BEGIN
		INSERT INTO labels_fts(labels_fts, rowid, label) VALUES ('delete', old.label_id, old.label);
		INSERT INTO labels_fts(rowid, label) VALUES (new.label_id, new.label);
	END;`,

	`CREATE TABLE IF NOT EXISTS snapshots (
		id        INTEGER PRIMARY KEY,
		plan      TEXT    NOT NULL,
		page      INTEGER NOT NULL,
		reason    TEXT,
		ts        TEXT    NOT NULL,
		plan_blob BLOB    NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_snapshots_plan_page_ts ON snapshots(plan, page, ts);`,

	`CREATE TABLE IF NOT EXISTS previews (
		id          INTEGER PRIMARY KEY,
		plan        TEXT    NOT NULL,
		page        INTEGER NOT NULL,
		w           INTEGER NOT NULL DEFAULT 0,
		h           INTEGER NOT NULL DEFAULT 0,
		png_blob    BLOB,
		size        INTEGER NOT NULL DEFAULT 0,
		updated_at  TEXT    NOT NULL,
		last_access TEXT
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_previews_variant ON previews(plan, page, w, h);`,
	`CREATE INDEX IF NOT EXISTS idx_previews_access ON previews(last_access);`,
}

// indexMigrations holds per-version upgrade statements for databases written
// by older builds. v2 added the previews cache and the covering label indexes.
var indexMigrations = map[int][]string{
	2: {
		`CREATE TABLE IF NOT EXISTS previews (
			id          INTEGER PRIMARY KEY,
			plan        TEXT    NOT NULL,
			page        INTEGER NOT NULL,
			w           INTEGER NOT NULL DEFAULT 0,
			h           INTEGER NOT NULL DEFAULT 0,
			png_blob    BLOB,
			size        INTEGER NOT NULL DEFAULT 0,
			updated_at  TEXT    NOT NULL,
			last_access TEXT
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_previews_variant ON previews(plan, page, w, h);`,
		`CREATE INDEX IF NOT EXISTS idx_labels_plan_page ON labels(plan, page);`,
		`CREATE INDEX IF NOT EXISTS idx_labels_element ON labels(element_id);`,
	},
}

// IndexPath returns the full path to the project's embedded index database file.
func IndexPath(projectRoot string) string {
	return filepath.Join(projectRoot, IndexDirName, IndexFileName)
}

// InitOrOpenIndex ensures that the per-project SQLite index exists at
// .gsp/index.sqlite, opens the database, and brings it to the current schema.
// The returned *sql.DB is ready for use. Callers may close it when no longer
// needed.
func InitOrOpenIndex(projectRoot string) (*sql.DB, error) {
	if strings.TrimSpace(projectRoot) == "" {
		return nil, errors.New("project root is required")
	}
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("root", projectRoot),
	)
	if err := os.MkdirAll(filepath.Join(projectRoot, IndexDirName), 0o755); err != nil {
		l.Error("create .gsp dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .gsp dir: %w", err)
	}

	path := IndexPath(projectRoot)
	db, err := openIndexDB(path)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := prepareIndex(ctx, db); err != nil {
		_ = db.Close()
		l.Error("index init failed", slog.Any("err", err))
		return nil, err
	}

	l.Debug("index ready", slog.String("path", path))
	return db, nil
}

// openIndexDB opens the SQLite file with the connection settings the index
// relies on. The URI form keeps the busy timeout with the DSN, and a single
// connection avoids write contention in this single-user database.
func openIndexDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

// prepareIndex brings a fresh or existing database to the current schema:
// WAL mode, the meta/version bookkeeping, the core tables, then migrations.
func prepareIndex(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}
	// Best effort; the index schema carries no foreign keys today.
	_, _ = db.ExecContext(ctx, "PRAGMA foreign_keys=ON;")

	if err := ensureVersionRow(ctx, db); err != nil {
		return err
	}
	if err := createIndexSchema(ctx, db); err != nil {
		return err
	}
	return migrateIndex(ctx, db)
}

// ensureVersionRow creates the bookkeeping tables and the single version row.
// A fresh database starts at the current schemaVersion; an existing one keeps
// its schema number for migrateIndex and only refreshes app/updated_at.
func ensureVersionRow(ctx context.Context, db *sql.DB) error {
	for _, q := range []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	} {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET app=excluded.app, updated_at=excluded.updated_at`,
		schemaVersion, version.String(), now, now); err != nil {
		return fmt.Errorf("seed version row: %w", err)
	}
	return nil
}

func createIndexSchema(ctx context.Context, db *sql.DB) error {
	for _, q := range indexDDL {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	return nil
}

// migrateIndex walks the version row up to schemaVersion one step at a time.
// Databases written by a newer app are left alone; there is no downgrade.
func migrateIndex(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	migrated := false
	for ; cur < schemaVersion; cur++ {
		stmts, ok := indexMigrations[cur+1]
		if !ok {
			continue
		}
		if err := runIndexMigration(ctx, db, cur+1, stmts); err != nil {
			return err
		}
		migrated = true
	}
	if migrated {
		// Compact the FTS tree after structural upgrades; failure is harmless.
		_, _ = db.ExecContext(ctx, `INSERT INTO labels_fts(labels_fts) VALUES('optimize')`)
	}
	return nil
}

// runIndexMigration applies one upgrade step in its own transaction so a
// failed upgrade leaves a consistent, older database behind.
func runIndexMigration(ctx context.Context, db *sql.DB, to int, stmts []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", to, err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migration %d stmt failed: %w", to, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, to, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("migration %d update version: %w", to, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %d commit: %w", to, err)
	}
	return nil
}

// DetectAndRebuildIndex checks for corruption or missing schema and rebuilds
// the index from the manifest when needed. It returns true when a rebuild was
// performed.
func DetectAndRebuildIndex(ctx context.Context, projectRoot string, proj domain.Project) (bool, error) {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		if rbErr := recreateIndex(ctx, projectRoot, proj); rbErr != nil {
			return false, fmt.Errorf("rebuild after open failure: %w (open err: %v)", rbErr, err)
		}
		return true, nil
	}
	healthy := indexHealthy(ctx, db)
	_ = db.Close()
	if healthy {
		return false, nil
	}
	if err := recreateIndex(ctx, projectRoot, proj); err != nil {
		return false, err
	}
	return true, nil
}

// indexHealthy runs PRAGMA quick_check and probes the labels table.
func indexHealthy(ctx context.Context, db *sql.DB) bool {
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil {
		return false
	}
	if !strings.Contains(strings.ToLower(chk), "ok") {
		return false
	}
	_, err := db.ExecContext(ctx, `SELECT 1 FROM labels LIMIT 1;`)
	return err == nil
}

// recreateIndex moves the broken database file aside and rebuilds from the
// manifest.
func recreateIndex(ctx context.Context, projectRoot string, proj domain.Project) error {
	path := IndexPath(projectRoot)
	backupIndexFile(path)
	_ = os.Remove(path)
	return RebuildIndex(ctx, projectRoot, proj)
}

// backupIndexFile copies the current index file into a timestamped backup
// under .gsp/backups. Best effort: a missing or unreadable index is skipped.
func backupIndexFile(indexPath string) {
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return
	}
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return
	}
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	_ = os.WriteFile(bak, data, 0o644)
}

// withIndex opens the project index, runs fn, and closes the database. Most
// index accessors are one-shot calls; this keeps their open/close bookkeeping
// in one place.
func withIndex(projectRoot string, fn func(*sql.DB) error) error {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

// UpdateIndex replaces the label rows in the embedded index with the current
// manifest content. The index is derived data; full replacement is the
// simplest way to keep it exact.
func UpdateIndex(ctx context.Context, projectRoot string, proj domain.Project) error {
	return withIndex(projectRoot, func(db *sql.DB) error {
		return replaceLabels(ctx, db, proj)
	})
}

// UpdateIndexAsync refreshes the index in a background goroutine, logging
// failures instead of surfacing them. Saves should not block on indexing.
func UpdateIndexAsync(projectRoot string, proj domain.Project) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := UpdateIndex(ctx, projectRoot, proj); err != nil {
			applog.WithComponent("storage").Warn("background index update failed",
				slog.String("root", projectRoot), slog.Any("err", err))
		}
	}()
}

// RebuildIndex drops and recreates the derived tables and repopulates them
// from the manifest. It preserves meta/version. This is a safe operation; the
// index is derived from siteplan.json.
func RebuildIndex(ctx context.Context, projectRoot string, proj domain.Project) error {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := dropIndexSchema(ctx, db); err != nil {
		return err
	}
	if err := createIndexSchema(ctx, db); err != nil {
		return err
	}
	return replaceLabels(ctx, db, proj)
}

// dropIndexSchema removes the derived tables and triggers, keeping the
// meta/version bookkeeping.
func dropIndexSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, q := range []string{
		"DROP TABLE IF EXISTS previews;",
		"DROP TABLE IF EXISTS snapshots;",
		"DROP TRIGGER IF EXISTS labels_ai;",
		"DROP TRIGGER IF EXISTS labels_ad;",
		"DROP TRIGGER IF EXISTS labels_au;",
		"DROP TABLE IF EXISTS labels;",
		"DROP TABLE IF EXISTS labels_fts;",
	} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("drop schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("drop commit: %w", err)
	}
	return nil
}

// replaceLabels swaps the labels table content for the manifest's elements in
// one transaction. The FTS triggers keep labels_fts in step.
func replaceLabels(ctx context.Context, db *sql.DB, proj domain.Project) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, "DELETE FROM labels;"); err != nil {
		return fmt.Errorf("clear labels: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, "INSERT INTO labels(element_id, plan, page, kind, symbol_id, label) VALUES(?,?,?,?,?,?);")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()
	for pi := range proj.Plans {
		pl := &proj.Plans[pi]
		for _, el := range pl.Elements {
			sym := sql.NullString{String: el.SymbolID, Valid: el.SymbolID != ""}
			if _, err := ins.ExecContext(ctx, el.ID, pl.Name, el.Page, string(el.Kind), sym, el.Label); err != nil {
				return fmt.Errorf("insert label row: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
