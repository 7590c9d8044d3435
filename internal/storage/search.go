/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// defaultSearchLimit caps result pages when the caller leaves Limit at zero.
const defaultSearchLimit = 100

// SearchQuery describes the in-app label search request.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// Filters are optional. Kinds restricts to element kinds: symbol, image.
// Plan restricts to a single plan by name; empty means all plans.
// PageFrom/To are inclusive; 0 means unset.
// Limit/Offset implement pagination; reasonable defaults applied if zero.
type SearchQuery struct {
	Text     string
	Kinds    []string
	Plan     string
	SymbolID string
	PageFrom int
	PageTo   int
	Limit    int
	Offset   int
}

// SearchResult represents a single match row.
// Snippet is an optional highlighted excerpt using [ ] markers when FTS text is used.
type SearchResult struct {
	ElementID string
	Plan      string
	Page      int
	Kind      string
	SymbolID  string
	Snippet   string
}

// Search performs full-text label search with optional filters over the embedded index.
// When q.Text is empty, it falls back to a non-FTS scan over labels with filters applied.
func Search(ctx context.Context, projectRoot string, q SearchQuery) ([]SearchResult, error) {
	if strings.TrimSpace(projectRoot) == "" {
		return nil, errors.New("project root is required")
	}
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, q)
}

func searchDB(ctx context.Context, db *sql.DB, q SearchQuery) ([]SearchResult, error) {
	var (
		conds []string
		args  []any
	)
	// The FTS form joins through the index rowid and surfaces a snippet; the
	// plain form reads the label column straight from the table.
	sel := `SELECT l.element_id, l.plan, l.page, l.kind, COALESCE(l.symbol_id,''), COALESCE(l.label,'') FROM labels l`
	if text := strings.TrimSpace(q.Text); text != "" {
		sel = `SELECT l.element_id, l.plan, l.page, l.kind, COALESCE(l.symbol_id,''), snippet(labels_fts, 0, '[', ']', '…', 10)
			FROM labels_fts JOIN labels l ON labels_fts.rowid = l.label_id`
		conds = append(conds, "labels_fts MATCH ?")
		args = append(args, text)
	}
	conds, args = appendSearchFilters(conds, args, q)

	query := sel
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY l.plan, l.page, l.label_id LIMIT ? OFFSET ?"
	limit := q.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var sn sql.NullString
		if err := rows.Scan(&r.ElementID, &r.Plan, &r.Page, &r.Kind, &r.SymbolID, &sn); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.Snippet = sn.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// appendSearchFilters adds the optional kind, plan, symbol and page-range
// conditions. Page semantics: both bounds set and ordered means BETWEEN, a
// lone bound is open-ended, an inverted pair keeps only the lower bound.
func appendSearchFilters(conds []string, args []any, q SearchQuery) ([]string, []any) {
	if len(q.Kinds) > 0 {
		conds = append(conds, "l.kind IN ("+placeholders(len(q.Kinds))+")")
		for _, k := range q.Kinds {
			args = append(args, k)
		}
	}
	if s := strings.TrimSpace(q.Plan); s != "" {
		conds = append(conds, "l.plan = ?")
		args = append(args, s)
	}
	if s := strings.TrimSpace(q.SymbolID); s != "" {
		conds = append(conds, "l.symbol_id = ?")
		args = append(args, s)
	}
	switch {
	case q.PageFrom > 0 && q.PageTo >= q.PageFrom:
		conds = append(conds, "l.page BETWEEN ? AND ?")
		args = append(args, q.PageFrom, q.PageTo)
	case q.PageFrom > 0:
		conds = append(conds, "l.page >= ?")
		args = append(args, q.PageFrom)
	case q.PageTo > 0:
		conds = append(conds, "l.page <= ?")
		args = append(args, q.PageTo)
	}
	return conds, args
}

// CountByKind returns how many indexed elements each kind has, a cheap sanity
// readout for the CLI info command.
func CountByKind(ctx context.Context, projectRoot string) (map[string]int, error) {
	out := map[string]int{}
	err := withIndex(projectRoot, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM labels GROUP BY kind`)
		if err != nil {
			return fmt.Errorf("count query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var kind string
			var n int
			if err := rows.Scan(&kind, &n); err != nil {
				return err
			}
			out[kind] = n
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// placeholders renders n comma-separated SQL parameter marks.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
