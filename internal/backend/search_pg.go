/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package backend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gositeplan/internal/storage"
)

// SearchHit is the wire form of a label search result served by /api/search.
type SearchHit struct {
	ElementID string `json:"element_id"`
	Plan      string `json:"plan"`
	Page      int    `json:"page"`
	Kind      string `json:"kind"`
	SymbolID  string `json:"symbol_id,omitempty"`
	Snippet   string `json:"snippet,omitempty"`
}

// SearchPG executes a label search over the Postgres labels table using tsvector and filters
// and returns results mapped to storage.SearchResult to ease parity checks.
func SearchPG(ctx context.Context, db *sql.DB, projectID int64, q storage.SearchQuery) ([]storage.SearchResult, error) {
	var (
		args []any
		b    strings.Builder
	)
	useFTS := strings.TrimSpace(q.Text) != ""
	if useFTS {
		b.WriteString("SELECT l.element_id, l.plan, COALESCE(l.page_num,0) AS page, l.kind, COALESCE(l.symbol_id,''), ")
		b.WriteString("COALESCE(ts_headline('simple', COALESCE(l.label,''), plainto_tsquery('simple', $1), 'StartSel=[, StopSel=], MaxFragments=1, MaxWords=10'), '') AS snippet ")
		b.WriteString("FROM labels l WHERE l.project_id = $2 AND l.search_vector @@ plainto_tsquery('simple', $1) ")
		args = append(args, q.Text, projectID)
	} else {
		b.WriteString("SELECT l.element_id, l.plan, COALESCE(l.page_num,0) AS page, l.kind, COALESCE(l.symbol_id,''), COALESCE(l.label,'') AS snippet ")
		b.WriteString("FROM labels l WHERE l.project_id = $1 ")
		args = append(args, projectID)
	}

	// Helper to add parameter and return placeholder like $n
	place := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	// Kind filter
	if len(q.Kinds) > 0 {
		b.WriteString(" AND l.kind = ANY (" + place(q.Kinds) + ") ")
	}
	// Plan filter
	if s := strings.TrimSpace(q.Plan); s != "" {
		b.WriteString(" AND l.plan = " + place(s) + " ")
	}
	// Symbol filter
	if s := strings.TrimSpace(q.SymbolID); s != "" {
		b.WriteString(" AND l.symbol_id = " + place(s) + " ")
	}
	// Page range
	if q.PageFrom > 0 && q.PageTo > 0 && q.PageTo >= q.PageFrom {
		b.WriteString(" AND l.page_num BETWEEN " + place(q.PageFrom) + " AND " + place(q.PageTo) + " ")
	} else if q.PageFrom > 0 {
		b.WriteString(" AND l.page_num >= " + place(q.PageFrom) + " ")
	} else if q.PageTo > 0 {
		b.WriteString(" AND l.page_num <= " + place(q.PageTo) + " ")
	}
	// Order and pagination (mirrors the SQLite index ordering: plan, page, row)
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	b.WriteString(" ORDER BY l.plan, l.page_num NULLS LAST, l.id ")
	b.WriteString(" LIMIT " + place(limit) + " OFFSET " + place(offset))

	rows, err := db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search pg query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []storage.SearchResult
	for rows.Next() {
		var r storage.SearchResult
		if err := rows.Scan(&r.ElementID, &r.Plan, &r.Page, &r.Kind, &r.SymbolID, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
