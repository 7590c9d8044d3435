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
	"os"
	"strconv"
	"time"
)

// Page preview cache. Rendered page thumbnails (PNG) are stored per plan,
// page and pixel size so pickers and the recent-files view never re-render.
// The cache is bounded; least recently used rows are evicted past the cap.

// defaultPreviewCapBytes bounds the cache when GSP_PREVIEWS_MAX_BYTES is unset.
const defaultPreviewCapBytes = 256 << 20

// GetPreview returns the PNG bytes for a cached page render and touches its
// last_access stamp. Returns nil bytes when the variant is not cached.
func GetPreview(ctx context.Context, projectRoot string, plan string, page, w, h int) ([]byte, error) {
	var blob []byte
	err := withIndex(projectRoot, func(db *sql.DB) error {
		row := db.QueryRowContext(ctx, `SELECT png_blob FROM previews WHERE plan=? AND page=? AND w=? AND h=?`, plan, page, w, h)
		switch err := row.Scan(&blob); {
		case errors.Is(err, sql.ErrNoRows):
			return nil
		case err != nil:
			return fmt.Errorf("query preview: %w", err)
		}
		now := time.Now().UTC().Format(time.RFC3339)
		_, _ = db.ExecContext(ctx, `UPDATE previews SET last_access=? WHERE plan=? AND page=? AND w=? AND h=?`, now, plan, page, w, h)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blob, nil
}

// PutPreview upserts a page render and enforces the cache size cap via LRU
// eviction.
func PutPreview(ctx context.Context, projectRoot string, plan string, page, w, h int, blob []byte) error {
	return withIndex(projectRoot, func(db *sql.DB) error {
		now := time.Now().UTC().Format(time.RFC3339)
		_, err := db.ExecContext(ctx, `INSERT INTO previews(plan,page,w,h,png_blob,size,updated_at,last_access)
			VALUES(?,?,?,?,?,?,?,?)
			ON CONFLICT(plan,page,w,h) DO UPDATE SET png_blob=excluded.png_blob, size=excluded.size, updated_at=excluded.updated_at, last_access=excluded.last_access`,
			plan, page, w, h, blob, len(blob), now, now)
		if err != nil {
			return fmt.Errorf("upsert preview: %w", err)
		}
		if capBytes := MaxPreviewsBytesFromEnv(); capBytes > 0 {
			return EvictPreviewsToFit(ctx, db, capBytes)
		}
		return nil
	})
}

// GetOrCreatePreview fetches a cached render or generates and stores it using
// the provided generator. A nil generator or nil generated data yields nil.
func GetOrCreatePreview(ctx context.Context, projectRoot string, plan string, page, w, h int, gen func(context.Context) ([]byte, error)) ([]byte, error) {
	b, err := GetPreview(ctx, projectRoot, plan, page, w, h)
	if err != nil || b != nil {
		return b, err
	}
	if gen == nil {
		return nil, nil
	}
	data, err := gen(ctx)
	if err != nil || data == nil {
		return nil, err
	}
	if err := PutPreview(ctx, projectRoot, plan, page, w, h, data); err != nil {
		return nil, err
	}
	return data, nil
}

// InvalidatePreviews drops every cached render for a plan page, typically
// after an edit made the thumbnails stale.
func InvalidatePreviews(ctx context.Context, projectRoot string, plan string, page int) error {
	return withIndex(projectRoot, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `DELETE FROM previews WHERE plan=? AND page=?`, plan, page)
		return err
	})
}

// EvictPreviewsToFit deletes least recently used rows until the tracked total
// is at or under capBytes.
func EvictPreviewsToFit(ctx context.Context, db *sql.DB, capBytes int64) error {
	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM previews`).Scan(&total); err != nil {
		return fmt.Errorf("sum previews size: %w", err)
	}
	victims, err := previewVictims(ctx, db, total-capBytes)
	if err != nil {
		return err
	}
	if len(victims) == 0 {
		return nil
	}
	args := make([]any, len(victims))
	for i, id := range victims {
		args[i] = id
	}
	q := `DELETE FROM previews WHERE id IN (` + placeholders(len(victims)) + `)`
	if _, err := db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("evict delete: %w", err)
	}
	return nil
}

// previewVictims returns ids of the least recently used rows whose combined
// size covers at least need bytes. Rows never read evict first. The read
// cursor is closed before the caller issues its delete.
func previewVictims(ctx context.Context, db *sql.DB, need int64) ([]int64, error) {
	if need <= 0 {
		return nil, nil
	}
	rows, err := db.QueryContext(ctx, `SELECT id, size FROM previews ORDER BY last_access IS NOT NULL, last_access, id`)
	if err != nil {
		return nil, fmt.Errorf("select victims: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for need > 0 && rows.Next() {
		var id, sz int64
		if err := rows.Scan(&id, &sz); err != nil {
			return nil, err
		}
		ids = append(ids, id)
		need -= sz
	}
	return ids, rows.Err()
}

// TotalPreviewBytes reports the bytes tracked by previews.size.
func TotalPreviewBytes(ctx context.Context, projectRoot string) (int64, error) {
	var total int64
	err := withIndex(projectRoot, func(db *sql.DB) error {
		return db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM previews`).Scan(&total)
	})
	return total, err
}

// MaxPreviewsBytesFromEnv reads the cache cap from GSP_PREVIEWS_MAX_BYTES.
// Unset, unparseable or non-positive values fall back to the default.
func MaxPreviewsBytesFromEnv() int64 {
	n, err := strconv.ParseInt(os.Getenv("GSP_PREVIEWS_MAX_BYTES"), 10, 64)
	if err != nil || n <= 0 {
		return defaultPreviewCapBytes
	}
	return n
}
