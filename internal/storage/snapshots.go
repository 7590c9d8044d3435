/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Plan-page checkpoints. Editing operations (drag, delete, paste, autosave)
// store the serialized page so the history view can restore earlier states
// without replaying undo records.

// Snapshot is one stored checkpoint row.
type Snapshot struct {
	TS     time.Time
	Reason string
	Blob   []byte
}

// SaveSnapshot persists a serialized plan checkpoint for the page with a
// reason tag (drag, delete, paste, autosave, ...).
func SaveSnapshot(ctx context.Context, ph *ProjectHandle, plan string, page int, reason string, blob []byte, ts time.Time) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	return withIndex(ph.Root, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `INSERT INTO snapshots(plan, page, reason, ts, plan_blob) VALUES (?, ?, ?, ?, ?)`,
			plan, page, reason, ts.UTC().Format(time.RFC3339Nano), blob)
		return err
	})
}

// GetLatestSnapshot returns the latest checkpoint for a plan page or a zero
// Snapshot when none exists.
func GetLatestSnapshot(ctx context.Context, ph *ProjectHandle, plan string, page int) (Snapshot, error) {
	if ph == nil {
		return Snapshot{}, errors.New("nil ProjectHandle")
	}
	var snap Snapshot
	err := withIndex(ph.Root, func(db *sql.DB) error {
		row := db.QueryRowContext(ctx, `SELECT ts, reason, plan_blob FROM snapshots WHERE plan = ? AND page = ? ORDER BY ts DESC LIMIT 1`, plan, page)
		s, err := scanSnapshot(row.Scan)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		snap = s
		return nil
	})
	return snap, err
}

// ListSnapshots returns up to limit most recent checkpoints for a plan page.
func ListSnapshots(ctx context.Context, ph *ProjectHandle, plan string, page int, limit int) ([]Snapshot, error) {
	if ph == nil {
		return nil, errors.New("nil ProjectHandle")
	}
	if limit <= 0 {
		limit = 50
	}
	var out []Snapshot
	err := withIndex(ph.Root, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `SELECT ts, reason, plan_blob FROM snapshots WHERE plan = ? AND page = ? ORDER BY ts DESC LIMIT ?`,
			plan, page, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			s, err := scanSnapshot(rows.Scan)
			if err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PruneOldSnapshots keeps at most keepLast checkpoints for the plan page,
// deletes older ones, and reports how many rows went away.
func PruneOldSnapshots(ctx context.Context, ph *ProjectHandle, plan string, page int, keepLast int) (int64, error) {
	if ph == nil {
		return 0, errors.New("nil ProjectHandle")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	var n int64
	err := withIndex(ph.Root, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `DELETE FROM snapshots WHERE plan = ? AND page = ? AND id NOT IN (
			SELECT id FROM snapshots WHERE plan = ? AND page = ? ORDER BY ts DESC LIMIT ?)`,
			plan, page, plan, page, keepLast)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

// scanSnapshot reads one ts/reason/plan_blob row. A malformed timestamp
// leaves TS zero rather than failing the read.
func scanSnapshot(scan func(dest ...any) error) (Snapshot, error) {
	var (
		tsStr  string
		reason sql.NullString
		s      Snapshot
	)
	if err := scan(&tsStr, &reason, &s.Blob); err != nil {
		return Snapshot{}, err
	}
	s.Reason = reason.String
	s.TS, _ = time.Parse(time.RFC3339Nano, tsStr)
	return s, nil
}
