/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"gositeplan/internal/domain"
)

func TestPreviewsPutGetAndEvict(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, domain.Project{Name: "Prev Test"})
	if err != nil || ph == nil {
		t.Fatalf("InitProject: %v", err)
	}
	// Give background index init a moment to settle to avoid lock contention
	time.Sleep(200 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Set a tiny cap to force eviction quickly
	os.Setenv("GSP_PREVIEWS_MAX_BYTES", "64")
	defer os.Unsetenv("GSP_PREVIEWS_MAX_BYTES")

	// Insert 3 previews of 40 bytes each
	blobA := make([]byte, 40)
	blobB := make([]byte, 40)
	blobC := make([]byte, 40)
	if err := PutPreview(ctx, ph.Root, "site", 1, 100, 100, blobA); err != nil {
		t.Fatalf("put A: %v", err)
	}
	time.Sleep(10 * time.Millisecond) // different access times
	if err := PutPreview(ctx, ph.Root, "site", 1, 200, 200, blobB); err != nil {
		t.Fatalf("put B: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := PutPreview(ctx, ph.Root, "site", 1, 300, 300, blobC); err != nil {
		t.Fatalf("put C: %v", err)
	}

	// Cap is 64 bytes; after inserts total 120 -> eviction should have occurred, leaving last inserted(s)
	total, err := TotalPreviewBytes(ctx, ph.Root)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total > 64 {
		t.Fatalf("expected eviction to <=64 bytes, got %d", total)
	}

	// Access the 200x200 one (if present)
	_, _ = GetPreview(ctx, ph.Root, "site", 1, 200, 200)
	// Insert another 40-byte; should evict oldest by last_access
	if err := PutPreview(ctx, ph.Root, "site", 1, 400, 400, make([]byte, 40)); err != nil {
		t.Fatalf("put D: %v", err)
	}
	if total2, err := TotalPreviewBytes(ctx, ph.Root); err != nil || total2 > 64 {
		t.Fatalf("post total: %v / %d", err, total2)
	}
}

func TestGetOrCreatePreview(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, domain.Project{Name: "Prev Create"})
	if err != nil || ph == nil {
		t.Fatalf("InitProject: %v", err)
	}
	// Allow background indexer to settle
	time.Sleep(200 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	calls := 0
	gen := func(context.Context) ([]byte, error) { calls++; return []byte("abcd"), nil }
	b, err := GetOrCreatePreview(ctx, ph.Root, "site", 2, 128, 128, gen)
	if err != nil {
		t.Fatalf("getOrCreate: %v", err)
	}
	if string(b) != "abcd" {
		t.Fatalf("unexpected data: %q", string(b))
	}
	// Second call should hit cache and not call generator
	b, err = GetOrCreatePreview(ctx, ph.Root, "site", 2, 128, 128, gen)
	if err != nil {
		t.Fatalf("getOrCreate 2: %v", err)
	}
	if calls != 1 {
		t.Fatalf("generator should be called once, got %d", calls)
	}
	if string(b) != "abcd" {
		t.Fatalf("cache returned wrong data: %q", string(b))
	}

	// Invalidate drops the cached variant
	if err := InvalidatePreviews(ctx, ph.Root, "site", 2); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	got, err := GetPreview(ctx, ph.Root, "site", 2, 128, 128)
	if err != nil {
		t.Fatalf("get after invalidate: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil after invalidate, got %d bytes", len(got))
	}
}
