/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package main

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"gositeplan/internal/domain"
	"gositeplan/internal/storage"
)

func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create image: %v", err)
	}
	defer func() { _ = f.Close() }()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 3))); err != nil {
		t.Fatalf("encode image: %v", err)
	}
}

func TestAddImageSetsSpins360(t *testing.T) {
	dir := t.TempDir()
	if _, err := storage.InitProject(dir, domain.Project{
		Name:  "test",
		Plans: []domain.Plan{domain.NewPlan("floor")},
	}); err != nil {
		t.Fatalf("init project: %v", err)
	}
	img := filepath.Join(t.TempDir(), "north.png")
	writeTestPNG(t, img)

	addImage = img
	addSpins360 = true
	addRotation = 150
	defer func() {
		addImage = ""
		addSpins360 = false
		addRotation = 0
	}()
	runAdd(addCmd, []string{dir})

	h, err := storage.Open(dir)
	if err != nil {
		t.Fatalf("reopen project: %v", err)
	}
	pl := h.Project.FirstPlan()
	if len(pl.Elements) != 1 {
		t.Fatalf("elements: got %d want 1", len(pl.Elements))
	}
	el := pl.Elements[0]
	if el.Kind != domain.KindImage {
		t.Fatalf("kind = %q, want %q", el.Kind, domain.KindImage)
	}
	if !el.Spins360 {
		t.Fatalf("imported image must carry the spins360 flag")
	}
	if el.Rotation != 150 {
		t.Fatalf("rotation = %v, want 150", el.Rotation)
	}
}
