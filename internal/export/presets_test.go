/*
 * Copyright (c) 2025
 */
package export

import (
	"os"
	"path/filepath"
	"testing"

	"gositeplan/internal/storage"
)

func TestBatch_WebPreset(t *testing.T) {
	root := t.TempDir()
	ph, err := storage.InitProject(root, samplePlanProject())
	if err != nil {
		t.Fatalf("init project: %v", err)
	}
	if err := Batch(ph, BatchOptions{Preset: PresetWeb}); err != nil {
		t.Fatalf("batch export web: %v", err)
	}
	checks := []string{
		filepath.Join(root, "exports", "web", "png", "erdgeschoss-page-1.png"),
		filepath.Join(root, "exports", "web", "png", "erdgeschoss-page-2.png"),
		filepath.Join(root, "exports", "web", "svg", "erdgeschoss-page-1.svg"),
		filepath.Join(root, "exports", "web", "archive", "erdgeschoss.zip"),
	}
	for _, p := range checks {
		st, err := os.Stat(p)
		if err != nil {
			t.Fatalf("missing %s: %v", p, err)
		}
		if st.Size() <= 0 {
			t.Fatalf("empty file: %s", p)
		}
	}
}

func TestBatch_PrintPreset(t *testing.T) {
	root := t.TempDir()
	ph, err := storage.InitProject(root, samplePlanProject())
	if err != nil {
		t.Fatalf("init project: %v", err)
	}
	// Cap the raster density so the print run stays cheap.
	if err := Batch(ph, BatchOptions{Preset: PresetPrint, DPIOverride: 72}); err != nil {
		t.Fatalf("batch export print: %v", err)
	}
	checks := []string{
		filepath.Join(root, "exports", "print", "pdf", "erdgeschoss-page-1.pdf"),
		filepath.Join(root, "exports", "print", "pdf", "erdgeschoss-page-2.pdf"),
		filepath.Join(root, "exports", "print", "png", "erdgeschoss-page-1.png"),
	}
	for _, p := range checks {
		st, err := os.Stat(p)
		if err != nil {
			t.Fatalf("missing %s: %v", p, err)
		}
		if st.Size() <= 0 {
			t.Fatalf("empty file: %s", p)
		}
	}
}

func TestBatch_UnknownFormat(t *testing.T) {
	root := t.TempDir()
	ph, err := storage.InitProject(root, samplePlanProject())
	if err != nil {
		t.Fatalf("init project: %v", err)
	}
	if err := Batch(ph, BatchOptions{Formats: []string{"docx"}}); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestPaperByName(t *testing.T) {
	p, ok := PaperByName("a4")
	if !ok {
		t.Fatalf("a4 not found")
	}
	if p.W >= p.H {
		t.Fatalf("portrait paper expected, got %gx%g", p.W, p.H)
	}
	l := p.Landscape()
	if l.W != p.H || l.H != p.W {
		t.Fatalf("landscape should swap axes, got %gx%g", l.W, l.H)
	}
	if _, ok := PaperByName("napkin"); ok {
		t.Fatalf("unknown paper resolved")
	}
	if len(PaperNames()) == 0 {
		t.Fatalf("no paper presets")
	}
}
