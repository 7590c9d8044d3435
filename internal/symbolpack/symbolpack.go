/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

// Package symbolpack moves project-local symbol catalogs between projects
// as plain zip archives of the symbols/ directory.
package symbolpack

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "gositeplan/internal/log"
)

// ManifestName is the informational text file at the root of every pack.
const ManifestName = "symbolpack.manifest.txt"

// ExportProjectSymbols zips <project>/symbols into destZipPath. The archive
// mirrors the directory layout (catalog YAML plus preview images) under a
// symbols/ prefix and carries a human-readable manifest at its root. A
// missing or empty symbols directory still yields a valid archive holding
// just the manifest.
func ExportProjectSymbols(projectRoot string, destZipPath string) error {
	l := applog.WithOperation(applog.WithComponent("symbolpack"), "export").With(slog.String("project", projectRoot))
	if strings.TrimSpace(projectRoot) == "" {
		return errors.New("projectRoot is required")
	}
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destZipPath is required")
	}
	symbolsDir := filepath.Join(projectRoot, "symbols")
	if err := os.MkdirAll(symbolsDir, 0o755); err != nil {
		return fmt.Errorf("ensure symbols dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	// Recreate instead of truncating so a stale archive never shines through.
	_ = os.Remove(destZipPath)

	zf, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	zw := zip.NewWriter(zf)
	added, err := writePack(zw, projectRoot, symbolsDir)
	if err != nil {
		_ = zw.Close()
		_ = zf.Close()
		l.Error("zip build failed", slog.Any("err", err))
		return fmt.Errorf("build zip: %w", err)
	}
	// The central directory is written on close, so these errors count.
	if err := zw.Close(); err != nil {
		_ = zf.Close()
		return fmt.Errorf("finish zip: %w", err)
	}
	if err := zf.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	l.Info("symbol pack exported", slog.Int("files", added), slog.String("zip", destZipPath))
	return nil
}

// writePack emits the manifest followed by every file below symbolsDir,
// named by its project-relative slash path.
func writePack(zw *zip.Writer, projectRoot, symbolsDir string) (int, error) {
	manifest := fmt.Sprintf("GoSitePlan Symbol Pack\nCreated: %s\nProject: %s\n\nContents mirror the project's /symbols directory.\n",
		time.Now().Format(time.RFC3339), projectRoot)
	w, err := zw.Create(ManifestName)
	if err != nil {
		return 0, fmt.Errorf("add manifest: %w", err)
	}
	if _, err := w.Write([]byte(manifest)); err != nil {
		return 0, fmt.Errorf("write manifest: %w", err)
	}
	added := 0
	err = filepath.WalkDir(symbolsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(projectRoot, path)
		if err != nil {
			return err
		}
		if err := copyIntoZip(zw, filepath.ToSlash(rel), path); err != nil {
			return err
		}
		added++
		return nil
	})
	return added, err
}

func copyIntoZip(zw *zip.Writer, name, path string) error {
	fw, err := zw.Create(name)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = io.Copy(fw, f)
	return err
}

// InstallPack extracts a pack into the project's symbols directory and
// returns how many files it wrote. Existing files are never overwritten,
// directory entries are created but not counted, and entries that would
// resolve outside the symbols tree are ignored.
func InstallPack(projectRoot string, packZipPath string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("symbolpack"), "install").With(slog.String("project", projectRoot))
	if strings.TrimSpace(projectRoot) == "" {
		return 0, errors.New("projectRoot is required")
	}
	if strings.TrimSpace(packZipPath) == "" {
		return 0, errors.New("packZipPath is required")
	}
	symbolsDir := filepath.Join(projectRoot, "symbols")
	if err := os.MkdirAll(symbolsDir, 0o755); err != nil {
		return 0, fmt.Errorf("ensure symbols dir: %w", err)
	}
	r, err := zip.OpenReader(packZipPath)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	installed := 0
	for _, f := range r.File {
		if f.Name == ManifestName {
			continue
		}
		target := entryTarget(projectRoot, f.Name)
		if !underDir(symbolsDir, target) {
			l.Warn("skip entry escaping symbols dir", slog.String("name", f.Name))
			continue
		}
		if _, err := os.Stat(target); err == nil {
			l.Warn("skip existing file", slog.String("path", target))
			continue
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return installed, err
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return installed, err
		}
		installed++
	}
	l.Info("symbol pack installed", slog.Int("files", installed))
	return installed, nil
}

// entryTarget maps an archive entry onto the project tree. Entries not
// rooted at symbols/ gain the prefix so foreign pack layouts still land in
// the right place.
func entryTarget(projectRoot, name string) string {
	rel := name
	if !strings.HasPrefix(rel, "symbols/") {
		rel = "symbols/" + rel
	}
	return filepath.Join(projectRoot, filepath.FromSlash(rel))
}

// underDir reports whether path resolved inside dir, the guard against
// archive entries traversing out via "..".
func underDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
