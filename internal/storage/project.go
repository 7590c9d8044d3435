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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gositeplan/internal/domain"
	applog "gositeplan/internal/log"
)

const (
	ManifestFileName = "siteplan.json"
	BackupsDirName   = "backups"

	// maxManifestBackups bounds the timestamped .bak files kept per project.
	maxManifestBackups = 10
)

// Standard subfolders scaffolded for every project.
var standardSubDirs = []string{
	"assets",
	"symbols",
	"exports",
	BackupsDirName,
}

// ProjectHandle keeps track of the project state loaded/saved from disk.
// Root is the project directory containing siteplan.json and subfolders.
// Project holds the in-memory representation of the manifest.
type ProjectHandle struct {
	Root         string
	ManifestPath string
	Project      domain.Project
}

// scaffold creates the project root and its standard subfolders.
func scaffold(root string) error {
	if strings.TrimSpace(root) == "" {
		return errors.New("root path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create project root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	return nil
}

// InitProject creates a new project directory at root (creating it if it
// doesn't exist), scaffolds the standard subfolders, and writes the given
// manifest transactionally.
func InitProject(root string, proj domain.Project) (*ProjectHandle, error) {
	if err := scaffold(root); err != nil {
		return nil, err
	}
	proj.Normalize()
	ph := &ProjectHandle{
		Root:         root,
		ManifestPath: filepath.Join(root, ManifestFileName),
		Project:      proj,
	}
	if err := Save(ph); err != nil {
		return nil, err
	}
	// Build the embedded index up front so search works immediately.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := UpdateIndex(ctx, root, ph.Project); err != nil {
		applog.WithComponent("storage").Warn("initial index build failed", slog.Any("err", err))
	}
	return ph, nil
}

// Open loads an existing project from the given root directory. When the live
// manifest is unreadable or does not parse, it falls back to the newest
// backup; the repair is logged so the user knows the live file was bad.
func Open(root string) (*ProjectHandle, error) {
	mpath := filepath.Join(root, ManifestFileName)
	p, err := readManifest(mpath)
	if err != nil {
		bp, berr := readLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("%w; backup attempt: %v", err, berr)
		}
		applog.WithOperation(applog.WithComponent("storage"), "open").Warn(
			"manifest unusable, recovered from backup",
			slog.String("root", root), slog.Any("err", err))
		p = bp
	}
	p.Normalize()
	ph := &ProjectHandle{Root: root, ManifestPath: mpath, Project: p}
	// Refresh the derived index off the open path.
	UpdateIndexAsync(root, ph.Project)
	return ph, nil
}

func readManifest(path string) (domain.Project, error) {
	var p domain.Project
	b, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("open manifest: %w", err)
	}
	if err := json.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("parse manifest: %w", err)
	}
	return p, nil
}

// Save writes the current ProjectHandle.Project to disk with transactional
// semantics and a timestamped backup of the previous manifest (if present).
// Backups are pruned to the newest maxManifestBackups.
func Save(ph *ProjectHandle) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	if ph.Root == "" || ph.ManifestPath == "" {
		return errors.New("invalid ProjectHandle: missing paths")
	}
	data, err := manifestBytes(ph.Project)
	if err != nil {
		return err
	}
	if err := backupCurrentManifest(ph); err != nil {
		return err
	}
	if err := atomicWriteFile(ph.ManifestPath, data); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	// Saves should not wait on indexing.
	UpdateIndexAsync(ph.Root, ph.Project)
	return nil
}

// SaveAs writes the manifest to a new root folder, scaffolding structure if
// needed, and updates the handle.
func SaveAs(ph *ProjectHandle, newRoot string) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	if newRoot == "" {
		return errors.New("new root is empty")
	}
	if err := scaffold(newRoot); err != nil {
		return err
	}
	ph.Root = newRoot
	ph.ManifestPath = filepath.Join(newRoot, ManifestFileName)
	return Save(ph)
}

// AutosaveCrashSnapshot writes the in-memory project to a distinct crash file
// next to the regular backups. The live manifest and its backup chain are not
// touched so a half-broken in-memory state can never overwrite good data.
// Returns the path of the written snapshot.
func AutosaveCrashSnapshot(ph *ProjectHandle) (string, error) {
	if ph == nil {
		return "", errors.New("nil ProjectHandle")
	}
	if ph.Root == "" {
		return "", errors.New("invalid ProjectHandle: missing root")
	}
	data, err := manifestBytes(ph.Project)
	if err != nil {
		return "", fmt.Errorf("crash snapshot: %w", err)
	}
	bdir := filepath.Join(ph.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(bdir, fmt.Sprintf("%s.crash-%s.json", ManifestFileName, stamp))
	if err := atomicWriteFile(path, data); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return path, nil
}

// manifestBytes marshals a project the way it lives on disk: indented JSON
// with a trailing newline, friendly to text diffs and version control.
func manifestBytes(p domain.Project) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// backupCurrentManifest copies the live manifest, when one exists, to a
// stamped .bak file and prunes the chain. The millisecond stamp keeps names
// unique across rapid consecutive saves.
func backupCurrentManifest(ph *ProjectHandle) error {
	cur, err := os.ReadFile(ph.ManifestPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil // first save
	}
	if err != nil {
		return fmt.Errorf("read current manifest: %w", err)
	}
	bdir := filepath.Join(ph.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	stamp := time.Now().Format("20060102-150405.000")
	bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", ManifestFileName, stamp))
	if err := os.WriteFile(bpath, cur, 0o644); err != nil {
		return fmt.Errorf("backup current manifest: %w", err)
	}
	pruneManifestBackups(bdir)
	return nil
}

// manifestBackups lists the stamped .bak files under bdir. Glob returns the
// paths sorted, and the timestamp format makes that order chronological.
func manifestBackups(bdir string) []string {
	paths, _ := filepath.Glob(filepath.Join(bdir, ManifestFileName+".*.bak"))
	return paths
}

// pruneManifestBackups deletes the oldest .bak files beyond maxManifestBackups.
// Best effort; a failed delete is not worth failing the save for.
func pruneManifestBackups(bdir string) {
	baks := manifestBackups(bdir)
	for len(baks) > maxManifestBackups {
		_ = os.Remove(baks[0])
		baks = baks[1:]
	}
}

func readLatestBackup(root string) (domain.Project, error) {
	var p domain.Project
	baks := manifestBackups(filepath.Join(root, BackupsDirName))
	if len(baks) == 0 {
		return p, errors.New("no backups found")
	}
	b, err := os.ReadFile(baks[len(baks)-1])
	if err != nil {
		return p, fmt.Errorf("read latest backup: %w", err)
	}
	if err := json.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("parse latest backup: %w", err)
	}
	return p, nil
}

// atomicWriteFile writes data to a temp file in the target directory, syncs,
// and renames it over path so readers never observe a partial file.
func atomicWriteFile(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	_, werr := f.Write(data)
	if serr := f.Sync(); werr == nil {
		werr = serr
	}
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(tmp)
		return werr
	}
	// Windows cannot rename over an existing file.
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
