/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a top-level panic into a crash report file plus an
// emergency autosave of the open project.
package crash

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "gositeplan/internal/log"
	"gositeplan/internal/storage"
	"gositeplan/internal/telemetry"
	"gositeplan/internal/version"
)

// exitFn lets tests observe the exit instead of dying with the process.
var exitFn = os.Exit

// Recover belongs at the top of main and of the UI event loop:
//
//	defer func() { crash.Recover(ph) }()
//
// On panic it writes a report file, autosaves the manifest when a project is
// open, tells the user where the report went and exits with code 2.
func Recover(ph *storage.ProjectHandle) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic trapped", slog.Any("panic", r), slog.String("stack", string(stack)))

	reportPath, err := dumpReport(ph, r, stack)
	if err != nil {
		l.Error("crash report write failed", slog.Any("err", err), slog.String("path", reportPath))
	}
	if ph != nil {
		if path, err := storage.AutosaveCrashSnapshot(ph); err != nil {
			l.Error("crash autosave failed", slog.Any("err", err))
		} else {
			l.Info("crash autosave written", slog.String("path", path))
		}
	}

	fmt.Fprintf(os.Stderr,
		"A fatal error occurred. A crash report was saved to: %s\nVersion: %s\nOS/Arch: %s/%s\n",
		reportPath, version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

// dumpReport writes the report under the project's backups dir when a handle
// is open, otherwise into the system temp dir, and hands the body to
// telemetry. The returned path is meaningful even when err is non-nil.
func dumpReport(ph *storage.ProjectHandle, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if ph != nil && ph.Root != "" {
		bdir := filepath.Join(ph.Root, storage.BackupsDirName)
		if err := os.MkdirAll(bdir, 0o755); err == nil {
			dir = bdir
		}
	}
	now := time.Now()
	path := filepath.Join(dir, "crash-"+now.Format("20060102-150405.000")+".log")

	body := reportBody(ph, panicVal, stack, now)
	err := os.WriteFile(path, body, 0o644)

	// Upload regardless of the local write outcome; opt-in gating happens
	// inside telemetry.
	telemetry.UploadCrash(body)
	return path, err
}

func reportBody(ph *storage.ProjectHandle, panicVal any, stack []byte, now time.Time) []byte {
	var b []byte
	add := func(format string, args ...any) { b = append(b, fmt.Sprintf(format, args...)...) }
	add("GoSitePlan Crash Report\n")
	add("Timestamp: %s\n", now.Format(time.RFC3339))
	add("Version: %s\n", version.String())
	add("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if ph != nil {
		add("ProjectRoot: %s\n", ph.Root)
		add("Manifest: %s\n", ph.ManifestPath)
	}
	add("\nPanic: %v\n\nStack:\n%s\n", panicVal, stack)
	return b
}
