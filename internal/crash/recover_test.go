/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gositeplan/internal/storage"
)

// TestRecoverWritesReportAndExits panics under Recover with exitFn swapped
// out, then checks the report, the autosave and the exit code.
func TestRecoverWritesReportAndExits(t *testing.T) {
	oldStderr := os.Stderr
	rp, wp, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stderr = wp

	exitCode := -1
	oldExit := exitFn
	exitFn = func(code int) { exitCode = code }
	defer func() { exitFn = oldExit }()

	root := t.TempDir()
	ph := &storage.ProjectHandle{Root: root, ManifestPath: filepath.Join(root, storage.ManifestFileName)}

	func() {
		defer Recover(ph)
		panic("boom")
	}()

	_ = wp.Close()
	os.Stderr = oldStderr
	var errOut bytes.Buffer
	_, _ = io.Copy(&errOut, rp)

	if exitCode != 2 {
		t.Fatalf("exit code = %d, want 2", exitCode)
	}

	bdir := filepath.Join(root, storage.BackupsDirName)
	files, err := os.ReadDir(bdir)
	if err != nil {
		t.Fatalf("read backups dir: %v", err)
	}
	var report, autosave string
	for _, f := range files {
		switch {
		case strings.HasPrefix(f.Name(), "crash-") && strings.HasSuffix(f.Name(), ".log"):
			report = filepath.Join(bdir, f.Name())
		case strings.Contains(f.Name(), ".crash-"):
			autosave = f.Name()
		}
	}
	if report == "" {
		t.Fatalf("no crash report under %s (found %v)", bdir, files)
	}
	if autosave == "" {
		t.Fatalf("no crash autosave under %s (found %v)", bdir, files)
	}

	b, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.Contains(b, []byte("Panic: boom")) {
		t.Fatalf("report does not contain panic: %s", b)
	}
	if !strings.Contains(errOut.String(), "crash report was saved to") {
		t.Fatalf("stderr notice missing: %q", errOut.String())
	}
}
