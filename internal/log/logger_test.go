/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestInitFileHandlerWritesJSON drives a record through the rotated file
// handler and checks the static and contextual attributes survive.
func TestInitFileHandlerWritesJSON(t *testing.T) {
	// Not t.TempDir(): lumberjack keeps the file open and Windows cannot
	// delete an open file during test cleanup.
	fpath := filepath.Join(os.TempDir(), fmt.Sprintf("gsp_log_%d.json", time.Now().UnixNano()))

	Init(Options{Level: "debug", Format: "json", File: fpath})

	l := WithOperation(WithComponent("indexer"), "rebuild")
	l.Info("index rebuilt", slog.Int("labels", 7))

	time.Sleep(50 * time.Millisecond)

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}

	var last string
	for _, line := range strings.Split(string(b), "\n") {
		if s := strings.TrimSpace(line); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("log file has no lines")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal json log line %q: %v", last, err)
	}

	for k, want := range map[string]any{
		"app":       "gositeplan",
		"component": "indexer",
		"op":        "rebuild",
		"msg":       "index rebuilt",
	} {
		if m[k] != want {
			t.Fatalf("attr %s = %v, want %v", k, m[k], want)
		}
	}
	if _, ok := m["ver"].(string); !ok {
		t.Fatalf("missing ver attr: %v", m)
	}
	if _, ok := m["pid"]; !ok {
		t.Fatalf("missing pid attr: %v", m)
	}
	if m["labels"] != float64(7) {
		t.Fatalf("record attr labels = %v", m["labels"])
	}
}

func TestLazyDefaultLogger(t *testing.T) {
	current.Store(nil)
	if L() == nil {
		t.Fatalf("L() did not lazily initialize")
	}
}
