/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"runtime"
	"sync"
	"testing"
	"time"
)

// sink records everything POSTed to it, keyed by path.
type sink struct {
	mu   sync.Mutex
	got  map[string][][]byte
	typ  map[string]string
	done chan struct{}
}

func newSink() *sink {
	return &sink{got: map[string][][]byte{}, typ: map[string]string{}, done: make(chan struct{}, 8)}
}

func (s *sink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	_ = r.Body.Close()
	s.mu.Lock()
	s.got[r.URL.Path] = append(s.got[r.URL.Path], b)
	s.typ[r.URL.Path] = r.Header.Get("Content-Type")
	s.mu.Unlock()
	s.done <- struct{}{}
	w.WriteHeader(http.StatusOK)
}

func (s *sink) wait(t *testing.T) {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("no request arrived")
	}
}

func (s *sink) first(path string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.got[path]) == 0 {
		return nil
	}
	return s.got[path][0]
}

func (s *sink) contentType(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typ[path]
}

func TestClientEventRoundTrip(t *testing.T) {
	s := newSink()
	srv := httptest.NewServer(s)
	defer srv.Close()

	c := New(Config{OptIn: true, EventsURL: srv.URL + "/events", Timeout: 2 * time.Second})
	defer c.Close()
	if !c.Enabled() {
		t.Fatalf("client should be enabled")
	}

	c.Event("plan_export", map[string]any{"format": "pdf", "pages": 3})
	c.Flush(context.Background())
	s.wait(t)

	body := s.first("/events")
	if body == nil {
		t.Fatalf("no event delivered")
	}
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("event is not JSON: %v (%s)", err, body)
	}
	if m["name"] != "plan_export" || m["format"] != "pdf" {
		t.Fatalf("event fields wrong: %v", m)
	}
	if m["os"] != runtime.GOOS {
		t.Fatalf("os stamp wrong: %v", m["os"])
	}
	if _, ok := m["ts"].(string); !ok {
		t.Fatalf("missing ts: %v", m)
	}
	if _, ok := m["version"].(string); !ok {
		t.Fatalf("missing version: %v", m)
	}
	if ct := s.contentType("/events"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
}

func TestClientCrashUpload(t *testing.T) {
	s := newSink()
	srv := httptest.NewServer(s)
	defer srv.Close()

	// Crash uploads need opt-in and a crash URL; the events URL is not part
	// of the gate.
	c := New(Config{OptIn: true, CrashURL: srv.URL + "/crash", Timeout: 2 * time.Second})
	defer c.Close()
	c.UploadCrash([]byte("GoSitePlan Crash Report\nPanic: test"))
	s.wait(t)

	if body := s.first("/crash"); string(body) != "GoSitePlan Crash Report\nPanic: test" {
		t.Fatalf("crash body mismatch: %q", body)
	}
	if ct := s.contentType("/crash"); ct != "text/plain; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
}

func TestFromEnvAndDefaultClient(t *testing.T) {
	t.Setenv("GSP_TELEMETRY_OPT_IN", "yes")
	t.Setenv("GSP_TELEMETRY_URL", "http://127.0.0.1:0")
	t.Setenv("GSP_CRASH_UPLOAD_URL", "")
	t.Setenv("GSP_TELEMETRY_TIMEOUT_MS", "100")

	cfg := FromEnv()
	if !cfg.OptIn || cfg.EventsURL == "" || cfg.CrashURL != "" {
		t.Fatalf("FromEnv mismatch: %+v", cfg)
	}
	if cfg.Timeout != 100*time.Millisecond {
		t.Fatalf("timeout = %v, want 100ms", cfg.Timeout)
	}

	NewDefault(cfg)
	if !Enabled() {
		t.Fatalf("default client should be enabled")
	}
}

func TestWithOptInGrantsButNeverRevokes(t *testing.T) {
	base := Config{EventsURL: "http://127.0.0.1:0"}
	if !base.WithOptIn(true).OptIn {
		t.Fatalf("config opt-in should grant")
	}
	granted := Config{OptIn: true, EventsURL: "http://127.0.0.1:0"}
	if !granted.WithOptIn(false).OptIn {
		t.Fatalf("config false must not revoke env opt-in")
	}
}
