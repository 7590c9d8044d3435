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
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestDisabledClientStaysSilent(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cases := []struct {
		name string
		cfg  Config
	}{
		{"no opt-in", Config{EventsURL: srv.URL + "/events", CrashURL: srv.URL + "/crash", Timeout: time.Second}},
		{"no events url", Config{OptIn: true, Timeout: time.Second}},
	}
	for _, tc := range cases {
		c := New(tc.cfg)
		if c.Enabled() {
			t.Fatalf("%s: client should be disabled", tc.name)
		}
		c.Event("element_added", nil)
		c.UploadCrash([]byte("ignored"))
		c.Close()
	}

	// Enabled client, but the empty event name is dropped before queueing.
	c := New(Config{OptIn: true, EventsURL: srv.URL + "/events", Timeout: time.Second})
	defer c.Close()
	c.Event("", nil)

	time.Sleep(50 * time.Millisecond)
	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Fatalf("disabled paths produced %d requests", n)
	}
}

func TestUploadCrashWithoutURLIsNoop(t *testing.T) {
	// Opted in, no crash URL configured: must not block or panic.
	c := New(Config{OptIn: true, EventsURL: "http://127.0.0.1:0", Timeout: time.Second})
	defer c.Close()
	c.UploadCrash([]byte("report"))
}
