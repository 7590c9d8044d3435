/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTokenSignVerifyRoundtrip(t *testing.T) {
	tok, err := signToken("s3cret", "anna", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sub, err := verifyToken("s3cret", tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sub != "anna" {
		t.Fatalf("subject = %q, want anna", sub)
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	tok, err := signToken("s3cret", "anna", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := verifyToken("other", tok); err == nil {
		t.Fatalf("expected verification failure with wrong secret")
	}
}

func TestTokenRejectsExpired(t *testing.T) {
	tok, err := signToken("s3cret", "anna", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := verifyToken("s3cret", tok); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestTokenRejectsTampering(t *testing.T) {
	tok, err := signToken("s3cret", "anna", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	parts := strings.SplitN(tok, ".", 2)
	forged := parts[0] + "x." + parts[1]
	if _, err := verifyToken("s3cret", forged); err == nil {
		t.Fatalf("expected tampered payload to fail")
	}
	if _, err := verifyToken("s3cret", "not-a-token"); err == nil {
		t.Fatalf("expected malformed token to fail")
	}
}

func TestWithAuthGuardsHandler(t *testing.T) {
	called := false
	h := withAuth("s3cret", func(w http.ResponseWriter, r *http.Request, subject string) {
		called = true
		if subject != "anna" {
			t.Fatalf("subject = %q, want anna", subject)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	// Missing header
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/projects", nil))
	if rec.Code != http.StatusUnauthorized || called {
		t.Fatalf("missing token: code=%d called=%v", rec.Code, called)
	}

	// Valid bearer token
	tok, err := signToken("s3cret", "anna", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusNoContent || !called {
		t.Fatalf("bearer token: code=%d called=%v", rec.Code, called)
	}
}
