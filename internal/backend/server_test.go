/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package backend

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	applog "gositeplan/internal/log"
)

// newTestServer builds a server without a database. Handlers that reject the
// request before touching the DB can be exercised this way.
func newTestServer() *server {
	return &server{secret: "s3cret", log: applog.WithComponent("backend")}
}

func TestRouteMethodGuards(t *testing.T) {
	mux := newTestServer().routes()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/token", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET on token mint: code = %d, want 405", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: code = %d, body = %q", rec.Code, rec.Body.String())
	}
}

func TestTokenMintEndpoint(t *testing.T) {
	mux := newTestServer().routes()

	body := strings.NewReader(`{"subject": "anna", "ttl_seconds": 60}`)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/token", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("mint: code = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expires_at"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode mint response: %v", err)
	}
	sub, err := verifyToken("s3cret", resp.Token)
	if err != nil {
		t.Fatalf("minted token does not verify: %v", err)
	}
	if sub != "anna" {
		t.Fatalf("subject = %q, want anna", sub)
	}
	exp, err := time.Parse(time.RFC3339, resp.ExpiresAt)
	if err != nil {
		t.Fatalf("expires_at: %v", err)
	}
	if d := time.Until(exp); d <= 0 || d > 61*time.Second {
		t.Fatalf("requested 60s ttl, got expiry in %v", d)
	}
}

func TestTokenMintDefaultsOnEmptyBody(t *testing.T) {
	mux := newTestServer().routes()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/token", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("mint without body: code = %d", rec.Code)
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	sub, err := verifyToken("s3cret", resp.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sub != "dev" {
		t.Fatalf("default subject = %q, want dev", sub)
	}
}

func TestAuthedRoutesRejectAnonymous(t *testing.T) {
	mux := newTestServer().routes()
	for _, path := range []string{"/api/projects", "/api/projects/1/plan", "/api/search"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s without token: code = %d, want 401", path, rec.Code)
		}
	}
}

func TestPlanPathRejectsBadID(t *testing.T) {
	mux := newTestServer().routes()
	tok, err := signToken("s3cret", "anna", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/projects/abc/plan", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric project id: code = %d, want 400", rec.Code)
	}
}

func TestPublishAnswersNotImplemented(t *testing.T) {
	mux := newTestServer().routes()
	tok, err := signToken("s3cret", "anna", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/projects/7/plan", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("publish: code = %d, want 501", rec.Code)
	}
}

func TestVersionEndpointHonorsOverride(t *testing.T) {
	t.Setenv("GSP_VERSION", "gsp-server 9.9.9-test")
	mux := newTestServer().routes()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("version: code = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "gsp-server 9.9.9-test" {
		t.Fatalf("version body = %q", got)
	}
}

func TestSearchQueryFromURL(t *testing.T) {
	vals := url.Values{}
	vals.Set("q", "Lampe")
	vals.Add("kind", "symbol")
	vals.Add("kind", "image")
	vals.Set("plan", "Erdgeschoss")
	vals.Set("symbol", "outlet")
	vals.Set("page_from", "1")
	vals.Set("page_to", "3")
	vals.Set("limit", "10")
	vals.Set("offset", "20")

	q := searchQueryFromURL(vals)
	if q.Text != "Lampe" || q.Plan != "Erdgeschoss" || q.SymbolID != "outlet" {
		t.Fatalf("text filters not mapped: %+v", q)
	}
	if len(q.Kinds) != 2 || q.Kinds[0] != "symbol" || q.Kinds[1] != "image" {
		t.Fatalf("kinds = %v", q.Kinds)
	}
	if q.PageFrom != 1 || q.PageTo != 3 || q.Limit != 10 || q.Offset != 20 {
		t.Fatalf("numeric filters not mapped: %+v", q)
	}
}
