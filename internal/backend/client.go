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
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gositeplan/internal/storage"
)

// Client is a minimal HTTP client for the shared-plan API.
// It supports the read-only operations used by the desktop app under a feature flag.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a backend client with the default timeout.
// baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, token string) *Client {
	return NewClientWithOptions(baseURL, token, 0, false)
}

// NewClientWithOptions honors the configured request timeout and, for lab
// setups running self-signed certificates, skips TLS verification on request.
func NewClientWithOptions(baseURL string, token string, timeout time.Duration, tlsInsecure bool) *Client {
	b := strings.TrimRight(baseURL, "/")
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hc := &http.Client{Timeout: timeout}
	if tlsInsecure {
		hc.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // opt-in via backend.tls_insecure
		}
	}
	return &Client{
		BaseURL: b,
		Token:   token,
		client:  hc,
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// Project is a minimal projection for listing.
type Project struct {
	ID        int64     `json:"id"`
	StableID  string    `json:"stable_id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// ListProjects returns available projects (read-only).
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var list []Project
	if err := c.doJSON(ctx, http.MethodGet, "/api/projects", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// PlanSnapshotEnvelope matches the server response for the latest published snapshot of a project.
type PlanSnapshotEnvelope struct {
	ProjectID int64       `json:"project_id"`
	Version   int64       `json:"version"`
	CreatedAt string      `json:"created_at"`
	Snapshot  interface{} `json:"snapshot"`
}

// GetPlanSnapshot fetches the latest published plan snapshot for a project.
func (c *Client) GetPlanSnapshot(ctx context.Context, projectID int64) (*PlanSnapshotEnvelope, error) {
	var env PlanSnapshotEnvelope
	path := fmt.Sprintf("/api/projects/%d/plan", projectID)
	if err := c.doJSON(ctx, http.MethodGet, path, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// Search runs a label search on the server. Zero-valued query fields are omitted.
func (c *Client) Search(ctx context.Context, projectID int64, q storage.SearchQuery) ([]SearchHit, error) {
	v := url.Values{}
	v.Set("project_id", strconv.FormatInt(projectID, 10))
	if s := strings.TrimSpace(q.Text); s != "" {
		v.Set("q", s)
	}
	for _, k := range q.Kinds {
		v.Add("kind", k)
	}
	if s := strings.TrimSpace(q.Plan); s != "" {
		v.Set("plan", s)
	}
	if s := strings.TrimSpace(q.SymbolID); s != "" {
		v.Set("symbol", s)
	}
	if q.PageFrom > 0 {
		v.Set("page_from", strconv.Itoa(q.PageFrom))
	}
	if q.PageTo > 0 {
		v.Set("page_to", strconv.Itoa(q.PageTo))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	var hits []SearchHit
	if err := c.doJSON(ctx, http.MethodGet, "/api/search?"+v.Encode(), &hits); err != nil {
		return nil, err
	}
	return hits, nil
}
