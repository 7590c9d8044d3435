/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package telemetry sends anonymous, strictly opt-in usage events and crash
// reports. Without an endpoint URL every call is a no-op, opt-in or not.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	applog "gositeplan/internal/log"
	"gositeplan/internal/version"
)

// Config is read once at client construction.
//
// FromEnv reads:
//   - GSP_TELEMETRY_OPT_IN: "1", "true", "yes" or "on" enables metrics
//   - GSP_TELEMETRY_URL: endpoint POSTed JSON events
//   - GSP_CRASH_UPLOAD_URL: endpoint POSTed crash report text
//   - GSP_TELEMETRY_TIMEOUT_MS: request timeout, default 1500
//   - GSP_TELEMETRY_DEBUG: if set, send attempts are logged
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

// FromEnv builds a Config from the GSP_TELEMETRY_* variables.
func FromEnv() Config {
	cfg := Config{
		OptIn:        isTruthy(os.Getenv("GSP_TELEMETRY_OPT_IN")),
		EventsURL:    strings.TrimSpace(os.Getenv("GSP_TELEMETRY_URL")),
		CrashURL:     strings.TrimSpace(os.Getenv("GSP_CRASH_UPLOAD_URL")),
		Timeout:      1500 * time.Millisecond,
		DebugLogging: os.Getenv("GSP_TELEMETRY_DEBUG") != "",
	}
	if ms := strings.TrimSpace(os.Getenv("GSP_TELEMETRY_TIMEOUT_MS")); ms != "" {
		if d, err := time.ParseDuration(ms + "ms"); err == nil {
			cfg.Timeout = d
		}
	}
	return cfg
}

// WithOptIn merges the config file's general.telemetry_opt_in into c. It can
// grant opt-in but never revoke one already granted via the environment.
func (c Config) WithOptIn(optIn bool) Config {
	c.OptIn = c.OptIn || optIn
	return c
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// event sits in the queue; the wire payload is built at send time.
type event struct {
	name  string
	props map[string]any
	at    time.Time
}

// Client sends events from a background goroutine. The queue is bounded;
// overflow and transport errors drop events silently, telemetry must never
// stall an interactive session.
type Client struct {
	cfg  Config
	log  *slog.Logger
	http *http.Client
	q    chan event
	done chan struct{}
	stop sync.Once
}

var (
	defaultClient *Client
	defaultOnce   sync.Once
)

// InitDefault installs the env-configured default client on first use.
func InitDefault() {
	defaultOnce.Do(func() { NewDefault(FromEnv()) })
}

// NewDefault installs a client built from cfg as the package default.
func NewDefault(cfg Config) {
	defaultClient = New(cfg)
}

// New constructs a client and starts its send loop.
func New(cfg Config) *Client {
	c := &Client{
		cfg:  cfg,
		log:  applog.WithComponent("telemetry"),
		http: &http.Client{Timeout: cfg.Timeout},
		q:    make(chan event, 64),
		done: make(chan struct{}),
	}
	go c.loop()
	return c
}

// Enabled reports whether events would actually be sent.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Enabled answers for the default client.
func Enabled() bool {
	InitDefault()
	return defaultClient.Enabled()
}

// Event queues a usage event. Props must not carry PII.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	ev := event{name: name, at: time.Now().UTC()}
	if len(props) > 0 {
		ev.props = make(map[string]any, len(props))
		for k, v := range props {
			ev.props[k] = v
		}
	}
	select {
	case c.q <- ev:
	default:
		// queue full
	}
}

// Event queues on the default client.
func Event(name string, props map[string]any) { InitDefault(); defaultClient.Event(name, props) }

// Flush waits up to half a second for the queue to drain.
func (c *Client) Flush(ctx context.Context) {
	deadline := time.After(500 * time.Millisecond)
	tick := time.NewTicker(25 * time.Millisecond)
	defer tick.Stop()
	for len(c.q) > 0 {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			return
		case <-tick.C:
		}
	}
}

// Close stops the send loop. Queued events are abandoned.
func (c *Client) Close() { c.stop.Do(func() { close(c.done) }) }

func (c *Client) loop() {
	for {
		select {
		case <-c.done:
			return
		case ev := <-c.q:
			c.send(ev)
		}
	}
}

func (c *Client) send(ev event) {
	payload := map[string]any{
		"name":    ev.name,
		"ts":      ev.at.Format(time.RFC3339Nano),
		"version": version.String(),
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
	}
	for k, v := range ev.props {
		payload[k] = v
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	resp, err := c.http.Post(c.cfg.EventsURL, "application/json", bytes.NewReader(body))
	if err != nil {
		if c.cfg.DebugLogging {
			c.log.Debug("event send failed", slog.Any("err", err))
		}
		return
	}
	_ = resp.Body.Close()
	if c.cfg.DebugLogging {
		c.log.Debug("event sent", slog.String("name", ev.name))
	}
}

// UploadCrash posts a serialized crash report in a fire-and-forget goroutine.
// Gated on opt-in plus a configured crash URL; the events URL is not required.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	body := append([]byte(nil), report...)
	go func() {
		resp, err := c.http.Post(c.cfg.CrashURL, "text/plain; charset=utf-8", bytes.NewReader(body))
		if err != nil {
			if c.cfg.DebugLogging {
				c.log.Debug("crash upload failed", slog.Any("err", err))
			}
			return
		}
		_ = resp.Body.Close()
		if c.cfg.DebugLogging {
			c.log.Debug("crash report uploaded")
		}
	}()
}

// UploadCrash posts through the default client.
func UploadCrash(report []byte) { InitDefault(); defaultClient.UploadCrash(report) }
