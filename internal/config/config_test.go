/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

// overlay applies a config file body the way Load does.
func overlay(t *testing.T, body string) AppConfig {
	t.Helper()
	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(body), &cfg); err != nil {
		t.Fatalf("unmarshal config: %v", err)
	}
	normalize(&cfg)
	return cfg
}

func TestFileOverlayKeepsDefaultsForAbsentFields(t *testing.T) {
	cfg := overlay(t, "general:\n  enable_server: true\n")
	if !cfg.General.EnableServer {
		t.Fatalf("enable_server not taken from file")
	}
	def := Defaults()
	if cfg.Canvas != def.Canvas || cfg.Backend != def.Backend || cfg.Logging != def.Logging {
		t.Fatalf("absent sections should stay at defaults: %+v", cfg)
	}
}

func TestFileOverlayCanvasAndLogging(t *testing.T) {
	cfg := overlay(t, `
canvas:
  label_font_pt: 14
  default_paper: A3
  snap:
    enabled: true
    threshold: 12
logging:
  level: DEBUG
  format: json
  source: true
  file: C:/tmp/gsp.log
`)
	if cfg.Canvas.LabelFontPt != 14 || cfg.Canvas.DefaultPaper != "A3" {
		t.Fatalf("canvas not overlaid: %+v", cfg.Canvas)
	}
	if !cfg.Canvas.Snap.Enabled || cfg.Canvas.Snap.Threshold != 12 {
		t.Fatalf("snap not overlaid: %+v", cfg.Canvas.Snap)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "C:/tmp/gsp.log" {
		t.Fatalf("logging not overlaid or normalized: %+v", cfg.Logging)
	}
}

func TestNormalizeRepairsHandEditedValues(t *testing.T) {
	cfg := overlay(t, `
config_version: 0
general:
  theme: " Dark "
canvas:
  label_font_pt: 0
  default_paper: "  "
  snap:
    threshold: -3
backend:
  base_url: ""
  timeout_ms: -1
`)
	def := Defaults()
	if cfg.ConfigVersion != def.ConfigVersion {
		t.Fatalf("config_version not repaired: %d", cfg.ConfigVersion)
	}
	if cfg.General.Theme != "dark" {
		t.Fatalf("theme not normalized: %q", cfg.General.Theme)
	}
	if cfg.Canvas.LabelFontPt != def.Canvas.LabelFontPt || cfg.Canvas.DefaultPaper != def.Canvas.DefaultPaper {
		t.Fatalf("canvas zeros not repaired: %+v", cfg.Canvas)
	}
	if cfg.Canvas.Snap.Threshold != def.Canvas.Snap.Threshold {
		t.Fatalf("snap threshold not repaired: %v", cfg.Canvas.Snap.Threshold)
	}
	if cfg.Backend.BaseURL != def.Backend.BaseURL || cfg.Backend.TimeoutMs != def.Backend.TimeoutMs {
		t.Fatalf("backend zeros not repaired: %+v", cfg.Backend)
	}
}

func TestEnvOverridesBackendURL(t *testing.T) {
	t.Setenv(EnvBackendURL, "https://example.test:8443")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Backend.BaseURL, "https://example.test:8443"; got != want {
		t.Fatalf("Backend.BaseURL = %q, want %q", got, want)
	}
	if name, ok := EnvOverrideFor("backend.base_url"); !ok || name != EnvBackendURL {
		t.Fatalf("EnvOverrideFor(backend.base_url) = %q, %v", name, ok)
	}
}

func TestEnvOverridesBooleansAndSnap(t *testing.T) {
	t.Setenv(EnvTelemetryOptIn, "true")
	t.Setenv(EnvEnableServer, "yes")
	t.Setenv(EnvSnapEnabled, "on")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.General.TelemetryOptIn || !cfg.General.EnableServer || !cfg.Canvas.Snap.Enabled {
		t.Fatalf("boolean env overrides not applied: %+v", cfg)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	t.Setenv(EnvLogLevel, "ERROR")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "X:/gsp.log")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/gsp.log" {
		t.Fatalf("env overrides not applied to logging: %+v", cfg.Logging)
	}
}

func TestEnvOverrideForAbsentVar(t *testing.T) {
	t.Setenv(EnvTheme, "")
	if name, ok := EnvOverrideFor("general.theme"); ok {
		t.Fatalf("no override expected, got %q", name)
	}
	if _, ok := EnvOverrideFor("not.a.key"); ok {
		t.Fatalf("unknown key must not report an override")
	}
}

func TestBackendTimeout(t *testing.T) {
	if got := (BackendConfig{TimeoutMs: 2500}).Timeout(); got != 2500*time.Millisecond {
		t.Fatalf("Timeout() = %v", got)
	}
	if got := (BackendConfig{}).Timeout(); got != 15*time.Second {
		t.Fatalf("zero TimeoutMs should fall back to default, got %v", got)
	}
}
