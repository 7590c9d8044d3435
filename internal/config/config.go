/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package config persists user preferences to a YAML file in the per-OS user
// config dir and layers read-only environment overrides on top. The backend
// token never touches the file; it lives in the OS keyring.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Theme          string `yaml:"theme"` // "system" | "light" | "dark"
	EnableServer   bool   `yaml:"enable_server"`
}

// SnapConfig controls drag snapping against other elements' edges and centers.
// Disabled by default so plain drags land exactly where the pointer puts them.
type SnapConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Threshold float64 `yaml:"threshold"` // canvas units
}

// CanvasConfig holds editor-canvas preferences.
type CanvasConfig struct {
	LabelFontPt  float64    `yaml:"label_font_pt"` // default address-label size in points
	DefaultPaper string     `yaml:"default_paper"` // export preset name, see internal/export
	Snap         SnapConfig `yaml:"snap"`
}

type BackendConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	TLSInsecure bool   `yaml:"tls_insecure"`
	// Token is not stored on disk; it lives in the OS keychain.
}

// Timeout converts TimeoutMs for http clients, falling back to the default
// for zero or negative values.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutMs <= 0 {
		return time.Duration(Defaults().Backend.TimeoutMs) * time.Millisecond
	}
	return time.Duration(b.TimeoutMs) * time.Millisecond
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// AppConfig is the whole user-editable configuration.
// config_version: bump on a backward-incompatible structure change.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Canvas        CanvasConfig  `yaml:"canvas"`
	Backend       BackendConfig `yaml:"backend"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, Theme: "system", EnableServer: false},
		Canvas:        CanvasConfig{LabelFontPt: 11, DefaultPaper: "A4", Snap: SnapConfig{Enabled: false, Threshold: 6}},
		Backend:       BackendConfig{BaseURL: "http://localhost:8080", TimeoutMs: 15000, TLSInsecure: false},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvBackendURL       = "GSP_BACKEND_URL"
	EnvBackendTimeoutMs = "GSP_BACKEND_TIMEOUT_MS"
	EnvBackendTLSInsec  = "GSP_TLS_INSECURE"
	EnvTelemetryOptIn   = "GSP_TELEMETRY_OPT_IN"
	EnvTheme            = "GSP_THEME"
	EnvEnableServer     = "GSP_ENABLE_SERVER"
	EnvSnapEnabled      = "GSP_SNAP"
	EnvLogLevel         = "GSP_LOG_LEVEL"
	EnvLogFormat        = "GSP_LOG_FORMAT"
	EnvLogSource        = "GSP_LOG_SOURCE"
	EnvLogFile          = "GSP_LOG_FILE"
)

// envBindings ties each overridable config key to its env var. The table
// drives both applyEnvOverrides and EnvOverrideFor so the two can not drift.
var envBindings = []struct {
	key   string
	env   string
	apply func(cfg *AppConfig, v string)
}{
	{"backend.base_url", EnvBackendURL, func(c *AppConfig, v string) { c.Backend.BaseURL = v }},
	{"backend.timeout_ms", EnvBackendTimeoutMs, func(c *AppConfig, v string) {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backend.TimeoutMs = n
		}
	}},
	{"backend.tls_insecure", EnvBackendTLSInsec, func(c *AppConfig, v string) { c.Backend.TLSInsecure = boolish(v) }},
	{"general.telemetry_opt_in", EnvTelemetryOptIn, func(c *AppConfig, v string) { c.General.TelemetryOptIn = boolish(v) }},
	{"general.theme", EnvTheme, func(c *AppConfig, v string) { c.General.Theme = strings.ToLower(v) }},
	{"general.enable_server", EnvEnableServer, func(c *AppConfig, v string) { c.General.EnableServer = boolish(v) }},
	{"canvas.snap.enabled", EnvSnapEnabled, func(c *AppConfig, v string) { c.Canvas.Snap.Enabled = boolish(v) }},
	{"logging.level", EnvLogLevel, func(c *AppConfig, v string) { c.Logging.Level = strings.ToLower(v) }},
	{"logging.format", EnvLogFormat, func(c *AppConfig, v string) { c.Logging.Format = strings.ToLower(v) }},
	{"logging.source", EnvLogSource, func(c *AppConfig, v string) { c.Logging.Source = boolish(v) }},
	{"logging.file", EnvLogFile, func(c *AppConfig, v string) { c.Logging.File = v }},
}

func applyEnvOverrides(cfg *AppConfig) {
	for _, b := range envBindings {
		if v := strings.TrimSpace(os.Getenv(b.env)); v != "" {
			b.apply(cfg, v)
		}
	}
}

// EnvOverrideFor reports which env var currently overrides the dotted config
// key, if any. The settings UI uses it to mark fields read-only.
func EnvOverrideFor(key string) (string, bool) {
	for _, b := range envBindings {
		if b.key == key && os.Getenv(b.env) != "" {
			return b.env, true
		}
	}
	return "", false
}

func boolish(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// ConfigPath returns the per-user config file path. The directory name is
// cased per platform convention (GoSitePlan on Windows/macOS, gositeplan
// elsewhere).
func ConfigPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	dir := "gositeplan"
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		dir = "GoSitePlan"
	}
	return filepath.Join(base, dir, "config.yaml"), nil
}

// Load reads the user config file when present, overlaying it onto the
// defaults, then applies env overrides. The backend token comes from the
// keyring and is returned separately, never kept inside the struct.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, readErr := os.ReadFile(path); readErr == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			// A half-applied file is worse than none.
			cfg = Defaults()
		}
		normalize(&cfg)
	}
	applyEnvOverrides(&cfg)
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the config YAML and, when non-empty, the token into the keyring.
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return fmt.Errorf("store backend token: %w", err)
		}
	}
	return nil
}

// normalize repairs empty or out-of-range values a hand-edited file can
// introduce: the yaml overlay writes whatever the file says, including
// explicit zeros.
func normalize(cfg *AppConfig) {
	def := Defaults()
	if cfg.ConfigVersion <= 0 {
		cfg.ConfigVersion = def.ConfigVersion
	}
	cfg.General.Theme = strings.ToLower(strings.TrimSpace(cfg.General.Theme))
	if cfg.General.Theme == "" {
		cfg.General.Theme = def.General.Theme
	}
	if cfg.Canvas.LabelFontPt <= 0 {
		cfg.Canvas.LabelFontPt = def.Canvas.LabelFontPt
	}
	cfg.Canvas.DefaultPaper = strings.TrimSpace(cfg.Canvas.DefaultPaper)
	if cfg.Canvas.DefaultPaper == "" {
		cfg.Canvas.DefaultPaper = def.Canvas.DefaultPaper
	}
	if cfg.Canvas.Snap.Threshold <= 0 {
		cfg.Canvas.Snap.Threshold = def.Canvas.Snap.Threshold
	}
	if strings.TrimSpace(cfg.Backend.BaseURL) == "" {
		cfg.Backend.BaseURL = def.Backend.BaseURL
	}
	if cfg.Backend.TimeoutMs <= 0 {
		cfg.Backend.TimeoutMs = def.Backend.TimeoutMs
	}
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	cfg.Logging.File = strings.TrimSpace(cfg.Logging.File)
}

// Service/keys for the OS keyring.
const (
	keyringService = "GoSitePlan"
	keyringToken   = "backend_token"
)

// TokenStore abstracts the keyring so tests can stub it.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

var tokenStore TokenStore = osKeyring{}

// osKeyring delegates to the keyringGet/Set/Delete funcs installed by the
// build-tagged shims (keyring_real.go, keyring_stub.go).
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyringGet(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyringSet(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyringDelete(service, key) }

var (
	keyringGet    func(service, key string) (string, error)
	keyringSet    func(service, key, value string) error
	keyringDelete func(service, key string) error
)
