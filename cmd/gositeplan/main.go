/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"gositeplan/internal/config"
	"gositeplan/internal/crash"
	applog "gositeplan/internal/log"
	"gositeplan/internal/storage"
	"gositeplan/internal/telemetry"
	"gositeplan/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "gositeplan",
	Short: "Paginated 2D site plan editor and exporter",
	Long: `gositeplan edits paginated site plans: symbol and image elements with
address labels, laid out on paper-sized pages, stored as a JSON manifest
with a SQLite search index. The desktop editor runs when built with
-tags fyne; every other subcommand works headless.`,
	Version:          version.String(),
	PersistentPreRun: setup,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gositeplan version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("gositeplan " + version.String())
	},
}

// appCfg holds the merged configuration for all subcommands. setup replaces
// the defaults before any Run function executes.
var appCfg = config.Defaults()

// activeHandle is whatever project a subcommand has open, so a crash report
// can attempt an emergency save of it.
var activeHandle *storage.ProjectHandle

func init() {
	rootCmd.AddCommand(versionCmd)
}

func setup(cmd *cobra.Command, args []string) {
	cfg, _, err := config.Load()
	if err != nil {
		applog.WithComponent("cli").Warn("config load failed, using defaults", slog.Any("err", err))
	}
	appCfg = cfg
	telemetry.NewDefault(telemetry.FromEnv().WithOptIn(appCfg.General.TelemetryOptIn))
	telemetry.Event("cli.start", map[string]any{"cmd": cmd.Name()})
}

// openHandle opens the project at dir and registers it for crash recovery.
func openHandle(dir string) (*storage.ProjectHandle, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	h, err := storage.Open(abs)
	if err != nil {
		return nil, err
	}
	activeHandle = h
	return h, nil
}

func fail(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", a...)
	os.Exit(1)
}

func main() {
	applog.Init(applog.FromEnv())
	defer func() { crash.Recover(activeHandle) }()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
