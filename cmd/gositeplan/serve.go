/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gositeplan/internal/backend"
	"gositeplan/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the read-mostly sharing backend (HTTP over Postgres)",
	Long: `Start the HTTP backend that serves published plan snapshots and label
search to other clients. The server is opt-in: enable it with
general.enable_server in the config file or ` + config.EnvEnableServer + `=1.
The database comes from GSP_PG_DSN (or DATABASE_URL), the bind address
from ADDR or PORT; the default is :8080.`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	if !appCfg.General.EnableServer {
		fail("the backend server is disabled; set general.enable_server: true or %s=1", config.EnvEnableServer)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := backend.Start(ctx); err != nil {
		fail("serve: %v", err)
	}
}
