/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"github.com/spf13/cobra"

	"gositeplan/internal/ui"
)

var uiCmd = &cobra.Command{
	Use:   "ui [dir]",
	Short: "Launch the desktop editor",
	Long:  "Open the Fyne desktop editor, optionally on the project at [dir]. Build with -tags fyne (and cgo) for the full UI; without the tag this prints build instructions.",
	Args:  cobra.MaximumNArgs(1),
	Run:   runUI,
}

func init() {
	rootCmd.AddCommand(uiCmd)
}

func runUI(cmd *cobra.Command, args []string) {
	dir := ""
	if len(args) == 1 {
		dir = args[0]
	}
	if err := ui.Run(dir); err != nil {
		fail("%v", err)
	}
}
