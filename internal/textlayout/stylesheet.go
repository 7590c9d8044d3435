/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import "maps"

// StyleSheet resolves TextStyle presets across three scopes:
//   - Global: app defaults or builtins
//   - Project: styles defined by the open project
//   - Page: overrides specific to a single plan page
//
// Resolution precedence is Page > Project > Global > Builtin.
//
// This is an in-memory helper so UI and storage stay decoupled; callers
// populate the Project and Page maps as needed.
type StyleSheet struct {
	Global  map[string]TextStyle
	Project map[string]TextStyle
	Page    map[string]TextStyle
}

// NewStyleSheet creates a stylesheet with empty scopes and builtin styles
// copied into Global for convenience.
func NewStyleSheet() *StyleSheet {
	global := make(map[string]TextStyle)
	for _, name := range ListStyles() {
		if st, ok := GetStyle(name); ok {
			global[name] = st
		}
	}
	return &StyleSheet{
		Global:  global,
		Project: map[string]TextStyle{},
		Page:    map[string]TextStyle{},
	}
}

// WithProject returns a copy with the provided project-level overrides merged.
func (s *StyleSheet) WithProject(over map[string]TextStyle) *StyleSheet {
	return &StyleSheet{
		Global:  merged(s.Global, nil),
		Project: merged(s.Project, over),
		Page:    merged(s.Page, nil),
	}
}

// WithPage returns a copy with the provided page-level overrides merged.
func (s *StyleSheet) WithPage(over map[string]TextStyle) *StyleSheet {
	return &StyleSheet{
		Global:  merged(s.Global, nil),
		Project: merged(s.Project, nil),
		Page:    merged(s.Page, over),
	}
}

// merged copies base and lays over on top. The result is never nil, so the
// derived sheet stays mutable even when built from a zero StyleSheet.
func merged(base, over map[string]TextStyle) map[string]TextStyle {
	out := make(map[string]TextStyle, len(base)+len(over))
	maps.Copy(out, base)
	maps.Copy(out, over)
	return out
}

// Resolve returns the effective TextStyle by name using precedence
// Page > Project > Global > Builtin. The second return value is false when
// the name cannot be resolved at any level.
func (s *StyleSheet) Resolve(name string) (TextStyle, bool) {
	if s == nil {
		return TextStyle{}, false
	}
	for _, scope := range []map[string]TextStyle{s.Page, s.Project, s.Global} {
		if st, ok := scope[name]; ok {
			return st, true
		}
	}
	return GetStyle(name)
}

// Names returns the known style names across all scopes. Builtins come first
// in ListStyles order, then any additional names in scope order.
func (s *StyleSheet) Names() []string {
	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, name := range ListStyles() {
		if _, ok := s.Resolve(name); ok {
			add(name)
		}
	}
	for _, scope := range []map[string]TextStyle{s.Global, s.Project, s.Page} {
		for k := range scope {
			add(k)
		}
	}
	return out
}
