/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// TextStyle is a reusable preset combining a font spec with spacing
// parameters. Tracking and Leading are in pixels.
//
// Kerning is applied by the text engine (font.Drawer / Face.Kern) and stays
// always-on for deterministic results.

type TextStyle struct {
	Name     string
	Font     FontSpec
	Tracking float32 // px between glyphs (added per inter-glyph gap)
	Leading  float32 // extra px added to line height
}

var builtinStyles = map[string]TextStyle{
	// Sizes are in points. Projects can override per plan or page.
	// Label's 11pt matches the configured default for element labels.
	"Label": {
		Name:     "Label",
		Font:     FontSpec{Family: DefaultFamily, SizePt: 11, Weight: 400, Italic: false},
		Tracking: 0.0,
		Leading:  0.0,
	},
	"Title": {
		Name:     "Title",
		Font:     FontSpec{Family: DefaultFamily, SizePt: 16, Weight: 700, Italic: false},
		Tracking: 0.25,
		Leading:  2.0,
	},
	"Note": {
		Name:     "Note",
		Font:     FontSpec{Family: DefaultFamily, SizePt: 9, Weight: 400, Italic: true},
		Tracking: 0.0,
		Leading:  1.5,
	},
}

// GetStyle returns a builtin style preset by name. The second return value is false if
// the style is not found.
func GetStyle(name string) (TextStyle, bool) { s, ok := builtinStyles[name]; return s, ok }

// ListStyles lists the names of the builtin styles in stable order.
func ListStyles() []string {
	return []string{"Label", "Title", "Note"}
}
