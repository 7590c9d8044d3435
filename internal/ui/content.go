/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package ui is the desktop editor shell. The Fyne implementation lives
// behind the fyne and cgo build tags; headless builds get a stub Run so CI
// never needs a display. Helpers in this file are tag-free and shared by the
// real UI and its tests.
package ui

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"gositeplan/internal/domain"
	"gositeplan/internal/geom"
)

const canvasSVGNS = "http://www.w3.org/2000/svg"

// displayMarkup prepares an element's markup for on-screen rendering. A spun
// element is wrapped in an outer document sized to the rotated bounds with
// the markup nested inside a rotate/mirror group, the same transform the
// exporters emit, so screen and export agree on orientation. The identity
// spin passes the markup through untouched.
func displayMarkup(markup string, content geom.Size, spin geom.Spin) string {
	if spin.IsIdentity() || markup == "" {
		return markup
	}
	rb := geom.RotatedBounds(content, spin.Degrees)
	tr := fmt.Sprintf("translate(%g %g)", rb.W/2, rb.H/2)
	if spin.Degrees != 0 {
		tr += fmt.Sprintf(" rotate(%g)", spin.Degrees)
	}
	if spin.Mirror {
		tr += " scale(-1 1)"
	}
	tr += fmt.Sprintf(" translate(%g %g)", -content.W/2, -content.H/2)
	return fmt.Sprintf(`<svg xmlns=%q width="%g" height="%g"><g transform=%q>%s</g></svg>`,
		canvasSVGNS, rb.W, rb.H, tr, markup)
}

// clipboardMarker distinguishes our payloads from arbitrary clipboard text.
const clipboardMarker = "gositeplan/element"

// clipboardPayload is the JSON envelope for copying an element through the
// system clipboard. Plain JSON keeps paste working across processes.
type clipboardPayload struct {
	App     string         `json:"app"`
	Element domain.Element `json:"element"`
}

// encodeElementPayload serializes an element for the clipboard.
func encodeElementPayload(el domain.Element) (string, error) {
	b, err := json.MarshalIndent(clipboardPayload{App: clipboardMarker, Element: el}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode element for clipboard: %w", err)
	}
	return string(b), nil
}

// decodeElementPayload parses a clipboard string produced by
// encodeElementPayload. The returned element has its id cleared so appending
// it to a plan assigns a fresh one.
func decodeElementPayload(s string) (*domain.Element, error) {
	var p clipboardPayload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return nil, fmt.Errorf("clipboard does not hold an element: %w", err)
	}
	if p.App != clipboardMarker {
		return nil, fmt.Errorf("clipboard does not hold a site plan element")
	}
	el := p.Element
	el.ID = ""
	return &el, nil
}

// imageSize reads the pixel dimensions of an image file without decoding the
// full raster. PNG, JPEG and GIF are registered.
func imageSize(path string) (w, h float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("read image header %s: %w", path, err)
	}
	return float64(cfg.Width), float64(cfg.Height), nil
}
