/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the core data model structures for the site plan editor.
// A project holds one or more plans; a plan is a paginated z-ordered list of
// placed elements (catalog symbols or imported images), each carrying an
// address label. The model serializes to a human-readable JSON manifest.

// Project represents a site plan project and its metadata.
type Project struct {
	Name     string   `json:"name"`
	Metadata Metadata `json:"metadata,omitempty"`
	Plans    []Plan   `json:"plans"`
	Assets   []Asset  `json:"assets,omitempty"`
}

// Metadata contains optional descriptive metadata for a project.
type Metadata struct {
	Site   string `json:"site,omitempty"`
	Client string `json:"client,omitempty"`
	Author string `json:"author,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// Plan is one drawing: an ordered element list whose index order is the
// z-stack (bottom to top), split across one or more pages.
type Plan struct {
	Name       string     `json:"name"`
	NumPages   int        `json:"numPages"`   // always >= 1
	ActivePage int        `json:"activePage"` // 1-based, within [1, NumPages]
	Elements   []*Element `json:"elements"`
}

// ElementKind distinguishes catalog symbols from imported images.
type ElementKind string

const (
	KindSymbol ElementKind = "symbol"
	KindImage  ElementKind = "image"
)

// LabelAnchor names the side of an element its address label attaches to.
// The empty string is treated as AnchorCenter.
type LabelAnchor string

const (
	AnchorLeft   LabelAnchor = "left"
	AnchorRight  LabelAnchor = "right"
	AnchorAbove  LabelAnchor = "above"
	AnchorBelow  LabelAnchor = "below"
	AnchorCenter LabelAnchor = "center"
)

// Normalize maps the empty anchor to AnchorCenter.
func (a LabelAnchor) Normalize() LabelAnchor {
	if a == "" {
		return AnchorCenter
	}
	return a
}

// Element is one placed item on a plan. Position is the element center in
// canvas units; SizeX/SizeY are the intrinsic (unscaled) content size.
// Rotation is stored in degrees exactly as entered, unnormalized; wrapping
// and mirroring happen only when the applied transform is computed.
//
// Elements carry no references to render nodes. The view layer keeps an
// id-indexed registry instead, so the model stays serializable and the
// association survives a full scene rebuild.
type Element struct {
	ID       string      `json:"id"`
	Kind     ElementKind `json:"kind"`
	SymbolID string      `json:"symbolId,omitempty"` // catalog key, Kind == KindSymbol
	ImageRef string      `json:"imageRef,omitempty"` // project-relative asset path, Kind == KindImage

	PosX     float64 `json:"posX"`
	PosY     float64 `json:"posY"`
	SizeX    float64 `json:"sizeX"`
	SizeY    float64 `json:"sizeY"`
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
	Page     int     `json:"page"`

	// Spins360 allows rotation through the full circle with mirrored
	// appearance in the back half ([90,270)). Catalog definitions set it
	// per symbol; imported images may opt in.
	Spins360 bool `json:"spins360,omitempty"`

	Label       string      `json:"label,omitempty"`
	LabelAnchor LabelAnchor `json:"labelAnchor,omitempty"`
	LabelFontPt float64     `json:"labelFontPt,omitempty"` // 0 = configured default

	// ZIndex is the stacking rank. The z-order operations rewrite ranks and
	// then consume them into list order; between operations the list order
	// is authoritative.
	ZIndex int `json:"zIndex"`

	// Dirty marks the element for a content refresh on the next
	// reconciliation pass. Never persisted.
	Dirty bool `json:"-"`
}

// Asset describes an external resource referenced by a plan, e.g. an
// imported background image.
type Asset struct {
	Type    string `json:"type"` // image, ref
	Path    string `json:"path"`
	License string `json:"license,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// Rendering primitives shared by exporters.

type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

type Stroke struct {
	Color Color   `json:"color"`
	Width float64 `json:"width"`
}

var (
	Black = Color{A: 255}
	White = Color{R: 255, G: 255, B: 255, A: 255}
)
