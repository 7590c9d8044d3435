/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package symbol provides the catalog of placeable plan symbols. A builtin
// pack ships embedded in the binary; projects can override or extend it with
// YAML packs in their symbols/ directory. The catalog renders element content
// as standalone SVG markup and doubles as the scene's content source.
package symbol

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"gositeplan/internal/domain"
)

// ErrUnknownSymbol is returned when an element references a symbol id the
// catalog does not carry.
var ErrUnknownSymbol = errors.New("unknown symbol")

const svgNS = "http://www.w3.org/2000/svg"

// Def describes one catalog symbol: identity, intrinsic size in canvas
// units, rotation behavior, the default side for its address label, and the
// SVG fragment drawn inside the intrinsic viewbox.
type Def struct {
	ID          string  `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	Width       float64 `yaml:"width" json:"width"`
	Height      float64 `yaml:"height" json:"height"`
	Spins360    bool    `yaml:"spins360" json:"spins360,omitempty"`
	LabelAnchor string  `yaml:"label_anchor" json:"labelAnchor,omitempty"`
	SVG         string  `yaml:"svg" json:"svg"`
}

type packFile struct {
	Symbols []Def `yaml:"symbols"`
}

//go:embed symbols.yaml
var builtinPack []byte

// Catalog holds symbol definitions keyed by id. Insertion order is preserved
// for stable listings.
type Catalog struct {
	defs  map[string]Def
	order []string
}

// Builtin loads the embedded default pack.
func Builtin() (*Catalog, error) {
	c := &Catalog{defs: map[string]Def{}}
	if err := c.merge(builtinPack); err != nil {
		return nil, fmt.Errorf("builtin symbol pack: %w", err)
	}
	return c, nil
}

// LoadDir merges every YAML pack in dir over the current definitions,
// overriding by id. A missing directory is not an error; projects without
// custom symbols simply use the builtins.
func (c *Catalog) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read symbol dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("read symbol pack %s: %w", e.Name(), err)
		}
		if err := c.merge(data); err != nil {
			return fmt.Errorf("symbol pack %s: %w", e.Name(), err)
		}
	}
	return nil
}

func (c *Catalog) merge(data []byte) error {
	var pack packFile
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return err
	}
	for _, d := range pack.Symbols {
		if d.ID == "" {
			return fmt.Errorf("symbol with empty id")
		}
		if d.Width <= 0 || d.Height <= 0 {
			return fmt.Errorf("symbol %s: non-positive size", d.ID)
		}
		if _, seen := c.defs[d.ID]; !seen {
			c.order = append(c.order, d.ID)
		}
		c.defs[d.ID] = d
	}
	return nil
}

// Get returns the definition for id.
func (c *Catalog) Get(id string) (Def, bool) {
	d, ok := c.defs[id]
	return d, ok
}

// List returns all definitions in stable insertion order.
func (c *Catalog) List() []Def {
	out := make([]Def, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.defs[id])
	}
	return out
}

// NewElement creates an unpositioned-in-plan element for a catalog symbol at
// the given center. The plan assigns the id on append.
func NewElement(def Def, x, y float64) *domain.Element {
	return &domain.Element{
		Kind:        domain.KindSymbol,
		SymbolID:    def.ID,
		PosX:        x,
		PosY:        y,
		SizeX:       def.Width,
		SizeY:       def.Height,
		Scale:       1,
		Spins360:    def.Spins360,
		LabelAnchor: domain.LabelAnchor(def.LabelAnchor),
	}
}

// Markup serializes an element's content as a standalone SVG document sized
// to the scaled content. Rotation is not baked in; the scene applies it as a
// node transform, exporters via the spin matrix.
func (c *Catalog) Markup(el *domain.Element) (string, error) {
	switch el.Kind {
	case domain.KindSymbol:
		def, ok := c.defs[el.SymbolID]
		if !ok {
			return "", fmt.Errorf("symbol %q: %w", el.SymbolID, ErrUnknownSymbol)
		}
		w := el.SizeX * el.Scale
		h := el.SizeY * el.Scale
		return fmt.Sprintf(`<svg xmlns=%q width="%g" height="%g" viewBox="0 0 %g %g">%s</svg>`,
			svgNS, w, h, def.Width, def.Height, def.SVG), nil
	case domain.KindImage:
		if el.ImageRef == "" {
			return "", fmt.Errorf("image element %s: empty image ref", el.ID)
		}
		w := el.SizeX * el.Scale
		h := el.SizeY * el.Scale
		return fmt.Sprintf(`<svg xmlns=%q width="%g" height="%g"><image href=%q width="%g" height="%g"/></svg>`,
			svgNS, w, h, el.ImageRef, w, h), nil
	default:
		return "", fmt.Errorf("element %s: unsupported kind %q", el.ID, el.Kind)
	}
}

// Valid reports whether the element's content reference resolves: a known
// catalog id for symbols, a non-empty ref for images.
func (c *Catalog) Valid(el *domain.Element) bool {
	if el == nil {
		return false
	}
	switch el.Kind {
	case domain.KindSymbol:
		_, ok := c.defs[el.SymbolID]
		return ok
	case domain.KindImage:
		return el.ImageRef != ""
	default:
		return false
	}
}
