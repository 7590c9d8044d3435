/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package symbol

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gositeplan/internal/domain"
)

func TestBuiltinCatalog(t *testing.T) {
	c, err := Builtin()
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	defs := c.List()
	if len(defs) < 7 {
		t.Fatalf("expected at least 7 builtin symbols, got %d", len(defs))
	}
	if defs[0].ID != "outlet" {
		t.Fatalf("expected stable pack order, first = %q", defs[0].ID)
	}
	d, ok := c.Get("outlet")
	if !ok {
		t.Fatalf("outlet missing")
	}
	if !d.Spins360 {
		t.Fatalf("outlet should spin through 360")
	}
	if d.Width != 24 || d.Height != 24 {
		t.Fatalf("outlet size: got %gx%g", d.Width, d.Height)
	}
	if _, ok := c.Get("light"); !ok {
		t.Fatalf("light missing")
	}
}

func TestNewElementDefaults(t *testing.T) {
	c, err := Builtin()
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	d, _ := c.Get("light")
	el := NewElement(d, 120, 80)
	if el.Kind != domain.KindSymbol || el.SymbolID != "light" {
		t.Fatalf("identity: %+v", el)
	}
	if el.PosX != 120 || el.PosY != 80 {
		t.Fatalf("center: got (%g,%g)", el.PosX, el.PosY)
	}
	if el.SizeX != d.Width || el.SizeY != d.Height {
		t.Fatalf("intrinsic size: got %gx%g", el.SizeX, el.SizeY)
	}
	if el.Scale != 1 {
		t.Fatalf("scale: got %g want 1", el.Scale)
	}
	if el.Spins360 != d.Spins360 {
		t.Fatalf("spins360 not carried over")
	}
	if el.LabelAnchor != domain.AnchorBelow {
		t.Fatalf("anchor: got %q want below", el.LabelAnchor)
	}
}

func TestMarkupSymbolScales(t *testing.T) {
	c, err := Builtin()
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	d, _ := c.Get("outlet")
	el := NewElement(d, 0, 0)
	el.Scale = 2

	m, err := c.Markup(el)
	if err != nil {
		t.Fatalf("markup: %v", err)
	}
	if !strings.Contains(m, `width="48"`) || !strings.Contains(m, `height="48"`) {
		t.Fatalf("markup should carry the scaled size: %s", m)
	}
	if !strings.Contains(m, `viewBox="0 0 24 24"`) {
		t.Fatalf("markup should keep the intrinsic viewbox: %s", m)
	}

	// Markup must change when the scale changes so a dirty refresh has
	// something to compare.
	el.Scale = 3
	m2, err := c.Markup(el)
	if err != nil {
		t.Fatalf("markup: %v", err)
	}
	if m == m2 {
		t.Fatalf("scale change must change markup")
	}
}

func TestMarkupUnknownSymbol(t *testing.T) {
	c, err := Builtin()
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	el := &domain.Element{ID: "x", Kind: domain.KindSymbol, SymbolID: "no_such"}
	if _, err := c.Markup(el); !errors.Is(err, ErrUnknownSymbol) {
		t.Fatalf("expected ErrUnknownSymbol, got %v", err)
	}
}

func TestMarkupImage(t *testing.T) {
	c, err := Builtin()
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	el := domain.NewImageElement("assets/site.png", 200, 100, 50, 50)
	m, err := c.Markup(el)
	if err != nil {
		t.Fatalf("markup: %v", err)
	}
	if !strings.Contains(m, `<image href="assets/site.png"`) {
		t.Fatalf("expected image reference in markup: %s", m)
	}

	el.ImageRef = ""
	if _, err := c.Markup(el); err == nil {
		t.Fatalf("expected error for empty image ref")
	}
}

func TestValid(t *testing.T) {
	c, err := Builtin()
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	d, _ := c.Get("switch")
	if !c.Valid(NewElement(d, 0, 0)) {
		t.Fatalf("catalog symbol should be valid")
	}
	if c.Valid(&domain.Element{Kind: domain.KindSymbol, SymbolID: "gone"}) {
		t.Fatalf("unknown symbol should be invalid")
	}
	if c.Valid(&domain.Element{Kind: domain.KindImage}) {
		t.Fatalf("image without ref should be invalid")
	}
	if c.Valid(nil) {
		t.Fatalf("nil element should be invalid")
	}
}

func TestLoadDirOverridesAndExtends(t *testing.T) {
	c, err := Builtin()
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	dir := t.TempDir()
	pack := `symbols:
  - id: outlet
    name: Site outlet
    width: 30
    height: 30
    spins360: true
    svg: '<rect x="1" y="1" width="28" height="28" fill="none" stroke="#000"/>'
  - id: hydrant
    name: Hydrant
    width: 20
    height: 20
    label_anchor: right
    svg: '<circle cx="10" cy="10" r="8" fill="none" stroke="#000"/>'
`
	if err := os.WriteFile(filepath.Join(dir, "custom.yaml"), []byte(pack), 0o644); err != nil {
		t.Fatalf("write pack: %v", err)
	}
	if err := c.LoadDir(dir); err != nil {
		t.Fatalf("load dir: %v", err)
	}
	d, ok := c.Get("outlet")
	if !ok || d.Name != "Site outlet" || d.Width != 30 {
		t.Fatalf("override not applied: %+v", d)
	}
	if _, ok := c.Get("hydrant"); !ok {
		t.Fatalf("extension not applied")
	}
	// Overriding must not duplicate the listing entry.
	seen := 0
	for _, def := range c.List() {
		if def.ID == "outlet" {
			seen++
		}
	}
	if seen != 1 {
		t.Fatalf("outlet listed %d times", seen)
	}
}

func TestLoadDirMissingIsNoop(t *testing.T) {
	c, err := Builtin()
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	if err := c.LoadDir(filepath.Join(t.TempDir(), "nope")); err != nil {
		t.Fatalf("missing dir should be a no-op, got %v", err)
	}
}

func TestLoadDirRejectsBadPack(t *testing.T) {
	c, err := Builtin()
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	dir := t.TempDir()
	bad := "symbols:\n  - id: ''\n    width: 10\n    height: 10\n"
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(bad), 0o644); err != nil {
		t.Fatalf("write pack: %v", err)
	}
	if err := c.LoadDir(dir); err == nil {
		t.Fatalf("expected error for empty symbol id")
	}
}
