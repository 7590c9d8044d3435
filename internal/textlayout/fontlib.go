/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// DefaultFamily is the logical family every install can resolve. It maps to
// the embedded Go Regular face, so exports produce identical label widths on
// machines with no fonts installed.
const DefaultFamily = "Go"

const regularWeight = 400

// FontLibrary stores loaded OpenType fonts mapped by family/weight/italic.
// A minimal in-memory library; named instances and variations beyond weight
// and italic flags are not supported.
type FontLibrary struct {
	fonts map[fontKey]*opentype.Font
}

type fontKey struct {
	family string
	weight int
	italic bool
}

func NewFontLibrary() *FontLibrary { return &FontLibrary{fonts: make(map[fontKey]*opentype.Font)} }

// DefaultLibrary returns a library seeded with the embedded Go Regular face
// under DefaultFamily. Project fonts can be layered on top with LoadTTF.
func DefaultLibrary() *FontLibrary {
	lib := NewFontLibrary()
	_ = lib.register(DefaultFamily, regularWeight, false, goregular.TTF)
	return lib
}

// LoadTTF loads a font file into the library under the given family/weight/italic.
func (fl *FontLibrary) LoadTTF(family string, weight int, italic bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	if err := fl.register(family, weight, italic, data); err != nil {
		return fmt.Errorf("parse font %s: %w", path, err)
	}
	return nil
}

func (fl *FontLibrary) register(family string, weight int, italic bool, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return err
	}
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*opentype.Font)
	}
	fl.fonts[fontKey{family: family, weight: weight, italic: italic}] = f
	return nil
}

// find resolves a spec to a loaded font: exact variant, then any variant of
// the family, then the default family. Nil when the library is empty.
func (fl *FontLibrary) find(spec FontSpec) *opentype.Font {
	if fl == nil || len(fl.fonts) == 0 {
		return nil
	}
	if f, ok := fl.fonts[fontKey{family: spec.Family, weight: spec.Weight, italic: spec.Italic}]; ok {
		return f
	}
	if f := fl.anyVariant(spec.Family); f != nil {
		return f
	}
	return fl.anyVariant(DefaultFamily)
}

// anyVariant returns some loaded variant of the family, preferring upright
// regular so the pick does not depend on map order.
func (fl *FontLibrary) anyVariant(family string) *opentype.Font {
	if f, ok := fl.fonts[fontKey{family: family, weight: regularWeight}]; ok {
		return f
	}
	for k, f := range fl.fonts {
		if k.family == family {
			return f
		}
	}
	return nil
}

// OTProvider resolves FontSpec using a FontLibrary and falls back to another
// Provider. Kerning comes from opentype.Face via font.Drawer.
type OTProvider struct {
	Lib      *FontLibrary
	DPI      float64 // default 72 if zero
	Fallback Provider
}

func (p OTProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	if spec.SizePt <= 0 {
		spec.SizePt = 12
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}
	if f := p.Lib.find(spec); f != nil {
		opts := &opentype.FaceOptions{Size: float64(spec.SizePt), DPI: dpi, Hinting: font.HintingFull}
		if face, err := opentype.NewFace(f, opts); err == nil {
			return face, faceMetrics(face)
		}
	}
	if p.Fallback != nil {
		return p.Fallback.Resolve(spec)
	}
	return BasicProvider{}.Resolve(spec)
}
