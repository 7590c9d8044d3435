/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Text measurement for address labels and annotation blocks. All measuring
// goes through the Provider interface so headless code (scene tests, SVG
// export) and real font rendering share the same numbers.

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family string // logical family name
	SizePt float32
	Weight int // 100..900
	Italic bool
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float32
}

// faceMetrics rounds a face's fixed-point metrics to whole pixels.
func faceMetrics(f font.Face) Metrics {
	m := f.Metrics()
	return Metrics{
		Ascent:  float32(m.Ascent.Round()),
		Descent: float32(m.Descent.Round()),
		LineGap: float32(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}

// Span is a run of text with the same font and spacing.
// Tracking is extra horizontal space per inter-glyph gap; Leading is extra
// vertical space added to the line height. Both in pixels.
type Span struct {
	Text     string
	Font     FontSpec
	Tracking float32
	Leading  float32
}

// Line is a single laid out line with width and ascent/descent.
type Line struct {
	Spans   []Span
	Width   float32
	Ascent  float32
	Descent float32
}

// TextBox is the result of laying out text into a box width.
type TextBox struct {
	Lines   []Line
	Width   float32
	Height  float32
	Metrics Metrics
}

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// Layouter performs line-breaking and measurement.
type Layouter interface {
	Layout(spans []Span, maxWidth float32) (TextBox, error)
}

// BasicProvider uses x/image/basicfont Face7x13. Every glyph is 7px wide,
// which makes measurements deterministic across platforms with no font
// files involved.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics) {
	return basicfont.Face7x13, faceMetrics(basicfont.Face7x13)
}

// WordWrapLayouter breaks on spaces; it does not shape or hyphenate.
// Exact enough for annotation blocks in exports and tests.
type WordWrapLayouter struct{ Provider Provider }

func NewWordWrap(provider Provider) *WordWrapLayouter { return &WordWrapLayouter{Provider: provider} }

func (l *WordWrapLayouter) Layout(spans []Span, maxWidth float32) (TextBox, error) {
	if l.Provider == nil {
		l.Provider = BasicProvider{}
	}
	// A single font per box keeps metrics aggregation simple; annotation
	// blocks never mix faces.
	face, met := l.Provider.Resolve(FontSpec{})
	b := newWrapState(face, met, maxWidth)
	for _, sp := range spans {
		if sp.Text == "" {
			continue
		}
		b.span(sp)
	}
	return b.finish(), nil
}

// wrapState accumulates lines while spans stream in. The current line's extra
// leading is the largest Leading of the spans that touched it.
type wrapState struct {
	drawer   *font.Drawer
	met      Metrics
	maxWidth float32
	box      TextBox
	cur      Line
	leading  float32
}

func newWrapState(face font.Face, met Metrics, maxWidth float32) *wrapState {
	return &wrapState{
		drawer:   &font.Drawer{Face: face},
		met:      met,
		maxWidth: maxWidth,
		box:      TextBox{Metrics: met},
		cur:      Line{Ascent: met.Ascent, Descent: met.Descent},
	}
}

// span feeds one input run: hard breaks on newlines, soft wrapping between
// words.
func (b *wrapState) span(sp Span) {
	if sp.Leading > b.leading {
		b.leading = sp.Leading
	}
	for n, hard := range strings.Split(sp.Text, "\n") {
		if n > 0 {
			b.endLine(sp.Leading)
		}
		b.wrapWords(hard, sp)
	}
}

// wrapWords lays one hard line's words onto the current line, breaking before
// a word that would overflow maxWidth. A word wider than maxWidth still gets
// a line of its own. Separator spaces keep their width and never wrap.
func (b *wrapState) wrapWords(line string, sp Span) {
	for n, word := range strings.Split(line, " ") {
		if n > 0 {
			b.put(" ", sp.Font, 0, b.width(" ", 0))
		}
		w := b.width(word, sp.Tracking)
		if b.cur.Width > 0 && b.maxWidth > 0 && b.cur.Width+w > b.maxWidth {
			b.endLine(sp.Leading)
		}
		if word != "" {
			b.put(word, sp.Font, sp.Tracking, w)
		}
	}
}

// endLine commits the current line to the box and starts a fresh one with the
// given leading in effect.
func (b *wrapState) endLine(leading float32) {
	b.box.Lines = append(b.box.Lines, b.cur)
	if b.cur.Width > b.box.Width {
		b.box.Width = b.cur.Width
	}
	b.box.Height += b.met.Ascent + b.met.Descent + b.met.LineGap + b.leading
	b.cur = Line{Ascent: b.met.Ascent, Descent: b.met.Descent}
	b.leading = leading
}

func (b *wrapState) put(text string, f FontSpec, tracking, w float32) {
	b.cur.Spans = append(b.cur.Spans, Span{Text: text, Font: f, Tracking: tracking})
	b.cur.Width += w
}

func (b *wrapState) width(s string, tracking float32) float32 {
	return advance(b.drawer, s) + trackingWidth(s, tracking)
}

// finish flushes the trailing line. Empty input still yields one line so the
// box has a height.
func (b *wrapState) finish() TextBox {
	if len(b.cur.Spans) > 0 || len(b.box.Lines) == 0 {
		b.endLine(0)
	}
	return b.box
}

func advance(d *font.Drawer, s string) float32 {
	return float32(d.MeasureString(s) >> 6) // fixed.Int26_6 to px
}

func trackingWidth(s string, tracking float32) float32 {
	if tracking == 0 {
		return 0
	}
	n := utf8.RuneCountInString(s)
	if n < 2 {
		return 0
	}
	return tracking * float32(n-1)
}

// Measure measures concatenated spans as one line without line-breaks.
func Measure(provider Provider, spans []Span) (w, h float32) {
	if provider == nil {
		provider = BasicProvider{}
	}
	_, met := provider.Resolve(FontSpec{})
	for _, sp := range spans {
		face, _ := provider.Resolve(sp.Font)
		d := &font.Drawer{Face: face}
		w += advance(d, sp.Text) + trackingWidth(sp.Text, sp.Tracking)
	}
	return w, met.Ascent + met.Descent
}

// MeasureLabel measures an address label, honoring embedded newlines.
// Width is the widest line; height stacks full line heights with the
// face's line gap between lines.
func MeasureLabel(provider Provider, text string, spec FontSpec) (w, h float32) {
	if provider == nil {
		provider = BasicProvider{}
	}
	face, met := provider.Resolve(spec)
	d := &font.Drawer{Face: face}
	lines := strings.Split(text, "\n")
	for _, ln := range lines {
		if lw := advance(d, ln); lw > w {
			w = lw
		}
	}
	n := float32(len(lines))
	return w, n*(met.Ascent+met.Descent) + (n-1)*met.LineGap
}
