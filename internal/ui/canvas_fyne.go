//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"gositeplan/internal/geom"
	"gositeplan/internal/scene"
)

var (
	backdropColor  = color.RGBA{R: 30, G: 30, B: 34, A: 255}
	pageStroke     = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	gridColor      = color.RGBA{R: 213, G: 217, B: 222, A: 255}
	boxStroke      = color.RGBA{R: 128, G: 134, B: 140, A: 150}
	selectedStroke = color.RGBA{R: 0, G: 170, B: 255, A: 255}
	guideColor     = color.RGBA{R: 255, G: 122, B: 0, A: 220}
	labelColor     = color.RGBA{R: 22, G: 26, B: 30, A: 255}
)

// PlanCanvas shows one plan page and routes pointer gestures to the scene
// synchronizer. It implements scene.Tree, scene.Restacker and scene.Input
// over plain Fyne canvas objects: each element is a frame rectangle plus a
// markup image, each label a canvas.Text. Node geometry is kept in canvas
// units; only the renderer and hit testing apply zoom and pan.
type PlanCanvas struct {
	widget.BaseWidget
	// Interaction
	zoom    float32
	offsetX float32
	offsetY float32
	// Geometry (canvas units, pt at 72dpi)
	pageW    float32
	pageH    float32
	gridStep float32
	showGrid bool

	// Scene nodes in paint order plus pointer routing state
	nodes   []planNode
	watches []*canvasWatch
	gesture gestureMode
	lastPos fyne.Position

	// Guides supplies the live snap guides for the overlay, when set.
	Guides func() []geom.GuideLine
	// OnPointer is told which pointer kinds were dispatched so the shell can
	// refresh undo counts after presses and releases.
	OnPointer func(scene.PointerKind)
	// OnZoom is told about wheel zoom changes so the synchronizer keeps its
	// drag math in step.
	OnZoom func(float32)
}

// planNode is a mounted node whose screen placement the renderer drives.
type planNode interface {
	scene.Node
	setMounted(bool)
	place(origin fyne.Position, zoom float32)
	visuals() []fyne.CanvasObject
}

type canvasWatch struct {
	n scene.Node
	h scene.PointerHandler
}

// gestureMode tracks what the current drag gesture is doing.
// gestureIdle: no drag; gesturePan: background pan; gestureElement: an
// element drag being forwarded as pointer events.
type gestureMode int

const (
	gestureIdle gestureMode = iota
	gesturePan
	gestureElement
)

func NewPlanCanvas() *PlanCanvas {
	pc := &PlanCanvas{
		zoom:     0.5,
		pageW:    595, // A4 portrait width in pt (72dpi)
		pageH:    842, // A4 portrait height in pt
		gridStep: 50,
		showGrid: true,
	}
	pc.ExtendBaseWidget(pc)
	return pc
}

// PreferredSize sets a decent default size for the widget.
func (p *PlanCanvas) PreferredSize() fyne.Size { return fyne.NewSize(800, 600) }

// SetPaper switches the page outline to the given paper size in points.
func (p *PlanCanvas) SetPaper(w, h float32) {
	if w > 0 {
		p.pageW = w
	}
	if h > 0 {
		p.pageH = h
	}
	p.Refresh()
}

// PaperSize returns the page outline in points.
func (p *PlanCanvas) PaperSize() (w, h float32) { return p.pageW, p.pageH }

// SetGridVisible toggles the page grid overlay.
func (p *PlanCanvas) SetGridVisible(v bool) {
	p.showGrid = v
	p.Refresh()
}

// GridVisible reports whether the page grid overlay is on.
func (p *PlanCanvas) GridVisible() bool { return p.showGrid }

// Zoom returns the current view zoom.
func (p *PlanCanvas) Zoom() float32 { return p.zoom }

// SetZoom clamps and applies a new zoom, notifying OnZoom.
func (p *PlanCanvas) SetZoom(z float32) {
	if z < 0.1 {
		z = 0.1
	}
	if z > 4.0 {
		z = 4.0
	}
	if z == p.zoom {
		return
	}
	p.zoom = z
	if p.OnZoom != nil {
		p.OnZoom(z)
	}
	p.Refresh()
}

// ResetView recenters the page and restores the default zoom.
func (p *PlanCanvas) ResetView() {
	p.offsetX = 0
	p.offsetY = 0
	p.SetZoom(0.5)
	p.Refresh()
}

// scene.Tree

func (p *PlanCanvas) NewBox() scene.BoxNode { return newCanvasBox() }

func (p *PlanCanvas) NewLabel() scene.LabelNode { return newCanvasLabel() }

// Mount attaches the given nodes on top of the stack, in argument order.
// Already-mounted nodes stay where they are.
func (p *PlanCanvas) Mount(ns ...scene.Node) {
	for _, n := range ns {
		pn, ok := n.(planNode)
		if !ok || p.indexOf(pn) >= 0 {
			continue
		}
		pn.setMounted(true)
		p.nodes = append(p.nodes, pn)
	}
	p.Refresh()
}

// Remove detaches nodes without destroying them; a later Mount reattaches.
func (p *PlanCanvas) Remove(ns ...scene.Node) {
	for _, n := range ns {
		pn, ok := n.(planNode)
		if !ok {
			continue
		}
		i := p.indexOf(pn)
		if i < 0 {
			continue
		}
		pn.setMounted(false)
		p.nodes = append(p.nodes[:i], p.nodes[i+1:]...)
	}
	p.Refresh()
}

// Restack reorders mounted nodes so the listed ones stack in argument order
// above any unlisted ones. Nodes that are not mounted are ignored.
func (p *PlanCanvas) Restack(ns ...scene.Node) {
	current := make(map[scene.Node]bool, len(p.nodes))
	for _, n := range p.nodes {
		current[scene.Node(n)] = true
	}
	listed := make(map[scene.Node]bool, len(ns))
	for _, n := range ns {
		listed[n] = true
	}
	next := make([]planNode, 0, len(p.nodes))
	for _, n := range p.nodes {
		if !listed[scene.Node(n)] {
			next = append(next, n)
		}
	}
	for _, n := range ns {
		if pn, ok := n.(planNode); ok && current[n] {
			next = append(next, pn)
		}
	}
	p.nodes = next
	p.Refresh()
}

// Watch registers a handler for a node, or for the surface when n is nil.
// The removal func may be called more than once.
func (p *PlanCanvas) Watch(n scene.Node, h scene.PointerHandler) func() {
	w := &canvasWatch{n: n, h: h}
	p.watches = append(p.watches, w)
	return func() {
		for i, x := range p.watches {
			if x == w {
				p.watches = append(p.watches[:i], p.watches[i+1:]...)
				return
			}
		}
	}
}

func (p *PlanCanvas) indexOf(n planNode) int {
	for i, x := range p.nodes {
		if x == n {
			return i
		}
	}
	return -1
}

func (p *PlanCanvas) handlerFor(n scene.Node) scene.PointerHandler {
	for _, w := range p.watches {
		if w.n == n {
			return w.h
		}
	}
	return nil
}

// Pointer routing

// dispatch routes one pointer event the way the scene package expects: a
// press goes to the topmost visible box under the pointer that has a
// handler, everything else (and presses that hit no box) goes to the
// surface handlers.
func (p *PlanCanvas) dispatch(ev scene.PointerEvent) {
	delivered := false
	if ev.Kind == scene.PointerPress {
		if box := p.boxUnder(fyne.NewPos(ev.X, ev.Y)); box != nil {
			p.handlerFor(box).HandlePointer(ev)
			delivered = true
		}
	}
	if !delivered {
		for _, w := range p.watches {
			if w.n == nil {
				w.h.HandlePointer(ev)
			}
		}
	}
	p.Refresh()
	if p.OnPointer != nil {
		p.OnPointer(ev.Kind)
	}
}

// boxUnder finds the topmost visible box with a handler under a screen
// position. Boxes without handlers fall through to the ones below.
func (p *PlanCanvas) boxUnder(pos fyne.Position) *canvasBox {
	for i := len(p.nodes) - 1; i >= 0; i-- {
		box, ok := p.nodes[i].(*canvasBox)
		if !ok || box.Hidden() || !p.hitsBox(box, pos) {
			continue
		}
		if p.handlerFor(box) != nil {
			return box
		}
	}
	return nil
}

func (p *PlanCanvas) hitsBox(b *canvasBox, pos fyne.Position) bool {
	cx, cy, s := p.pageOriginAndScale()
	x := cx + b.left*s
	y := cy + b.top*s
	return pos.X >= x && pos.X <= x+b.width*s && pos.Y >= y && pos.Y <= y+b.height*s
}

// pageOriginAndScale maps canvas units to screen: the page is centered in
// the widget, shifted by the pan offset, scaled by zoom.
func (p *PlanCanvas) pageOriginAndScale() (cx, cy, scale float32) {
	size := p.Size()
	scaledW := p.pageW * p.zoom
	scaledH := p.pageH * p.zoom
	cx = size.Width/2 - scaledW/2 + p.offsetX
	cy = size.Height/2 - scaledH/2 + p.offsetY
	return cx, cy, p.zoom
}

// Tapped forwards a bare press. No synthetic release follows: Fyne only
// reports a tap when the pointer did not drag, and a release without a drag
// would record spurious undo checkpoints.
func (p *PlanCanvas) Tapped(e *fyne.PointEvent) {
	p.dispatch(scene.PointerEvent{X: e.Position.X, Y: e.Position.Y, Kind: scene.PointerPress})
}

// Dragged classifies the gesture on its first event by where it started: on
// a handled box it becomes an element drag and replays press then moves; on
// empty space it pans the view and dispatches nothing, so panning never
// clears the selection.
func (p *PlanCanvas) Dragged(e *fyne.DragEvent) {
	pos := e.Position
	if p.gesture == gestureIdle {
		start := fyne.NewPos(pos.X-e.Dragged.DX, pos.Y-e.Dragged.DY)
		if p.boxUnder(start) != nil {
			p.gesture = gestureElement
			p.dispatch(scene.PointerEvent{X: start.X, Y: start.Y, Kind: scene.PointerPress})
		} else {
			p.gesture = gesturePan
		}
	}
	switch p.gesture {
	case gesturePan:
		p.offsetX += e.Dragged.DX
		p.offsetY += e.Dragged.DY
		p.Refresh()
	case gestureElement:
		p.lastPos = pos
		p.dispatch(scene.PointerEvent{X: pos.X, Y: pos.Y, Kind: scene.PointerMove})
	}
}

func (p *PlanCanvas) DragEnd() {
	if p.gesture == gestureElement {
		p.dispatch(scene.PointerEvent{X: p.lastPos.X, Y: p.lastPos.Y, Kind: scene.PointerRelease})
	}
	p.gesture = gestureIdle
}

// Scrolled zooms on the wheel. Fyne v2.6 does not expose modifier keys on
// ScrollEvent, so the wheel always zooms.
func (p *PlanCanvas) Scrolled(e *fyne.ScrollEvent) {
	step := float32(e.Scrolled.DY) * 0.05
	p.SetZoom(p.zoom + step)
}

// CreateRenderer builds the backdrop and page objects; grid, guide and node
// visuals are pooled and placed during layout.
func (p *PlanCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(backdropColor)
	page := canvas.NewRectangle(color.White)
	page.StrokeColor = pageStroke
	page.StrokeWidth = 2
	return &planCanvasRenderer{pc: p, bg: bg, page: page}
}

// planCanvasRenderer positions every visual from the widget state: page
// outline, grid, element nodes in paint order, snap guides on top.
type planCanvasRenderer struct {
	pc        *PlanCanvas
	bg, page  *canvas.Rectangle
	gridPool  []*canvas.Line
	guidePool []*canvas.Line
}

func (r *planCanvasRenderer) Destroy()           {}
func (r *planCanvasRenderer) MinSize() fyne.Size { return r.pc.PreferredSize() }
func (r *planCanvasRenderer) Refresh()           { r.Layout(r.pc.Size()); canvas.Refresh(r.pc) }

// Objects rebuilds the draw list on demand; the node set changes with every
// page switch, so a static list would go stale.
func (r *planCanvasRenderer) Objects() []fyne.CanvasObject {
	objs := []fyne.CanvasObject{r.bg, r.page}
	for _, l := range r.gridPool {
		objs = append(objs, l)
	}
	for _, n := range r.pc.nodes {
		objs = append(objs, n.visuals()...)
	}
	for _, l := range r.guidePool {
		objs = append(objs, l)
	}
	return objs
}

func (r *planCanvasRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))

	scaledW := r.pc.pageW * r.pc.zoom
	scaledH := r.pc.pageH * r.pc.zoom
	cx := size.Width/2 - scaledW/2 + r.pc.offsetX
	cy := size.Height/2 - scaledH/2 + r.pc.offsetY
	origin := fyne.NewPos(cx, cy)

	r.page.Resize(fyne.NewSize(scaledW, scaledH))
	r.page.Move(origin)

	r.layoutGrid(origin, scaledW, scaledH)
	for _, n := range r.pc.nodes {
		n.place(origin, r.pc.zoom)
	}
	r.layoutGuides(origin)
}

type lineSeg struct{ a, b fyne.Position }

func (r *planCanvasRenderer) layoutGrid(origin fyne.Position, scaledW, scaledH float32) {
	var segs []lineSeg
	if r.pc.showGrid && r.pc.gridStep > 0 {
		for x := r.pc.gridStep; x < r.pc.pageW; x += r.pc.gridStep {
			sx := origin.X + x*r.pc.zoom
			segs = append(segs, lineSeg{a: fyne.NewPos(sx, origin.Y), b: fyne.NewPos(sx, origin.Y+scaledH)})
		}
		for y := r.pc.gridStep; y < r.pc.pageH; y += r.pc.gridStep {
			sy := origin.Y + y*r.pc.zoom
			segs = append(segs, lineSeg{a: fyne.NewPos(origin.X, sy), b: fyne.NewPos(origin.X+scaledW, sy)})
		}
	}
	r.gridPool = placeLines(r.gridPool, segs, gridColor, 1)
}

func (r *planCanvasRenderer) layoutGuides(origin fyne.Position) {
	var guides []geom.GuideLine
	if r.pc.Guides != nil {
		guides = r.pc.Guides()
	}
	segs := make([]lineSeg, 0, len(guides))
	for _, g := range guides {
		segs = append(segs, lineSeg{
			a: fyne.NewPos(origin.X+g.From.X*r.pc.zoom, origin.Y+g.From.Y*r.pc.zoom),
			b: fyne.NewPos(origin.X+g.To.X*r.pc.zoom, origin.Y+g.To.Y*r.pc.zoom),
		})
	}
	r.guidePool = placeLines(r.guidePool, segs, guideColor, 1)
}

// placeLines grows a line pool to cover the segments and hides the surplus.
func placeLines(pool []*canvas.Line, segs []lineSeg, c color.Color, width float32) []*canvas.Line {
	for len(pool) < len(segs) {
		l := canvas.NewLine(c)
		l.StrokeWidth = width
		pool = append(pool, l)
	}
	for i, s := range segs {
		l := pool[i]
		l.Position1 = s.a
		l.Position2 = s.b
		l.Show()
		l.Refresh()
	}
	for i := len(segs); i < len(pool); i++ {
		pool[i].Hide()
	}
	return pool
}

// canvasBox is the visual pair for one element: a selectable frame and the
// element markup rendered as an SVG image sized to the spun content bounds.
type canvasBox struct {
	frame *canvas.Rectangle
	img   *canvas.Image

	left, top     float32
	width, height float32
	hidden        bool
	mounted       bool

	markup   string
	spin     geom.Spin
	selected bool
	gen      int
}

func newCanvasBox() *canvasBox {
	frame := canvas.NewRectangle(color.RGBA{})
	frame.StrokeColor = boxStroke
	frame.StrokeWidth = 1
	img := canvas.NewImageFromResource(nil)
	img.FillMode = canvas.ImageFillStretch
	img.Hide()
	return &canvasBox{frame: frame, img: img}
}

func (b *canvasBox) setMounted(v bool) { b.mounted = v }

func (b *canvasBox) visuals() []fyne.CanvasObject { return []fyne.CanvasObject{b.frame, b.img} }

func (b *canvasBox) Left() float32     { return b.left }
func (b *canvasBox) SetLeft(v float32) { b.left = v }
func (b *canvasBox) Top() float32      { return b.top }
func (b *canvasBox) SetTop(v float32)  { b.top = v }
func (b *canvasBox) Width() float32    { return b.width }

func (b *canvasBox) SetWidth(v float32) {
	b.width = v
	if !b.spin.IsIdentity() {
		b.refreshContent()
	}
}

func (b *canvasBox) Height() float32 { return b.height }

func (b *canvasBox) SetHeight(v float32) {
	b.height = v
	if !b.spin.IsIdentity() {
		b.refreshContent()
	}
}

func (b *canvasBox) Hidden() bool      { return b.hidden }
func (b *canvasBox) SetHidden(v bool)  { b.hidden = v }
func (b *canvasBox) Markup() string    { return b.markup }
func (b *canvasBox) Spin() geom.Spin   { return b.spin }
func (b *canvasBox) Selected() bool    { return b.selected }
func (b *canvasBox) SetSelected(v bool) {
	b.selected = v
}

func (b *canvasBox) SetMarkup(v string) {
	b.markup = v
	b.refreshContent()
}

func (b *canvasBox) SetSpin(v geom.Spin) {
	if v == b.spin {
		return
	}
	b.spin = v
	b.refreshContent()
}

// contentSize is the unpadded markup extent; the frame carries the selection
// pad around it.
func (b *canvasBox) contentSize() geom.Size {
	w := b.width - 2*geom.SelectionPad
	h := b.height - 2*geom.SelectionPad
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return geom.Size{W: w, H: h}
}

// refreshContent rebuilds the image resource from markup and spin. The
// resource name carries a generation counter because Fyne caches rasters by
// name.
func (b *canvasBox) refreshContent() {
	if b.markup == "" {
		b.img.Resource = nil
		return
	}
	doc := displayMarkup(b.markup, b.contentSize(), b.spin)
	b.gen++
	b.img.Resource = fyne.NewStaticResource(fmt.Sprintf("element-%p-%d.svg", b, b.gen), []byte(doc))
}

func (b *canvasBox) place(origin fyne.Position, zoom float32) {
	if b.hidden {
		b.frame.Hide()
		b.img.Hide()
		return
	}
	x := origin.X + b.left*zoom
	y := origin.Y + b.top*zoom
	w := b.width * zoom
	h := b.height * zoom
	if b.selected {
		b.frame.StrokeColor = selectedStroke
		b.frame.StrokeWidth = 2
	} else {
		b.frame.StrokeColor = boxStroke
		b.frame.StrokeWidth = 1
	}
	b.frame.Resize(fyne.NewSize(w, h))
	b.frame.Move(fyne.NewPos(x, y))
	b.frame.Show()
	b.frame.Refresh()

	if b.img.Resource == nil {
		b.img.Hide()
		return
	}
	content := b.contentSize()
	rb := geom.RotatedBounds(content, b.spin.Degrees)
	cw := rb.W * zoom
	ch := rb.H * zoom
	b.img.Resize(fyne.NewSize(cw, ch))
	b.img.Move(fyne.NewPos(x+w/2-cw/2, y+h/2-ch/2))
	b.img.Show()
	b.img.Refresh()
}

// canvasLabel is the visual for one element label.
type canvasLabel struct {
	text *canvas.Text

	left, top     float32
	width, height float32
	hidden        bool
	mounted       bool
	fontPt        float32
}

func newCanvasLabel() *canvasLabel {
	t := canvas.NewText("", labelColor)
	t.Hide()
	return &canvasLabel{text: t, fontPt: scene.DefaultLabelPt}
}

func (l *canvasLabel) setMounted(v bool) { l.mounted = v }

func (l *canvasLabel) visuals() []fyne.CanvasObject { return []fyne.CanvasObject{l.text} }

func (l *canvasLabel) Left() float32        { return l.left }
func (l *canvasLabel) SetLeft(v float32)    { l.left = v }
func (l *canvasLabel) Top() float32         { return l.top }
func (l *canvasLabel) SetTop(v float32)     { l.top = v }
func (l *canvasLabel) Width() float32       { return l.width }
func (l *canvasLabel) SetWidth(v float32)   { l.width = v }
func (l *canvasLabel) Height() float32      { return l.height }
func (l *canvasLabel) SetHeight(v float32)  { l.height = v }
func (l *canvasLabel) Hidden() bool         { return l.hidden }
func (l *canvasLabel) SetHidden(v bool)     { l.hidden = v }
func (l *canvasLabel) Text() string         { return l.text.Text }
func (l *canvasLabel) SetText(v string)     { l.text.Text = v }
func (l *canvasLabel) FontSize() float32    { return l.fontPt }
func (l *canvasLabel) SetFontSize(v float32) {
	l.fontPt = v
}

// TextSize measures the label at its unzoomed font size, in canvas units.
// Detached labels measure zero, mirroring that a real canvas cannot measure
// unmounted text.
func (l *canvasLabel) TextSize() geom.Size {
	if !l.mounted || l.text.Text == "" {
		return geom.Size{}
	}
	sz := fyne.MeasureText(l.text.Text, l.fontPt, l.text.TextStyle)
	return geom.Size{W: sz.Width, H: sz.Height}
}

func (l *canvasLabel) place(origin fyne.Position, zoom float32) {
	if l.hidden || l.text.Text == "" {
		l.text.Hide()
		return
	}
	l.text.TextSize = l.fontPt * zoom
	l.text.Move(fyne.NewPos(origin.X+l.left*zoom, origin.Y+l.top*zoom))
	l.text.Show()
	l.text.Refresh()
}
