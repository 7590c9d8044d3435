/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"log/slog"
	"time"

	"gositeplan/internal/domain"
	"gositeplan/internal/geom"
)

// DefaultLabelPt is the label font size used for elements that do not carry
// their own.
const DefaultLabelPt float32 = 11

// Deps wires a Synchronizer to its collaborators. Tree, Input, Content and
// History are required; a nil Log falls back to slog.Default().
type Deps struct {
	Tree    Tree
	Input   Input
	Content ContentSource
	History History
	Log     *slog.Logger
}

// binding ties one element to its node pair plus the disposer for the box's
// press handler. Both directions of the element/node relationship live in
// the synchronizer's maps, never on the nodes themselves.
type binding struct {
	el      *domain.Element
	box     BoxNode
	label   LabelNode
	unwatch func()
}

// Synchronizer reconciles a plan against a view tree. It creates and removes
// nodes as elements come and go, diff-applies geometry so unchanged
// attributes are never rewritten, keeps at most one element selected, and
// turns pointer input into drags and checkpoints.
//
// All methods must run on the same goroutine that delivers input events;
// the synchronizer takes no locks.
type Synchronizer struct {
	plan *domain.Plan
	deps Deps

	bindings map[string]*binding
	byBox    map[BoxNode]string

	selected string
	zoom     float32
	labelPt  float32

	drag   DragSession
	scope  EventScope
	snap   *geom.SnapOptions
	guides []geom.GuideLine
}

// NewSynchronizer builds a synchronizer over the given plan and
// collaborators and registers its surface input handler. Close releases the
// handlers again.
func NewSynchronizer(plan *domain.Plan, deps Deps) *Synchronizer {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	s := &Synchronizer{
		plan:     plan,
		deps:     deps,
		bindings: make(map[string]*binding),
		byBox:    make(map[BoxNode]string),
		zoom:     1,
		labelPt:  DefaultLabelPt,
	}
	s.scope.Watch(deps.Input, nil, &surfaceHandler{s: s})
	return s
}

// Reconcile runs one full reconciliation pass: prune elements whose content
// no longer resolves, mount nodes for new elements in one batch, then walk
// the plan diffing content, geometry, label placement and page visibility
// onto the tree. A second pass with no model changes in between performs
// zero attribute writes.
func (s *Synchronizer) Reconcile() {
	started := time.Now()

	s.pruneInvalid()
	s.ensureNodes()
	for _, el := range s.plan.Elements {
		b := s.bindings[el.ID]
		if b == nil {
			continue
		}
		if el.Dirty {
			if markup, err := s.deps.Content.Markup(el); err != nil {
				s.deps.Log.Error("element content render failed",
					slog.String("id", el.ID), slog.Any("err", err))
			} else if contentChanged(b.box, markup) {
				b.box.SetMarkup(markup)
			}
			el.Dirty = false
		}
		s.applyGeometry(b)
	}

	s.deps.Log.Debug("scene reconciled",
		slog.Int("elements", len(s.plan.Elements)),
		slog.Duration("took", time.Since(started)))
}

// pruneInvalid drops elements whose content reference vanished, model first,
// then their bindings and nodes.
func (s *Synchronizer) pruneInvalid() {
	for _, el := range s.plan.Prune(s.deps.Content.Valid) {
		s.dropBinding(el.ID)
	}
}

// ensureNodes creates node pairs for elements that lack one, sets their
// initial content, registers the press handler, and mounts all new nodes in
// a single batch. Mounting precedes any geometry work because label
// measurement needs mounted nodes.
func (s *Synchronizer) ensureNodes() {
	var mount []Node
	for _, el := range s.plan.Elements {
		if _, ok := s.bindings[el.ID]; ok {
			continue
		}
		markup, err := s.deps.Content.Markup(el)
		if err != nil {
			s.deps.Log.Error("element content render failed",
				slog.String("id", el.ID), slog.Any("err", err))
			continue
		}
		b := &binding{el: el, box: s.deps.Tree.NewBox(), label: s.deps.Tree.NewLabel()}
		b.box.SetMarkup(markup)
		b.unwatch = s.scope.Watch(s.deps.Input, b.box, &boxPressHandler{s: s, box: b.box})
		s.bindings[el.ID] = b
		s.byBox[b.box] = el.ID
		el.Dirty = false
		mount = append(mount, b.box, b.label)
	}
	if len(mount) > 0 {
		s.deps.Tree.Mount(mount...)
	}
}

// contentChanged is the pure half of the dirty check; applying new markup is
// a separate step at the caller.
func contentChanged(box BoxNode, markup string) bool {
	return box.Markup() != markup
}

// applyGeometry diffs computed geometry onto the element's box in a fixed
// attribute order: left, top, width, height, spin, visibility, selection.
// The label follows.
func (s *Synchronizer) applyGeometry(b *binding) {
	el := b.el
	box := b.box
	r := geom.BoxBoundsOf(el)
	if box.Left() != r.X {
		box.SetLeft(r.X)
	}
	if box.Top() != r.Y {
		box.SetTop(r.Y)
	}
	if box.Width() != r.W {
		box.SetWidth(r.W)
	}
	if box.Height() != r.H {
		box.SetHeight(r.H)
	}
	if spin := geom.SpinOf(el); box.Spin() != spin {
		box.SetSpin(spin)
	}
	hidden := el.Page != s.plan.ActivePage
	if box.Hidden() != hidden {
		box.SetHidden(hidden)
	}
	if sel := el.ID == s.selected; box.Selected() != sel {
		box.SetSelected(sel)
	}
	s.applyLabel(b, hidden)
}

// applyLabel writes label text, font size and placement. Text and size land
// before the placement because placement reads the measured text size.
func (s *Synchronizer) applyLabel(b *binding, hidden bool) {
	lbl := b.label
	if lbl.Text() != b.el.Label {
		lbl.SetText(b.el.Label)
	}
	pt := s.labelPt
	if b.el.LabelFontPt > 0 {
		pt = float32(b.el.LabelFontPt)
	}
	if lbl.FontSize() != pt {
		lbl.SetFontSize(pt)
	}
	p := geom.PlaceLabelFor(b.el, lbl.TextSize())
	if lbl.Left() != p.Left {
		lbl.SetLeft(p.Left)
	}
	if lbl.Top() != p.Top {
		lbl.SetTop(p.Top)
	}
	if lbl.Hidden() != hidden {
		lbl.SetHidden(hidden)
	}
}

// Select marks the element's box selected and deselects the previous one.
// An empty or unknown id clears the selection.
func (s *Synchronizer) Select(id string) {
	if _, ok := s.bindings[id]; !ok {
		id = ""
	}
	if id == s.selected {
		return
	}
	if prev := s.bindings[s.selected]; prev != nil {
		prev.box.SetSelected(false)
	}
	s.selected = id
	if b := s.bindings[id]; b != nil {
		b.box.SetSelected(true)
	}
}

// Selected returns the selected element id, if any.
func (s *Synchronizer) Selected() (string, bool) {
	return s.selected, s.selected != ""
}

// DeleteSelected removes the selected element from the plan and its nodes
// from the tree, then records a checkpoint. Without a selection it does
// nothing.
func (s *Synchronizer) DeleteSelected() {
	id := s.selected
	if id == "" {
		return
	}
	s.dropBinding(id)
	s.plan.Remove(id)
	s.deps.History.Store()
}

// SendToBack moves the selected element to the bottom of the stack: every
// other element with a visual node shifts up one rank, the target takes rank
// zero, and the plan re-sorts by rank into the new draw order. No-op without
// a selection.
func (s *Synchronizer) SendToBack() {
	b := s.bindings[s.selected]
	if b == nil {
		return
	}
	for _, el := range s.plan.Elements {
		if el.ID == b.el.ID {
			continue
		}
		if _, ok := s.bindings[el.ID]; ok {
			el.ZIndex++
		}
	}
	b.el.ZIndex = 0
	s.plan.SortByRank()
	s.restack()
	s.deps.History.Store()
}

// BringToFront moves the selected element to the top of the stack by
// assigning it one more than the highest rank among the others. No-op
// without a selection; a selection whose binding has gone missing forces a
// full resync instead.
func (s *Synchronizer) BringToFront() {
	if s.selected == "" {
		return
	}
	b := s.bindings[s.selected]
	if b == nil {
		s.deps.Log.Error("selected element has no binding, forcing resync",
			slog.String("id", s.selected))
		s.ForceResync()
		return
	}
	maxRank := 0
	for _, el := range s.plan.Elements {
		if el.ID != b.el.ID && el.ZIndex > maxRank {
			maxRank = el.ZIndex
		}
	}
	b.el.ZIndex = maxRank + 1
	s.plan.SortByRank()
	s.restack()
	s.deps.History.Store()
}

// restack re-applies plan order to the tree. Trees that can reorder mounted
// nodes do so in place; others get a remove-and-remount of every bound pair.
func (s *Synchronizer) restack() {
	ns := make([]Node, 0, 2*len(s.bindings))
	for _, el := range s.plan.Elements {
		if b := s.bindings[el.ID]; b != nil {
			ns = append(ns, b.box, b.label)
		}
	}
	if len(ns) == 0 {
		return
	}
	if r, ok := s.deps.Tree.(Restacker); ok {
		r.Restack(ns...)
		return
	}
	s.deps.Tree.Remove(ns...)
	s.deps.Tree.Mount(ns...)
}

// ForceResync drops every binding and removes its nodes so the next
// Reconcile rebuilds the tree from the model alone. Selection and zoom
// survive; the rebuilt boxes pick the highlight back up.
func (s *Synchronizer) ForceResync() {
	keep := s.selected
	for id := range s.bindings {
		s.dropBinding(id)
	}
	clear(s.byBox)
	s.selected = keep
}

// dropBinding removes one element's nodes, press handler and registry
// entries, clearing the selection if it pointed at the element.
func (s *Synchronizer) dropBinding(id string) {
	b := s.bindings[id]
	if b == nil {
		return
	}
	if b.unwatch != nil {
		b.unwatch()
	}
	s.deps.Tree.Remove(b.box, b.label)
	delete(s.byBox, b.box)
	delete(s.bindings, id)
	if s.selected == id {
		s.selected = ""
	}
}

// SetZoom records the view zoom used to convert pointer deltas into canvas
// units. Values at or below zero are ignored.
func (s *Synchronizer) SetZoom(z float32) {
	if z <= 0 {
		return
	}
	s.zoom = z
}

// Zoom returns the active zoom factor.
func (s *Synchronizer) Zoom() float32 { return s.zoom }

// SetDefaultLabelSize overrides DefaultLabelPt for this synchronizer.
// Values at or below zero are ignored.
func (s *Synchronizer) SetDefaultLabelSize(pt float32) {
	if pt <= 0 {
		return
	}
	s.labelPt = pt
}

// EnableSnap turns on alignment snapping for drags.
func (s *Synchronizer) EnableSnap(opts geom.SnapOptions) {
	s.snap = &opts
}

// DisableSnap turns alignment snapping off, so drags land exactly where the
// pointer math puts them.
func (s *Synchronizer) DisableSnap() {
	s.snap = nil
	s.guides = nil
}

// Guides returns the alignment guides produced by the drag in progress, for
// the canvas to draw. Empty outside a snapping drag.
func (s *Synchronizer) Guides() []geom.GuideLine { return s.guides }

// Close removes all nodes and revokes every handler registered through the
// synchronizer's event scope. The synchronizer must not be used afterwards.
func (s *Synchronizer) Close() {
	s.ForceResync()
	s.scope.Revoke()
}

// dragTo writes a dragged origin back to the model as a center position and
// re-applies geometry. Snapping, when enabled, adjusts the candidate box
// between the raw drag math and the model write.
func (s *Synchronizer) dragTo(origin geom.Pt) {
	b := s.bindings[s.selected]
	if b == nil {
		return
	}
	if s.snap != nil {
		moving := geom.Rect{X: origin.X, Y: origin.Y, W: b.box.Width(), H: b.box.Height()}
		snapped, guides := geom.SnapToGuides(moving, s.snapTargets(b), *s.snap)
		origin = geom.Pt{X: snapped.X, Y: snapped.Y}
		s.guides = guides
	}
	c := geom.CenterForOriginOf(origin, b.el)
	b.el.PosX = float64(c.X)
	b.el.PosY = float64(c.Y)
	s.applyGeometry(b)
}

// snapTargets collects the boxes of the other bound elements on the active
// page, in plan order so snapping stays deterministic.
func (s *Synchronizer) snapTargets(moving *binding) []geom.SnapTarget {
	var ts []geom.SnapTarget
	for _, el := range s.plan.Elements {
		if el.ID == moving.el.ID || el.Page != s.plan.ActivePage {
			continue
		}
		if _, ok := s.bindings[el.ID]; !ok {
			continue
		}
		ts = append(ts, geom.SnapTarget{Rect: geom.BoxBoundsOf(el), Weight: 1})
	}
	return ts
}

// boxPressHandler starts selection and dragging for one box. It resolves the
// element through the synchronizer's reverse index rather than holding a
// model pointer of its own.
type boxPressHandler struct {
	s   *Synchronizer
	box BoxNode
}

func (h *boxPressHandler) HandlePointer(ev PointerEvent) {
	s := h.s
	if ev.Kind != PointerPress {
		s.deps.Log.Error("unexpected pointer kind on box",
			slog.String("kind", ev.Kind.String()))
		return
	}
	id, ok := s.byBox[h.box]
	if !ok {
		s.deps.Log.Error("pointer press on unbound box")
		return
	}
	s.Select(id)
	s.drag.Start(
		geom.Pt{X: ev.X, Y: ev.Y},
		geom.Pt{X: h.box.Left(), Y: h.box.Top()},
		s.zoom,
		geom.Size{W: h.box.Width(), H: h.box.Height()},
	)
}

// surfaceHandler routes surface-level input: moves and releases feed the
// active drag, a press on empty canvas clears the selection.
type surfaceHandler struct {
	s *Synchronizer
}

func (h *surfaceHandler) HandlePointer(ev PointerEvent) {
	s := h.s
	switch ev.Kind {
	case PointerPress:
		s.Select("")
	case PointerMove:
		if !s.drag.Active() {
			return
		}
		s.dragTo(s.drag.Update(geom.Pt{X: ev.X, Y: ev.Y}))
	case PointerRelease:
		if !s.drag.Active() {
			return
		}
		s.drag.End()
		s.guides = nil
		s.deps.History.Store()
	}
}
