/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"gositeplan/internal/geom"
	"gositeplan/internal/textlayout"
)

// MemTree is the headless render tree: it implements Tree, Input and
// Restacker over plain structs, measures labels through a textlayout
// provider, and counts every attribute write. The package tests observe the
// counter to prove reconciliation stays minimal, and the CLI uses the tree
// to validate plans without a display.
type MemTree struct {
	provider   textlayout.Provider
	nodes      []Node
	watches    []*memWatch
	writes     int
	writeLog   []string
	mountCalls int
}

type memWatch struct {
	n Node
	h PointerHandler
}

// NewMemTree returns an empty tree. A nil provider measures labels with the
// deterministic bitmap font.
func NewMemTree(provider textlayout.Provider) *MemTree {
	return &MemTree{provider: provider}
}

func (t *MemTree) NewBox() BoxNode {
	return &MemBox{memNode: memNode{tree: t}}
}

func (t *MemTree) NewLabel() LabelNode {
	return &MemLabel{memNode: memNode{tree: t}}
}

// Mount attaches the given nodes on top of the stack, in argument order.
// Already-mounted nodes stay where they are.
func (t *MemTree) Mount(ns ...Node) {
	t.mountCalls++
	for _, n := range ns {
		if t.indexOf(n) >= 0 {
			continue
		}
		if m, ok := n.(mountable); ok {
			m.setMounted(true)
		}
		t.nodes = append(t.nodes, n)
	}
}

// Remove detaches nodes without destroying them; a later Mount reattaches.
func (t *MemTree) Remove(ns ...Node) {
	for _, n := range ns {
		i := t.indexOf(n)
		if i < 0 {
			continue
		}
		if m, ok := n.(mountable); ok {
			m.setMounted(false)
		}
		t.nodes = append(t.nodes[:i], t.nodes[i+1:]...)
	}
}

// Restack reorders mounted nodes so the listed ones stack in argument order
// above any unlisted ones. Nodes that are not mounted are ignored.
func (t *MemTree) Restack(ns ...Node) {
	current := make(map[Node]bool, len(t.nodes))
	for _, n := range t.nodes {
		current[n] = true
	}
	listed := make(map[Node]bool, len(ns))
	for _, n := range ns {
		listed[n] = true
	}
	next := make([]Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		if !listed[n] {
			next = append(next, n)
		}
	}
	for _, n := range ns {
		if current[n] {
			next = append(next, n)
		}
	}
	t.nodes = next
}

// Watch registers a handler for a node, or for the surface when n is nil.
// The removal func may be called more than once.
func (t *MemTree) Watch(n Node, h PointerHandler) func() {
	w := &memWatch{n: n, h: h}
	t.watches = append(t.watches, w)
	return func() {
		for i, x := range t.watches {
			if x == w {
				t.watches = append(t.watches[:i], t.watches[i+1:]...)
				return
			}
		}
	}
}

// Dispatch routes one pointer event the way a canvas would: a press goes to
// the topmost visible box under the pointer that has a handler, everything
// else (and presses that hit no box) goes to the surface handlers.
func (t *MemTree) Dispatch(ev PointerEvent) {
	if ev.Kind == PointerPress {
		for i := len(t.nodes) - 1; i >= 0; i-- {
			box, ok := t.nodes[i].(*MemBox)
			if !ok || box.hidden || !box.contains(ev.X, ev.Y) {
				continue
			}
			if h := t.handlerFor(box); h != nil {
				h.HandlePointer(ev)
				return
			}
		}
	}
	for _, h := range t.surfaceHandlers() {
		h.HandlePointer(ev)
	}
}

// Writes returns the number of attribute writes since the last reset.
// Structural changes (mount, remove, restack) do not count.
func (t *MemTree) Writes() int { return t.writes }

// WriteLog returns the attribute names written since the last reset, in
// write order.
func (t *MemTree) WriteLog() []string { return t.writeLog }

// ResetWrites zeroes the write counter and clears the log.
func (t *MemTree) ResetWrites() {
	t.writes = 0
	t.writeLog = nil
}

// Mounted returns the number of mounted nodes.
func (t *MemTree) Mounted() int { return len(t.nodes) }

// MountCalls returns how often Mount has been called, batching included.
func (t *MemTree) MountCalls() int { return t.mountCalls }

func (t *MemTree) indexOf(n Node) int {
	for i, x := range t.nodes {
		if x == n {
			return i
		}
	}
	return -1
}

func (t *MemTree) handlerFor(n Node) PointerHandler {
	for _, w := range t.watches {
		if w.n == n {
			return w.h
		}
	}
	return nil
}

func (t *MemTree) surfaceHandlers() []PointerHandler {
	var hs []PointerHandler
	for _, w := range t.watches {
		if w.n == nil {
			hs = append(hs, w.h)
		}
	}
	return hs
}

type mountable interface {
	setMounted(bool)
}

// memNode carries the attributes shared by boxes and labels. Every setter
// bumps the tree's write counter, changed or not, so redundant writes by the
// synchronizer show up in tests.
type memNode struct {
	tree    *MemTree
	left    float32
	top     float32
	width   float32
	height  float32
	hidden  bool
	mounted bool
}

func (n *memNode) setMounted(v bool) { n.mounted = v }

func (n *memNode) write(attr string) {
	if n.tree != nil {
		n.tree.writes++
		n.tree.writeLog = append(n.tree.writeLog, attr)
	}
}

func (n *memNode) Left() float32       { return n.left }
func (n *memNode) SetLeft(v float32)   { n.write("left"); n.left = v }
func (n *memNode) Top() float32        { return n.top }
func (n *memNode) SetTop(v float32)    { n.write("top"); n.top = v }
func (n *memNode) Width() float32      { return n.width }
func (n *memNode) SetWidth(v float32)  { n.write("width"); n.width = v }
func (n *memNode) Height() float32     { return n.height }
func (n *memNode) SetHeight(v float32) { n.write("height"); n.height = v }
func (n *memNode) Hidden() bool        { return n.hidden }
func (n *memNode) SetHidden(v bool)    { n.write("hidden"); n.hidden = v }

// MemBox is the in-memory box node.
type MemBox struct {
	memNode
	markup   string
	spin     geom.Spin
	selected bool
}

func (b *MemBox) Markup() string      { return b.markup }
func (b *MemBox) SetMarkup(v string)  { b.write("markup"); b.markup = v }
func (b *MemBox) Spin() geom.Spin     { return b.spin }
func (b *MemBox) SetSpin(v geom.Spin) { b.write("spin"); b.spin = v }
func (b *MemBox) Selected() bool      { return b.selected }
func (b *MemBox) SetSelected(v bool)  { b.write("selected"); b.selected = v }

func (b *MemBox) contains(x, y float32) bool {
	return x >= b.left && x <= b.left+b.width && y >= b.top && y <= b.top+b.height
}

// MemLabel is the in-memory label node. TextSize measures the current text
// through the tree's provider and is zero until the node is mounted, which
// mirrors how a real canvas cannot measure detached text.
type MemLabel struct {
	memNode
	text     string
	fontSize float32
}

func (l *MemLabel) Text() string          { return l.text }
func (l *MemLabel) SetText(v string)      { l.write("text"); l.text = v }
func (l *MemLabel) FontSize() float32     { return l.fontSize }
func (l *MemLabel) SetFontSize(v float32) { l.write("fontsize"); l.fontSize = v }

func (l *MemLabel) TextSize() geom.Size {
	if !l.mounted {
		return geom.Size{}
	}
	var p textlayout.Provider
	if l.tree != nil {
		p = l.tree.provider
	}
	w, h := textlayout.MeasureLabel(p, l.text, textlayout.FontSpec{
		Family: textlayout.DefaultFamily,
		SizePt: l.fontSize,
		Weight: 400,
	})
	return geom.Size{W: w, H: h}
}
