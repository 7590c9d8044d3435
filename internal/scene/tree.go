/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package scene keeps a plan's view in step with its model. The Synchronizer
// owns the mapping between elements and the box/label nodes that display
// them and reconciles the two with minimal attribute writes. The render tree
// and input routing are interfaces, so the same engine drives the desktop
// canvas, headless tooling, and the in-memory tree the tests use.
package scene

import (
	"gositeplan/internal/domain"
	"gositeplan/internal/geom"
)

// Node is one mounted entry in a view tree. Implementations treat every
// setter as a potential redraw, so callers read first and write only values
// that actually changed.
type Node interface {
	Left() float32
	SetLeft(float32)
	Top() float32
	SetTop(float32)
	Width() float32
	SetWidth(float32)
	Height() float32
	SetHeight(float32)
	Hidden() bool
	SetHidden(bool)
}

// BoxNode displays one element: serialized vector content inside a padded
// frame, an applied spin transform, and a selection outline.
type BoxNode interface {
	Node
	Markup() string
	SetMarkup(string)
	Spin() geom.Spin
	SetSpin(geom.Spin)
	Selected() bool
	SetSelected(bool)
}

// LabelNode displays an element's address label. TextSize reports the
// measured extent of the current text at the current font size; the
// measurement is only meaningful once the node is mounted.
type LabelNode interface {
	Node
	Text() string
	SetText(string)
	FontSize() float32
	SetFontSize(float32)
	TextSize() geom.Size
}

// Tree creates and mounts nodes. NewBox and NewLabel return detached nodes;
// Mount attaches them in one batch, appending in paint order. Remove
// detaches without destroying, so a node may be mounted again later.
type Tree interface {
	NewBox() BoxNode
	NewLabel() LabelNode
	Mount(ns ...Node)
	Remove(ns ...Node)
}

// Restacker is an optional Tree extension. Trees that can reorder mounted
// nodes in place implement it; the z-order operations prefer it over a
// remove-and-remount round trip.
type Restacker interface {
	Restack(ns ...Node)
}

// PointerKind classifies a pointer event. Mouse and touch input are both
// normalized to these three kinds before they reach the engine.
type PointerKind int

const (
	PointerPress PointerKind = iota
	PointerMove
	PointerRelease
)

func (k PointerKind) String() string {
	switch k {
	case PointerPress:
		return "press"
	case PointerMove:
		return "move"
	case PointerRelease:
		return "release"
	}
	return "unknown"
}

// PointerEvent is one pointer interaction in canvas coordinates.
type PointerEvent struct {
	X, Y float32
	Kind PointerKind
}

// PointerHandler receives pointer events for a watched node.
type PointerHandler interface {
	HandlePointer(PointerEvent)
}

// Input routes pointer events. Watch registers a handler for events on a
// node, or on the whole surface when n is nil, and returns a removal func.
// Removal funcs tolerate being called more than once.
type Input interface {
	Watch(n Node, h PointerHandler) (remove func())
}

// ContentSource renders and vets element content. Markup serializes the
// visual content for an element at its current scale; Valid reports whether
// the element's content reference still resolves, so reconciliation can
// prune stale elements.
type ContentSource interface {
	Markup(el *domain.Element) (string, error)
	Valid(el *domain.Element) bool
}

// History is the checkpoint collaborator. Store snapshots the current model
// state after a committed mutation; the counts drive undo/redo affordances
// and nothing else.
type History interface {
	Store()
	UndoCount() int
	RedoCount() int
}

// EventScope collects handler disposers so everything registered through
// one scope can be revoked together on teardown.
type EventScope struct {
	disposers []func()
}

// Track adds a disposer to the scope.
func (s *EventScope) Track(d func()) {
	if d != nil {
		s.disposers = append(s.disposers, d)
	}
}

// Watch registers h for events on n and tracks the removal with the scope.
// The returned func removes the handler early; Revoke's later call is
// harmless because removal funcs are idempotent.
func (s *EventScope) Watch(in Input, n Node, h PointerHandler) func() {
	rm := in.Watch(n, h)
	s.Track(rm)
	return rm
}

// Revoke runs the tracked disposers in reverse registration order and
// empties the scope.
func (s *EventScope) Revoke() {
	for i := len(s.disposers) - 1; i >= 0; i-- {
		s.disposers[i]()
	}
	s.disposers = nil
}
