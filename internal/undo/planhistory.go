/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import "time"

// LocateFunc names the plan page edits currently target.
type LocateFunc func() (plan string, page int)

// CaptureFunc serializes the state a checkpoint preserves. An empty blob
// drops the checkpoint; the closure owns serialization failures.
type CaptureFunc func() []byte

// PersistFunc mirrors a pushed checkpoint to durable storage. The wiring
// side owns failure handling.
type PersistFunc func(Snapshot)

// PlanHistory adapts the manager to the synchronizer's history contract.
//
// Store captures the current state and pushes it, so stacks hold
// after-states: the oldest entry of a stack is the baseline recorded at
// load and never pops. Seed it with StoreReason("open") right after
// opening a plan page; until then there is nothing to undo back to and
// UndoCount stays 0.
type PlanHistory struct {
	mgr     *Manager
	at      LocateFunc
	capture CaptureFunc
	persist PersistFunc
	now     func() time.Time // test seam
}

func NewPlanHistory(mgr *Manager, at LocateFunc, capture CaptureFunc, persist PersistFunc) *PlanHistory {
	return &PlanHistory{mgr: mgr, at: at, capture: capture, persist: persist, now: time.Now}
}

// Store records an "edit" checkpoint for the active plan page.
func (h *PlanHistory) Store() { h.StoreReason("edit") }

// StoreReason records a checkpoint tagged with the action that caused it.
func (h *PlanHistory) StoreReason(reason string) {
	blob := h.capture()
	if len(blob) == 0 {
		return
	}
	plan, page := h.at()
	s := Snapshot{Plan: plan, Page: page, Reason: reason, Blob: blob, TS: h.now()}
	h.mgr.Push(s)
	if h.persist != nil {
		h.persist(s)
	}
}

// UndoCount reports how many steps back the active plan page can go. The
// baseline does not count.
func (h *PlanHistory) UndoCount() int {
	u, _ := h.mgr.Depths(h.at())
	if u <= 1 {
		return 0
	}
	return u - 1
}

// RedoCount reports how many undone steps can be re-applied.
func (h *PlanHistory) RedoCount() int {
	_, r := h.mgr.Depths(h.at())
	return r
}

// Undo steps the active plan page back one checkpoint and returns the blob
// to apply. The baseline never pops.
func (h *PlanHistory) Undo() ([]byte, bool) {
	plan, page := h.at()
	if u, _ := h.mgr.Depths(plan, page); u < 2 {
		return nil, false
	}
	if _, ok := h.mgr.Undo(plan, page); !ok {
		return nil, false
	}
	s, ok := h.mgr.Peek(plan, page)
	if !ok {
		return nil, false
	}
	return s.Blob, true
}

// Redo re-applies the most recently undone checkpoint, returning its blob.
func (h *PlanHistory) Redo() ([]byte, bool) {
	s, ok := h.mgr.Redo(h.at())
	if !ok {
		return nil, false
	}
	return s.Blob, true
}
