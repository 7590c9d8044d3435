/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package undo keeps in-memory checkpoint stacks for plan pages. Snapshot
// blobs are opaque; callers decide what they serialize and how to apply one
// back. PlanHistory adapts the manager to the scene synchronizer's history
// contract and mirrors checkpoints to durable storage.
package undo

import (
	"sync"
	"time"
)

// Snapshot is one reversible state blob for a plan page.
// Blob content is opaque to the manager; size is estimated as len(Blob).
// Reason names the action that produced the checkpoint (open, edit, ...).
// TS is when the snapshot was captured.
type Snapshot struct {
	Plan   string
	Page   int
	Reason string
	Blob   []byte
	TS     time.Time
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap over all undo stacks; the oldest entries are
	// pruned when exceeded.
	MaxBytes int
	// MaxPerPage limits number of snapshots per plan page kept in memory (0 means unlimited).
	MaxPerPage int
	// MinInterval coalesces snapshots captured within the interval for the same plan page,
	// replacing the previous one instead of pushing a new entry.
	MinInterval time.Duration
}

type key struct {
	plan string
	page int
}

// Manager provides an in-memory undo/redo stack per plan page with
// performance safeguards. It is safe for concurrent use; the UI and the
// autosave timer push from different goroutines.
type Manager struct {
	cfg Config
	mu  sync.Mutex
	// per plan-page stacks
	undo map[key][]Snapshot
	redo map[key][]Snapshot
	// accounting; redo entries do not count toward MaxBytes
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	// Set conservative defaults if not provided
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	return &Manager{cfg: cfg, undo: make(map[key][]Snapshot), redo: make(map[key][]Snapshot)}
}

// Push records a snapshot. If within MinInterval from the last snapshot on
// the same plan page, it replaces the last one. Clears the redo stack for
// that plan page.
func (m *Manager) Push(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{s.Plan, s.Page}
	stack := m.undo[k]
	if n := len(stack); n > 0 {
		last := stack[n-1]
		if s.TS.Sub(last.TS) < m.cfg.MinInterval {
			// Coalesce: adjust accounting and replace
			m.totalBytes -= len(last.Blob)
			m.totalBytes += len(s.Blob)
			stack[n-1] = s
			m.undo[k] = stack
			m.redo[k] = nil
			m.enforceCapsLocked(k)
			return
		}
	}
	// Push new
	m.undo[k] = append(stack, s)
	m.totalBytes += len(s.Blob)
	// Any new change invalidates redo for the plan page
	m.redo[k] = nil
	m.enforceCapsLocked(k)
}

// Undo pops from the plan page's undo stack and pushes to its redo stack,
// returning the snapshot.
func (m *Manager) Undo(plan string, page int) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{plan, page}
	stack := m.undo[k]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	m.undo[k] = stack[:len(stack)-1]
	m.totalBytes -= len(s.Blob)
	m.redo[k] = append(m.redo[k], s)
	return s, true
}

// Redo pops from redo and pushes back to undo.
func (m *Manager) Redo(plan string, page int) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{plan, page}
	r := m.redo[k]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	m.redo[k] = r[:len(r)-1]
	m.undo[k] = append(m.undo[k], s)
	m.totalBytes += len(s.Blob)
	m.enforceCapsLocked(k)
	return s, true
}

// Peek returns the top of the plan page's undo stack without popping it.
func (m *Manager) Peek(plan string, page int) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[key{plan, page}]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	return stack[len(stack)-1], true
}

// Depths returns the undo and redo stack depths for a plan page.
func (m *Manager) Depths(plan string, page int) (undoDepth, redoDepth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{plan, page}
	return len(m.undo[k]), len(m.redo[k])
}

// ClearPlan clears undo/redo stacks for every page of a plan to free memory.
func (m *Manager) ClearPlan(plan string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, stack := range m.undo {
		if k.plan != plan {
			continue
		}
		for _, s := range stack {
			m.totalBytes -= len(s.Blob)
		}
		delete(m.undo, k)
	}
	for k := range m.redo {
		if k.plan == plan {
			delete(m.redo, k)
		}
	}
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, stacks int, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stacks = len(m.undo)
	for _, v := range m.undo {
		totalSnapshots += len(v)
	}
	return m.totalBytes, stacks, totalSnapshots
}

func (m *Manager) enforceCapsLocked(k key) {
	// Per plan-page depth cap
	if m.cfg.MaxPerPage > 0 {
		stack := m.undo[k]
		if len(stack) > m.cfg.MaxPerPage {
			// drop the oldest extras
			toDrop := len(stack) - m.cfg.MaxPerPage
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= len(stack[i].Blob)
			}
			m.undo[k] = append([]Snapshot{}, stack[toDrop:]...)
		}
	}
	// Global memory cap: prune oldest across all stacks
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes {
		var oldestKey key
		oldestIdx := -1
		var oldestTS time.Time
		for kk, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if oldestIdx == -1 || stack[0].TS.Before(oldestTS) {
				oldestKey = kk
				oldestIdx = 0
				oldestTS = stack[0].TS
			}
		}
		if oldestIdx == -1 {
			break
		}
		stack := m.undo[oldestKey]
		m.totalBytes -= len(stack[0].Blob)
		m.undo[oldestKey] = stack[1:]
		if len(m.undo[oldestKey]) == 0 {
			delete(m.undo, oldestKey)
		}
	}
}
