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

import (
	"testing"
	"time"
)

func TestClearPlanAndStats(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024, MaxPerPage: 10, MinInterval: time.Millisecond})
	t0 := time.Now()
	m.Push(Snapshot{Plan: "site", Page: 1, Blob: []byte("abcdef"), TS: t0})
	m.Push(Snapshot{Plan: "site", Page: 2, Blob: []byte("ghijkl"), TS: t0.Add(5 * time.Millisecond)})
	m.Push(Snapshot{Plan: "annex", Page: 1, Blob: []byte("mnopqr"), TS: t0.Add(10 * time.Millisecond)})
	tb, stacks, total := m.Stats()
	if tb != 18 || stacks != 3 || total != 3 {
		t.Fatalf("unexpected stats before clear: tb=%d stacks=%d total=%d", tb, stacks, total)
	}
	m.ClearPlan("site")
	tb2, stacks2, total2 := m.Stats()
	if tb2 != 6 || stacks2 != 1 || total2 != 1 {
		t.Fatalf("expected only annex left, got tb=%d stacks=%d total=%d", tb2, stacks2, total2)
	}
	if _, ok := m.Undo("annex", 1); !ok {
		t.Fatalf("annex stack should survive clearing site")
	}
}

func TestGlobalPruneAcrossStacks(t *testing.T) {
	// Very small MaxBytes so pruning triggers across plan pages
	m := NewManager(Config{MaxBytes: 8, MaxPerPage: 0, MinInterval: time.Millisecond})
	t0 := time.Now()
	// Page 1 older snapshot
	m.Push(Snapshot{Plan: "site", Page: 1, Blob: []byte("xxxx"), TS: t0})
	// Page 2 newer snapshot
	m.Push(Snapshot{Plan: "site", Page: 2, Blob: []byte("yyyy"), TS: t0.Add(time.Second)})

	// Add another snapshot to exceed cap and force prune of the oldest stack head
	m.Push(Snapshot{Plan: "site", Page: 2, Blob: []byte("zzzz"), TS: t0.Add(2 * time.Second)})

	// After pruning, oldest (page 1) should be removed
	_, stacks, total := m.Stats()
	if stacks == 0 || total == 0 {
		t.Fatalf("expected some snapshots to remain")
	}
	// Undo page 1 should now be empty
	if _, ok := m.Undo("site", 1); ok {
		t.Fatalf("expected page 1 to have been pruned")
	}
	// Undo page 2 should still work
	if _, ok := m.Undo("site", 2); !ok {
		t.Fatalf("expected page 2 to have snapshots")
	}
}
