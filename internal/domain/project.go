/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// PlanByName returns a pointer into the project's plan slice, or nil.
func (p *Project) PlanByName(name string) *Plan {
	for i := range p.Plans {
		if p.Plans[i].Name == name {
			return &p.Plans[i]
		}
	}
	return nil
}

// FirstPlan returns the first plan, creating one when the project is empty.
// Convenience for single-plan projects, which is the common case.
func (p *Project) FirstPlan() *Plan {
	if len(p.Plans) == 0 {
		p.Plans = append(p.Plans, NewPlan("plan"))
	}
	return &p.Plans[0]
}

// Normalize repairs recoverable manifest defects in place: missing page
// counts, out-of-range active pages, zero scales, elements parked on pages
// that no longer exist, and missing element ids. Hand-edited manifests and
// older files pass through here on open and save.
func (p *Project) Normalize() {
	for i := range p.Plans {
		pl := &p.Plans[i]
		if pl.NumPages < 1 {
			pl.NumPages = 1
		}
		for _, el := range pl.Elements {
			if el.Page > pl.NumPages {
				pl.NumPages = el.Page
			}
			if el.Page < 1 {
				el.Page = 1
			}
			if el.Scale <= 0 {
				el.Scale = 1
			}
			if el.ID == "" {
				el.ID = uuid.NewString()
			}
		}
		if pl.ActivePage < 1 {
			pl.ActivePage = 1
		}
		if pl.ActivePage > pl.NumPages {
			pl.ActivePage = pl.NumPages
		}
	}
}

// Validate checks every plan and rejects duplicate plan names.
func (p *Project) Validate() error {
	seen := make(map[string]struct{}, len(p.Plans))
	for i := range p.Plans {
		pl := &p.Plans[i]
		if _, dup := seen[pl.Name]; dup {
			return fmt.Errorf("duplicate plan name %q", pl.Name)
		}
		seen[pl.Name] = struct{}{}
		if err := pl.Validate(); err != nil {
			return err
		}
	}
	return nil
}
