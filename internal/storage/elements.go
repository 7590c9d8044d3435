/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"fmt"

	"gositeplan/internal/domain"
)

// Manifest mutation helpers shared by the CLI and the backend. They edit the
// in-memory project only; the caller decides when to Save.

// EnsurePlan returns a pointer to the named plan, creating it if it does not
// exist yet. An empty name resolves to the first plan (single-plan projects).
func EnsurePlan(ph *ProjectHandle, name string) (*domain.Plan, error) {
	if ph == nil {
		return nil, fmt.Errorf("project handle is nil")
	}
	if name == "" {
		return ph.Project.FirstPlan(), nil
	}
	if pl := ph.Project.PlanByName(name); pl != nil {
		return pl, nil
	}
	ph.Project.Plans = append(ph.Project.Plans, domain.NewPlan(name))
	return &ph.Project.Plans[len(ph.Project.Plans)-1], nil
}

// FindPlan resolves a plan by name without creating it. An empty name picks
// the only plan when the project has exactly one.
func FindPlan(ph *ProjectHandle, name string) (*domain.Plan, error) {
	if ph == nil {
		return nil, fmt.Errorf("project handle is nil")
	}
	if name == "" {
		if len(ph.Project.Plans) == 1 {
			return &ph.Project.Plans[0], nil
		}
		return nil, fmt.Errorf("project has %d plans, name one", len(ph.Project.Plans))
	}
	if pl := ph.Project.PlanByName(name); pl != nil {
		return pl, nil
	}
	return nil, fmt.Errorf("plan %q not found", name)
}

// AddElement appends the element to the named plan's z-stack. Page 0 lands on
// the plan's active page; out-of-range pages are rejected.
func AddElement(ph *ProjectHandle, planName string, el *domain.Element) (*domain.Element, error) {
	pl, err := EnsurePlan(ph, planName)
	if err != nil {
		return nil, err
	}
	if el.Page < 0 || el.Page > pl.NumPages {
		return nil, fmt.Errorf("page %d out of range 1..%d", el.Page, pl.NumPages)
	}
	if el.ID != "" {
		if _, dup := pl.ByID(el.ID); dup {
			return nil, fmt.Errorf("element id %s already exists on plan %q", el.ID, pl.Name)
		}
	}
	return pl.Append(el), nil
}

// RemoveElement deletes the element from the named plan.
func RemoveElement(ph *ProjectHandle, planName, id string) error {
	pl, err := FindPlan(ph, planName)
	if err != nil {
		return err
	}
	if !pl.Remove(id) {
		return fmt.Errorf("element %s not found on plan %q", id, pl.Name)
	}
	return nil
}

// SetElementLabel updates an element's address label and anchor.
func SetElementLabel(ph *ProjectHandle, planName, id, label string, anchor domain.LabelAnchor) error {
	pl, err := FindPlan(ph, planName)
	if err != nil {
		return err
	}
	el, ok := pl.ByID(id)
	if !ok {
		return fmt.Errorf("element %s not found on plan %q", id, pl.Name)
	}
	el.Label = label
	el.LabelAnchor = anchor
	return nil
}
