/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// NewPlan returns an empty plan with a single active page.
func NewPlan(name string) Plan {
	return Plan{Name: name, NumPages: 1, ActivePage: 1}
}

// NewImageElement builds an element backed by an imported image asset.
// The caller supplies the intrinsic pixel size of the image; position is the
// element center.
func NewImageElement(ref string, w, h, x, y float64) *Element {
	return &Element{
		Kind:     KindImage,
		ImageRef: ref,
		PosX:     x,
		PosY:     y,
		SizeX:    w,
		SizeY:    h,
		Scale:    1,
		Dirty:    true,
	}
}

// Append adds el at the top of the z-stack. A missing ID is assigned, a
// missing page defaults to the active page, and a zero scale becomes 1.
// Returns el for chaining.
func (p *Plan) Append(el *Element) *Element {
	if el.ID == "" {
		el.ID = uuid.NewString()
	}
	if el.Page == 0 {
		el.Page = p.ActivePage
	}
	if el.Scale == 0 {
		el.Scale = 1
	}
	el.Dirty = true
	p.Elements = append(p.Elements, el)
	return el
}

// ByID returns the element with the given id.
func (p *Plan) ByID(id string) (*Element, bool) {
	for _, el := range p.Elements {
		if el.ID == id {
			return el, true
		}
	}
	return nil, false
}

// IndexOf returns the z-stack index of the element, or -1.
func (p *Plan) IndexOf(id string) int {
	for i, el := range p.Elements {
		if el.ID == id {
			return i
		}
	}
	return -1
}

// Remove deletes the element with the given id, reporting whether it existed.
func (p *Plan) Remove(id string) bool {
	i := p.IndexOf(id)
	if i < 0 {
		return false
	}
	p.Elements = append(p.Elements[:i], p.Elements[i+1:]...)
	return true
}

// SortByRank stably re-sorts the element list ascending by ZIndex. Elements
// with equal ranks keep their relative order, so untouched ranks cannot
// shuffle the stack.
func (p *Plan) SortByRank() {
	sort.SliceStable(p.Elements, func(i, j int) bool {
		return p.Elements[i].ZIndex < p.Elements[j].ZIndex
	})
}

// Prune removes every element for which valid returns false and returns the
// removed elements. Used to repair the model when an element's underlying
// reference (catalog symbol, image file) has gone away.
func (p *Plan) Prune(valid func(*Element) bool) []*Element {
	var removed []*Element
	kept := p.Elements[:0]
	for _, el := range p.Elements {
		if valid(el) {
			kept = append(kept, el)
		} else {
			removed = append(removed, el)
		}
	}
	p.Elements = kept
	return removed
}

// ElementsOnPage returns the elements whose page equals page, in z order.
func (p *Plan) ElementsOnPage(page int) []*Element {
	var out []*Element
	for _, el := range p.Elements {
		if el.Page == page {
			out = append(out, el)
		}
	}
	return out
}

// AddPage appends a new page and returns its number.
func (p *Plan) AddPage() int {
	p.NumPages++
	return p.NumPages
}

// RemovePage deletes an empty page. Pages above shift down by one and the
// active page is adjusted. The last remaining page cannot be removed.
func (p *Plan) RemovePage(page int) error {
	if page < 1 || page > p.NumPages {
		return fmt.Errorf("page %d out of range 1..%d", page, p.NumPages)
	}
	if p.NumPages == 1 {
		return errors.New("a plan keeps at least one page")
	}
	for _, el := range p.Elements {
		if el.Page == page {
			return fmt.Errorf("page %d is not empty", page)
		}
	}
	for _, el := range p.Elements {
		if el.Page > page {
			el.Page--
		}
	}
	p.NumPages--
	if p.ActivePage > page {
		p.ActivePage--
	} else if p.ActivePage > p.NumPages {
		p.ActivePage = p.NumPages
	}
	return nil
}

// SetActivePage switches the visible page.
func (p *Plan) SetActivePage(page int) error {
	if page < 1 || page > p.NumPages {
		return fmt.Errorf("page %d out of range 1..%d", page, p.NumPages)
	}
	p.ActivePage = page
	return nil
}

// Validate checks the plan invariants: at least one page, active page in
// range, every element on an existing page, element ids unique.
func (p *Plan) Validate() error {
	if p.NumPages < 1 {
		return fmt.Errorf("plan %q: numPages %d < 1", p.Name, p.NumPages)
	}
	if p.ActivePage < 1 || p.ActivePage > p.NumPages {
		return fmt.Errorf("plan %q: activePage %d out of range 1..%d", p.Name, p.ActivePage, p.NumPages)
	}
	seen := make(map[string]struct{}, len(p.Elements))
	for _, el := range p.Elements {
		if el.Page < 1 || el.Page > p.NumPages {
			return fmt.Errorf("plan %q: element %s on page %d, have 1..%d", p.Name, el.ID, el.Page, p.NumPages)
		}
		if _, dup := seen[el.ID]; dup {
			return fmt.Errorf("plan %q: duplicate element id %s", p.Name, el.ID)
		}
		seen[el.ID] = struct{}{}
	}
	return nil
}

// SetScale updates the scale factor and marks the element for a content
// refresh, since the rendered markup bakes the scale in.
func (e *Element) SetScale(s float64) {
	if s <= 0 || s == e.Scale {
		return
	}
	e.Scale = s
	e.Dirty = true
}

// SetSymbol repoints a catalog element at another symbol.
func (e *Element) SetSymbol(symbolID string) {
	if e.Kind != KindSymbol || symbolID == e.SymbolID {
		return
	}
	e.SymbolID = symbolID
	e.Dirty = true
}

// SetImageRef repoints an image element at another asset.
func (e *Element) SetImageRef(ref string) {
	if e.Kind != KindImage || ref == e.ImageRef {
		return
	}
	e.ImageRef = ref
	e.Dirty = true
}
