/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"testing"

	"gositeplan/internal/domain"
)

func TestPageNumbers(t *testing.T) {
	got := pageNumbers(3, nil)
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("all pages: %v", got)
	}
	got = pageNumbers(3, []int{2, 0, 9, 3})
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("filtered pages: %v", got)
	}
}

func TestPlanStem(t *testing.T) {
	cases := map[string]string{
		"Erdgeschoss":     "erdgeschoss",
		"Halle 2 / Nord":  "halle-2-nord",
		"  ":              "plan",
		"":                "plan",
		"Obergeschoss  1": "obergeschoss-1",
	}
	for in, want := range cases {
		if got := planStem(in); got != want {
			t.Fatalf("planStem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLabelPtResolution(t *testing.T) {
	el := &domain.Element{LabelFontPt: 14}
	if got := labelPt(el, 9); got != 14 {
		t.Fatalf("element override ignored: %g", got)
	}
	el.LabelFontPt = 0
	if got := labelPt(el, 9); got != 9 {
		t.Fatalf("option default ignored: %g", got)
	}
	if got := labelPt(el, 0); got != defaultLabelPt {
		t.Fatalf("builtin default ignored: %g", got)
	}
}

func TestLayoutLabelMultiline(t *testing.T) {
	prov := exportProvider()
	one := layoutLabel(prov, "Haus 3", 11)
	two := layoutLabel(prov, "Haus 3\nKeller", 11)
	if len(one.lines) != 1 || len(two.lines) != 2 {
		t.Fatalf("line split wrong: %d, %d", len(one.lines), len(two.lines))
	}
	if two.h <= one.h {
		t.Fatalf("two lines not taller: %g vs %g", two.h, one.h)
	}
	if two.w < one.w {
		t.Fatalf("widest line should win: %g vs %g", two.w, one.w)
	}
	if one.ascent <= 0 || one.advance <= 0 {
		t.Fatalf("metrics implausible: ascent %g advance %g", one.ascent, one.advance)
	}
}
