//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/atotto/clipboard"

	"gositeplan/internal/config"
	"gositeplan/internal/crash"
	"gositeplan/internal/domain"
	"gositeplan/internal/export"
	"gositeplan/internal/geom"
	applog "gositeplan/internal/log"
	"gositeplan/internal/scene"
	"gositeplan/internal/storage"
	"gositeplan/internal/symbol"
	"gositeplan/internal/telemetry"
	"gositeplan/internal/undo"
	"gositeplan/internal/version"
)

// Run starts the Fyne-based desktop editor. Pass an optional project
// directory to open immediately.
func Run(projectDir string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI")
	telemetry.Event("ui.start", nil)

	var ph *storage.ProjectHandle
	defer func() { crash.Recover(ph) }()

	cfg, cfgToken, cfgErr := config.Load()
	if cfgErr != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", cfgErr))
	}

	fyneApp := app.NewWithID("gositeplan")
	w := fyneApp.NewWindow("GoSitePlan")
	// Restore window size from preferences (with sane minimums)
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1200)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	planCanvas := NewPlanCanvas()
	if pp, ok := export.PaperByName(cfg.Canvas.DefaultPaper); ok {
		planCanvas.SetPaper(float32(pp.W), float32(pp.H))
	}
	planCanvas.SetGridVisible(prefs.BoolWithFallback("canvas.grid", true))

	// Editor state. The synchronizer, history and catalog are rebuilt by
	// openPlan whenever the current plan changes.
	currentPlanIdx := 0
	var planSync *scene.Synchronizer
	var hist *undo.PlanHistory
	var cat *symbol.Catalog
	pendingChanges := false

	// Undo manager shared by all plans; snapshots capture the whole plan.
	undoMgr := undo.NewManager(undo.Config{
		MaxBytes:    32 * 1024 * 1024,
		MaxPerPage:  20,
		MinInterval: 300 * time.Millisecond,
	})

	// Closures below call each other, so declare them up front.
	var refreshPlansList func()
	var refreshPagesList func()
	var refreshInspector func()
	var refreshUndoRedo func()
	var switchPage func(n int)
	var openPlan func(idx int)
	var finishOpen func(abs string)
	var showDashboard func()
	var showEditor func()

	activePlan := func() *domain.Plan {
		if ph == nil || currentPlanIdx < 0 || currentPlanIdx >= len(ph.Project.Plans) {
			return nil
		}
		return &ph.Project.Plans[currentPlanIdx]
	}

	persistProject := func() bool {
		if ph == nil {
			return false
		}
		if err := storage.Save(ph); err != nil {
			l.Error("save failed", slog.Any("err", err))
			dialog.ShowError(err, w)
			return false
		}
		pendingChanges = false
		return true
	}

	capturePlan := func() []byte {
		pl := activePlan()
		if pl == nil {
			return nil
		}
		blob, err := json.Marshal(pl)
		if err != nil {
			l.Error("capture plan snapshot failed", slog.Any("err", err))
			return nil
		}
		return blob
	}

	applyPlanBlob := func(blob []byte) {
		pl := activePlan()
		if pl == nil {
			return
		}
		var restored domain.Plan
		if err := json.Unmarshal(blob, &restored); err != nil {
			l.Error("apply plan snapshot failed", slog.Any("err", err))
			return
		}
		*pl = restored
		if planSync != nil {
			planSync.ForceResync()
			planSync.Reconcile()
		}
		if err := storage.Save(ph); err != nil {
			l.Error("save after undo/redo failed", slog.Any("err", err))
		} else {
			pendingChanges = false
		}
		refreshPlansList()
		refreshPagesList()
		refreshInspector()
		refreshUndoRedo()
	}

	// Plans list (left pane, top)
	plansDisplay := []string{}
	plansList := widget.NewList(
		func() int { return len(plansDisplay) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i >= 0 && int(i) < len(plansDisplay) {
				o.(*widget.Label).SetText(plansDisplay[i])
			} else {
				o.(*widget.Label).SetText("")
			}
		},
	)
	plansList.OnSelected = func(id widget.ListItemID) {
		if int(id) != currentPlanIdx || planSync == nil {
			openPlan(int(id))
		}
	}

	// Pages list (left pane, bottom)
	pagesDisplay := []string{}
	pagesList := widget.NewList(
		func() int { return len(pagesDisplay) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i >= 0 && int(i) < len(pagesDisplay) {
				o.(*widget.Label).SetText(pagesDisplay[i])
			} else {
				o.(*widget.Label).SetText("")
			}
		},
	)
	pagesList.OnSelected = func(id widget.ListItemID) { switchPage(int(id) + 1) }

	pageLabel := widget.NewLabel("")

	refreshPlansList = func() {
		plansDisplay = plansDisplay[:0]
		if ph == nil {
			plansList.Refresh()
			return
		}
		for _, pl := range ph.Project.Plans {
			plansDisplay = append(plansDisplay, fmt.Sprintf("%s (%d pages)", pl.Name, pl.NumPages))
		}
		plansList.Refresh()
		if currentPlanIdx >= 0 && currentPlanIdx < len(plansDisplay) {
			plansList.Select(currentPlanIdx)
		}
	}

	refreshPagesList = func() {
		pagesDisplay = pagesDisplay[:0]
		pl := activePlan()
		if pl == nil {
			pagesList.Refresh()
			pageLabel.SetText("")
			return
		}
		for n := 1; n <= pl.NumPages; n++ {
			pagesDisplay = append(pagesDisplay, fmt.Sprintf("Page %d (%d elements)", n, len(pl.ElementsOnPage(n))))
		}
		pagesList.Refresh()
		if pl.ActivePage >= 1 && pl.ActivePage <= len(pagesDisplay) {
			pagesList.Select(pl.ActivePage - 1)
		}
		pageLabel.SetText(fmt.Sprintf("Page %d/%d", pl.ActivePage, pl.NumPages))
	}

	// Element inspector (right pane)
	selectionLabel := widget.NewLabel("No selection")
	labelEntry := widget.NewEntry()
	labelEntry.SetPlaceHolder("Address label")
	anchorSelect := widget.NewSelect([]string{"center", "left", "right", "above", "below"}, nil)
	fontEntry := widget.NewEntry()
	fontEntry.SetPlaceHolder("Font pt (blank = default)")
	rotationEntry := widget.NewEntry()
	rotationEntry.SetPlaceHolder("Degrees")
	scaleEntry := widget.NewEntry()
	scaleEntry.SetPlaceHolder("Scale")

	refreshInspector = func() {
		pl := activePlan()
		if pl == nil || planSync == nil {
			selectionLabel.SetText("No selection")
			return
		}
		id, ok := planSync.Selected()
		if !ok {
			selectionLabel.SetText("No selection")
			return
		}
		el, found := pl.ByID(id)
		if !found {
			selectionLabel.SetText("No selection")
			return
		}
		name := el.SymbolID
		if el.Kind == domain.KindImage {
			name = filepath.Base(el.ImageRef)
		}
		selectionLabel.SetText(fmt.Sprintf("%s (page %d)", name, el.Page))
		labelEntry.SetText(el.Label)
		anchorSelect.SetSelected(string(el.LabelAnchor.Normalize()))
		if el.LabelFontPt > 0 {
			fontEntry.SetText(strconv.FormatFloat(el.LabelFontPt, 'g', -1, 64))
		} else {
			fontEntry.SetText("")
		}
		rotationEntry.SetText(strconv.FormatFloat(el.Rotation, 'g', -1, 64))
		scaleEntry.SetText(strconv.FormatFloat(el.Scale, 'g', -1, 64))
	}

	selectedElement := func() *domain.Element {
		pl := activePlan()
		if pl == nil || planSync == nil {
			return nil
		}
		id, ok := planSync.Selected()
		if !ok {
			return nil
		}
		el, found := pl.ByID(id)
		if !found {
			return nil
		}
		return el
	}

	applyLabelBtn := widget.NewButton("Apply Label", func() {
		pl := activePlan()
		el := selectedElement()
		if pl == nil || el == nil {
			return
		}
		anchor := domain.LabelAnchor(anchorSelect.Selected)
		if err := storage.SetElementLabel(ph, pl.Name, el.ID, strings.TrimSpace(labelEntry.Text), anchor); err != nil {
			dialog.ShowError(err, w)
			return
		}
		el.LabelFontPt = 0
		if txt := strings.TrimSpace(fontEntry.Text); txt != "" {
			pt, perr := strconv.ParseFloat(txt, 64)
			if perr != nil || pt <= 0 {
				dialog.ShowError(fmt.Errorf("font size must be a positive number"), w)
				return
			}
			el.LabelFontPt = pt
		}
		if !persistProject() {
			return
		}
		planSync.Reconcile()
		hist.StoreReason("label")
		refreshUndoRedo()
		status.SetText("Label updated.")
	})

	applyTransformBtn := widget.NewButton("Apply Transform", func() {
		el := selectedElement()
		if el == nil {
			return
		}
		deg, err := strconv.ParseFloat(strings.TrimSpace(rotationEntry.Text), 64)
		if err != nil {
			dialog.ShowError(fmt.Errorf("rotation must be a number of degrees"), w)
			return
		}
		sc, err := strconv.ParseFloat(strings.TrimSpace(scaleEntry.Text), 64)
		if err != nil || sc <= 0 {
			dialog.ShowError(fmt.Errorf("scale must be a positive number"), w)
			return
		}
		el.Rotation = deg
		el.SetScale(sc)
		if !persistProject() {
			return
		}
		planSync.Reconcile()
		hist.StoreReason("transform")
		refreshUndoRedo()
		status.SetText("Transform updated.")
	})

	deleteSelected := func() {
		pl := activePlan()
		if pl == nil || planSync == nil {
			return
		}
		if _, ok := planSync.Selected(); !ok {
			status.SetText("Nothing selected to delete.")
			return
		}
		planSync.DeleteSelected()
		if !persistProject() {
			return
		}
		refreshPagesList()
		refreshInspector()
		refreshUndoRedo()
		status.SetText("Element deleted.")
	}

	toFrontBtn := widget.NewButton("To Front", func() {
		if planSync == nil {
			return
		}
		planSync.BringToFront()
		persistProject()
		refreshUndoRedo()
	})
	toBackBtn := widget.NewButton("To Back", func() {
		if planSync == nil {
			return
		}
		planSync.SendToBack()
		persistProject()
		refreshUndoRedo()
	})
	deleteBtn := widget.NewButton("Delete", deleteSelected)

	// Undo/redo buttons carry their stack depths in the label.
	undoBtn := widget.NewButton("Undo", nil)
	redoBtn := widget.NewButton("Redo", nil)
	refreshUndoRedo = func() {
		if hist == nil {
			undoBtn.SetText("Undo")
			redoBtn.SetText("Redo")
			return
		}
		undoBtn.SetText(fmt.Sprintf("Undo (%d)", hist.UndoCount()))
		redoBtn.SetText(fmt.Sprintf("Redo (%d)", hist.RedoCount()))
	}
	doUndo := func() {
		if hist == nil {
			return
		}
		blob, ok := hist.Undo()
		if !ok {
			dialog.ShowInformation("Undo", "Nothing to undo.", w)
			return
		}
		applyPlanBlob(blob)
		status.SetText("Undid last change.")
	}
	doRedo := func() {
		if hist == nil {
			return
		}
		blob, ok := hist.Redo()
		if !ok {
			dialog.ShowInformation("Redo", "Nothing to redo.", w)
			return
		}
		applyPlanBlob(blob)
		status.SetText("Redid change.")
	}
	undoBtn.OnTapped = doUndo
	redoBtn.OnTapped = doRedo

	// Clipboard copy/paste of elements as JSON, usable across processes.
	copySelected := func() {
		el := selectedElement()
		if el == nil {
			status.SetText("Nothing selected to copy.")
			return
		}
		payload, err := encodeElementPayload(*el)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if err := clipboard.WriteAll(payload); err != nil {
			l.Error("clipboard write failed", slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Copied element.")
	}
	pasteElement := func() {
		pl := activePlan()
		if pl == nil || planSync == nil {
			return
		}
		text, err := clipboard.ReadAll()
		if err != nil {
			l.Error("clipboard read failed", slog.Any("err", err))
			return
		}
		el, derr := decodeElementPayload(text)
		if derr != nil {
			status.SetText("Clipboard holds no element.")
			return
		}
		el.PosX += 12
		el.PosY += 12
		el.Page = pl.ActivePage
		added, aerr := storage.AddElement(ph, pl.Name, el)
		if aerr != nil {
			dialog.ShowError(aerr, w)
			return
		}
		if !persistProject() {
			return
		}
		planSync.Reconcile()
		planSync.Select(added.ID)
		hist.StoreReason("paste")
		refreshPagesList()
		refreshInspector()
		refreshUndoRedo()
		status.SetText("Pasted element.")
	}

	// Add Symbol: pick from the catalog, auto-place on the active page.
	showAddSymbolDialog := func() {
		pl := activePlan()
		if pl == nil || cat == nil {
			dialog.ShowInformation("Add Symbol", "No project open.", w)
			return
		}
		defs := cat.List()
		if len(defs) == 0 {
			dialog.ShowInformation("Add Symbol", "The symbol catalog is empty.", w)
			return
		}
		names := make([]string, 0, len(defs))
		for _, d := range defs {
			names = append(names, fmt.Sprintf("%s (%s)", d.Name, d.ID))
		}
		symSelect := widget.NewSelect(names, nil)
		symSelect.SetSelected(names[0])
		symLabelEntry := widget.NewEntry()
		symLabelEntry.SetPlaceHolder("Address label (optional)")
		form := dialog.NewForm("Add Symbol", "Add", "Cancel", []*widget.FormItem{
			widget.NewFormItem("Symbol", symSelect),
			widget.NewFormItem("Label", symLabelEntry),
		}, func(ok bool) {
			if !ok {
				return
			}
			idx := -1
			for i, n := range names {
				if n == symSelect.Selected {
					idx = i
					break
				}
			}
			if idx < 0 {
				return
			}
			def := defs[idx]
			// Suggest a free spot among the occupied boxes on this page.
			pw, pgH := planCanvas.PaperSize()
			page := geom.R(0, 0, pw, pgH)
			var obstacles []geom.Rect
			for _, other := range pl.ElementsOnPage(pl.ActivePage) {
				obstacles = append(obstacles, geom.BoxBoundsOf(other))
			}
			box := geom.Size{
				W: float32(def.Width) + 2*geom.SelectionPad,
				H: float32(def.Height) + 2*geom.SelectionPad,
			}
			spot, _ := geom.SuggestPlacement(page, box, obstacles, geom.PlaceOptions{})
			el := symbol.NewElement(def, float64(spot.X+spot.W/2), float64(spot.Y+spot.H/2))
			el.Label = strings.TrimSpace(symLabelEntry.Text)
			added, err := storage.AddElement(ph, pl.Name, el)
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if !persistProject() {
				return
			}
			planSync.Reconcile()
			planSync.Select(added.ID)
			hist.StoreReason("add")
			refreshPagesList()
			refreshInspector()
			refreshUndoRedo()
			status.SetText(fmt.Sprintf("Added %s", def.Name))
		}, w)
		form.Resize(fyne.NewSize(420, 220))
		form.Show()
	}

	// Import Image: copy the file into assets/ and place it centered.
	showImportImageDialog := func() {
		pl := activePlan()
		if pl == nil || planSync == nil {
			dialog.ShowInformation("Import Image", "No project open.", w)
			return
		}
		fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if rc == nil {
				return
			}
			src := rc.URI().Path()
			_ = rc.Close()
			rel, ierr := storage.ImportAsset(ph, src)
			if ierr != nil {
				dialog.ShowError(ierr, w)
				return
			}
			wpx, hpx, derr := imageSize(filepath.Join(ph.Root, rel))
			if derr != nil {
				l.Error("image size probe failed", slog.Any("err", derr))
				wpx, hpx = 200, 150
			}
			pw, pgH := planCanvas.PaperSize()
			// Scale oversized rasters down to fit the page.
			maxW := float64(pw) * 0.8
			maxH := float64(pgH) * 0.8
			sc := 1.0
			if wpx > maxW {
				sc = maxW / wpx
			}
			if s := maxH / hpx; hpx > maxH && s < sc {
				sc = s
			}
			el := domain.NewImageElement(rel, wpx, hpx, float64(pw)/2, float64(pgH)/2)
			el.Scale = sc
			added, aerr := storage.AddElement(ph, pl.Name, el)
			if aerr != nil {
				dialog.ShowError(aerr, w)
				return
			}
			if !persistProject() {
				return
			}
			planSync.Reconcile()
			planSync.Select(added.ID)
			hist.StoreReason("import")
			refreshPagesList()
			refreshInspector()
			refreshUndoRedo()
			status.SetText("Imported " + filepath.Base(rel))
		}, w)
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif"}))
		fd.Show()
	}

	// Search state (omnibox + results panel)
	searchItems := []string{}
	var searchResults []storage.SearchResult
	searchList := widget.NewList(
		func() int { return len(searchItems) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i >= 0 && int(i) < len(searchItems) {
				o.(*widget.Label).SetText(searchItems[i])
			} else {
				o.(*widget.Label).SetText("")
			}
		},
	)
	navigateToResult := func(r storage.SearchResult) {
		if ph == nil {
			return
		}
		pl := activePlan()
		if pl == nil || pl.Name != r.Plan {
			for i := range ph.Project.Plans {
				if ph.Project.Plans[i].Name == r.Plan {
					openPlan(i)
					break
				}
			}
			pl = activePlan()
		}
		if pl == nil || planSync == nil {
			return
		}
		if r.Page >= 1 {
			switchPage(r.Page)
		}
		planSync.Select(r.ElementID)
		refreshInspector()
	}
	omniBox := widget.NewEntry()
	omniBox.SetPlaceHolder("Search labels (Ctrl+K)")
	runSearch := func(q string) {
		qq := strings.TrimSpace(q)
		if qq == "" || ph == nil {
			searchItems = searchItems[:0]
			searchResults = searchResults[:0]
			searchList.Refresh()
			return
		}
		status.SetText("Searching...")
		go func(h *storage.ProjectHandle, text string) {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
			defer cancel()
			res, err := storage.Search(ctx, h.Root, storage.SearchQuery{Text: text, Limit: 200})
			fyne.Do(func() {
				if err != nil {
					l.Error("search failed", slog.Any("err", err))
					status.SetText("Search failed.")
					return
				}
				searchResults = res
				searchItems = searchItems[:0]
				for _, r := range res {
					sn := strings.TrimSpace(r.Snippet)
					if sn == "" {
						sn = r.SymbolID
					}
					if len(sn) > 120 {
						sn = sn[:120] + "..."
					}
					searchItems = append(searchItems, fmt.Sprintf("%s p.%d [%s] %s", r.Plan, r.Page, r.Kind, sn))
				}
				searchList.Refresh()
				status.SetText(fmt.Sprintf("%d results", len(res)))
			})
		}(ph, qq)
	}
	omniBox.OnSubmitted = func(s string) { runSearch(s) }
	searchList.OnSelected = func(id widget.ListItemID) {
		if id < 0 || int(id) >= len(searchResults) {
			return
		}
		navigateToResult(searchResults[id])
	}

	// Canvas hooks. The guide supplier and zoom relay survive plan switches
	// because they read the current synchronizer variable.
	planCanvas.Guides = func() []geom.GuideLine {
		if planSync == nil {
			return nil
		}
		return planSync.Guides()
	}
	planCanvas.OnZoom = func(z float32) {
		if planSync != nil {
			planSync.SetZoom(z)
		}
	}
	planCanvas.OnPointer = func(k scene.PointerKind) {
		if k == scene.PointerMove {
			return
		}
		if k == scene.PointerRelease {
			pendingChanges = true
		}
		refreshUndoRedo()
		refreshInspector()
	}

	switchPage = func(n int) {
		pl := activePlan()
		if pl == nil || planSync == nil {
			return
		}
		if n < 1 {
			n = 1
		}
		if n > pl.NumPages {
			n = pl.NumPages
		}
		if n == pl.ActivePage {
			return
		}
		if err := pl.SetActivePage(n); err != nil {
			l.Error("switch page failed", slog.Any("err", err))
			return
		}
		planSync.Select("")
		planSync.Reconcile()
		hist.StoreReason("open")
		refreshPagesList()
		refreshInspector()
		refreshUndoRedo()
	}

	openPlan = func(idx int) {
		if ph == nil || idx < 0 || idx >= len(ph.Project.Plans) {
			return
		}
		if planSync != nil {
			planSync.Close()
			planSync = nil
		}
		currentPlanIdx = idx
		pl := &ph.Project.Plans[idx]

		c, err := symbol.Builtin()
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if err := c.LoadDir(filepath.Join(ph.Root, "symbols")); err != nil {
			l.Error("load project symbols failed", slog.Any("err", err))
		}
		cat = c

		hist = undo.NewPlanHistory(undoMgr,
			func() (string, int) { return pl.Name, pl.ActivePage },
			capturePlan,
			func(s undo.Snapshot) {
				go func() {
					ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
					defer cancel()
					if err := storage.SaveSnapshot(ctx, ph, s.Plan, s.Page, s.Reason, s.Blob, s.TS); err != nil {
						l.Error("persist snapshot failed", slog.Any("err", err))
					}
				}()
			})

		planSync = scene.NewSynchronizer(pl, scene.Deps{
			Tree:    planCanvas,
			Input:   planCanvas,
			Content: cat,
			History: hist,
			Log:     applog.WithComponent("scene"),
		})
		planSync.SetZoom(planCanvas.Zoom())
		planSync.SetDefaultLabelSize(float32(cfg.Canvas.LabelFontPt))
		if cfg.Canvas.Snap.Enabled {
			planSync.EnableSnap(geom.SnapOptions{
				Threshold:     float32(cfg.Canvas.Snap.Threshold),
				SnapToEdges:   true,
				SnapToCenters: true,
			})
		}
		planSync.Reconcile()
		hist.StoreReason("open")

		refreshPlansList()
		refreshPagesList()
		refreshInspector()
		refreshUndoRedo()
		status.SetText(fmt.Sprintf("Opened plan: %s", pl.Name))
		l.Info("plan opened", slog.String("plan", pl.Name), slog.Int("elements", len(pl.Elements)))
	}

	// Toolbar
	addSymbolBtn := widget.NewButton("Add Symbol...", showAddSymbolDialog)
	importImageBtn := widget.NewButton("Import Image...", showImportImageDialog)
	prevPageBtn := widget.NewButton("Prev Page", func() {
		if pl := activePlan(); pl != nil {
			switchPage(pl.ActivePage - 1)
		}
	})
	nextPageBtn := widget.NewButton("Next Page", func() {
		if pl := activePlan(); pl != nil {
			switchPage(pl.ActivePage + 1)
		}
	})
	zoomInBtn := widget.NewButton("Zoom +", func() { planCanvas.SetZoom(planCanvas.Zoom() + 0.1) })
	zoomOutBtn := widget.NewButton("Zoom -", func() { planCanvas.SetZoom(planCanvas.Zoom() - 0.1) })
	fitBtn := widget.NewButton("Reset View", func() { planCanvas.ResetView() })
	gridCheck := widget.NewCheck("Grid", func(v bool) { planCanvas.SetGridVisible(v) })
	gridCheck.SetChecked(planCanvas.GridVisible())

	toolbar := container.NewHBox(
		addSymbolBtn, importImageBtn, widget.NewSeparator(),
		deleteBtn, toBackBtn, toFrontBtn, widget.NewSeparator(),
		undoBtn, redoBtn, widget.NewSeparator(),
		prevPageBtn, pageLabel, nextPageBtn, widget.NewSeparator(),
		zoomOutBtn, zoomInBtn, fitBtn, gridCheck,
	)

	left := container.NewVSplit(
		container.NewBorder(widget.NewLabel("Plans"), nil, nil, nil, plansList),
		container.NewBorder(widget.NewLabel("Pages"), nil, nil, nil, pagesList),
	)
	inspector := container.NewVBox(
		widget.NewLabel("Inspector"),
		widget.NewSeparator(),
		selectionLabel,
		widget.NewForm(
			widget.NewFormItem("Label", labelEntry),
			widget.NewFormItem("Anchor", anchorSelect),
			widget.NewFormItem("Font pt", fontEntry),
		),
		applyLabelBtn,
		widget.NewForm(
			widget.NewFormItem("Rotation", rotationEntry),
			widget.NewFormItem("Scale", scaleEntry),
		),
		applyTransformBtn,
		widget.NewSeparator(),
	)
	right := container.NewBorder(inspector, nil, nil, nil,
		container.NewBorder(widget.NewLabel("Search Results"), nil, nil, nil, searchList))
	searchBar := container.NewBorder(nil, nil, widget.NewLabel("Find:"), nil, omniBox)
	topBar := container.NewVBox(searchBar, toolbar)
	canvasPane := container.NewBorder(topBar, nil, left, right, container.NewMax(planCanvas))

	editorContent := container.NewBorder(nil, status, nil, nil, canvasPane)
	root := container.NewMax(editorContent)
	w.SetContent(root)

	// Build menus
	var closeProjItem *fyne.MenuItem
	finishOpen = func(abs string) {
		closeProjItem.Disabled = false
		if len(ph.Project.Plans) == 0 {
			if _, err := storage.EnsurePlan(ph, "Main"); err != nil {
				l.Error("ensure plan failed", slog.Any("err", err))
			} else if err := storage.Save(ph); err != nil {
				l.Error("save after ensure plan failed", slog.Any("err", err))
			}
		}
		refreshPlansList()
		openPlan(0)
		addRecentProject(prefs, abs)
		showEditor()
		telemetry.Event("ui.project_open", nil)
	}

	newItem := fyne.NewMenuItem("New...", func() {
		l.Info("menu: new project")
		fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil {
				l.Error("new dialog error", slog.Any("err", err))
				return
			}
			if uri == nil {
				l.Info("new project canceled at folder selection")
				return
			}
			abs := uri.Path()
			nameEntry := widget.NewEntry()
			nameEntry.SetPlaceHolder("Project Name")
			planEntry := widget.NewEntry()
			planEntry.SetText("Main")
			form := dialog.NewForm("New Project", "Create", "Cancel", []*widget.FormItem{
				widget.NewFormItem("Name", nameEntry),
				widget.NewFormItem("First Plan", planEntry),
			}, func(ok bool) {
				if !ok {
					return
				}
				name := strings.TrimSpace(nameEntry.Text)
				if name == "" {
					dialog.ShowInformation("New Project", "Please enter a project name.", w)
					return
				}
				planName := strings.TrimSpace(planEntry.Text)
				if planName == "" {
					planName = "Main"
				}
				proj := domain.Project{Name: name, Plans: []domain.Plan{domain.NewPlan(planName)}}
				h, ierr := storage.InitProject(abs, proj)
				if ierr != nil {
					l.Error("init project failed", slog.Any("err", ierr))
					dialog.ShowError(ierr, w)
					return
				}
				ph = h
				w.SetTitle(fmt.Sprintf("GoSitePlan - %s", h.Project.Name))
				status.SetText(fmt.Sprintf("Created project: %s", abs))
				finishOpen(abs)
			}, w)
			form.Show()
		}, w)
		fd.Show()
	})

	openItem := fyne.NewMenuItem("Open...", func() {
		l.Info("menu: open project")
		fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil {
				l.Error("open dialog error", slog.Any("err", err))
				return
			}
			if uri == nil {
				return
			}
			abs := uri.Path()
			if err := openProject(abs, &ph, w, l, status); err != nil {
				l.Error("open project failed", slog.Any("err", err))
				dialog.ShowError(err, w)
				return
			}
			finishOpen(abs)
		}, w)
		fd.Show()
	})

	saveItem := fyne.NewMenuItem("Save", func() {
		l.Info("menu: save")
		if ph == nil {
			dialog.ShowInformation("Save", "No project open.", w)
			return
		}
		if persistProject() {
			status.SetText("Saved project.")
		}
	})

	saveAsItem := fyne.NewMenuItem("Save As...", func() {
		if ph == nil {
			dialog.ShowInformation("Save As", "No project open.", w)
			return
		}
		fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uri == nil {
				return
			}
			dst := uri.Path()
			if err := storage.SaveAs(ph, dst); err != nil {
				dialog.ShowError(err, w)
				return
			}
			w.SetTitle(fmt.Sprintf("GoSitePlan - %s", ph.Project.Name))
			addRecentProject(prefs, dst)
			status.SetText("Saved project to " + dst)
		}, w)
		fd.Show()
	})

	closeProjItem = fyne.NewMenuItem("Close Project", func() {
		if ph == nil {
			return
		}
		l.Info("menu: close project")
		if planSync != nil {
			planSync.Close()
			planSync = nil
		}
		hist = nil
		cat = nil
		ph = nil
		currentPlanIdx = 0
		pendingChanges = false
		w.SetTitle("GoSitePlan")
		status.SetText("Project closed.")
		searchItems = searchItems[:0]
		searchResults = searchResults[:0]
		searchList.Refresh()
		refreshPlansList()
		refreshPagesList()
		refreshInspector()
		refreshUndoRedo()
		closeProjItem.Disabled = true
		showDashboard()
	})
	closeProjItem.Disabled = true

	rebuildIndexItem := fyne.NewMenuItem("Rebuild Index", func() {
		if ph == nil {
			dialog.ShowInformation("Rebuild Index", "No project open.", w)
			return
		}
		l.Info("menu: rebuild index")
		status.SetText("Rebuilding index...")
		go func(h *storage.ProjectHandle) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			err := storage.RebuildIndex(ctx, h.Root, h.Project)
			fyne.Do(func() {
				if err != nil {
					l.Error("rebuild index failed", slog.Any("err", err))
					dialog.ShowError(err, w)
					status.SetText("Index rebuild failed.")
					return
				}
				status.SetText("Index rebuilt.")
			})
		}(ph)
	})

	settingsItem := fyne.NewMenuItem("Settings...", func() {
		paperSelect := widget.NewSelect(export.PaperNames(), nil)
		paperSelect.SetSelected(cfg.Canvas.DefaultPaper)
		labelFontEntry := widget.NewEntry()
		labelFontEntry.SetText(strconv.FormatFloat(cfg.Canvas.LabelFontPt, 'g', -1, 64))
		snapCheck := widget.NewCheck("Snap to guides", nil)
		snapCheck.SetChecked(cfg.Canvas.Snap.Enabled)
		if env, ok := config.EnvOverrideFor("canvas.snap.enabled"); ok {
			snapCheck.Text = fmt.Sprintf("Snap to guides (set by %s)", env)
			snapCheck.Disable()
		}
		thresholdEntry := widget.NewEntry()
		thresholdEntry.SetText(strconv.FormatFloat(cfg.Canvas.Snap.Threshold, 'g', -1, 64))
		telemetryCheck := widget.NewCheck("Share anonymous usage data", nil)
		telemetryCheck.SetChecked(cfg.General.TelemetryOptIn)
		if env, ok := config.EnvOverrideFor("general.telemetry_opt_in"); ok {
			telemetryCheck.Text = fmt.Sprintf("Share anonymous usage data (set by %s)", env)
			telemetryCheck.Disable()
		}
		form := dialog.NewForm("Settings", "Save", "Cancel", []*widget.FormItem{
			widget.NewFormItem("Default paper", paperSelect),
			widget.NewFormItem("Label font pt", labelFontEntry),
			widget.NewFormItem("", snapCheck),
			widget.NewFormItem("Snap threshold", thresholdEntry),
			widget.NewFormItem("", telemetryCheck),
		}, func(ok bool) {
			if !ok {
				return
			}
			pt, perr := strconv.ParseFloat(strings.TrimSpace(labelFontEntry.Text), 64)
			if perr != nil || pt <= 0 {
				dialog.ShowError(fmt.Errorf("label font size must be a positive number"), w)
				return
			}
			th, terr := strconv.ParseFloat(strings.TrimSpace(thresholdEntry.Text), 64)
			if terr != nil || th < 0 {
				dialog.ShowError(fmt.Errorf("snap threshold must be zero or more"), w)
				return
			}
			cfg.Canvas.DefaultPaper = paperSelect.Selected
			cfg.Canvas.LabelFontPt = pt
			cfg.Canvas.Snap.Enabled = snapCheck.Checked
			cfg.Canvas.Snap.Threshold = th
			cfg.General.TelemetryOptIn = telemetryCheck.Checked
			if err := config.Save(cfg, cfgToken); err != nil {
				l.Error("config save failed", slog.Any("err", err))
				dialog.ShowError(err, w)
				return
			}
			if pp, okP := export.PaperByName(cfg.Canvas.DefaultPaper); okP {
				planCanvas.SetPaper(float32(pp.W), float32(pp.H))
			}
			if planSync != nil {
				planSync.SetDefaultLabelSize(float32(cfg.Canvas.LabelFontPt))
				if cfg.Canvas.Snap.Enabled {
					planSync.EnableSnap(geom.SnapOptions{
						Threshold:     float32(cfg.Canvas.Snap.Threshold),
						SnapToEdges:   true,
						SnapToCenters: true,
					})
				} else {
					planSync.DisableSnap()
				}
				planSync.Reconcile()
			}
			status.SetText("Settings saved.")
		}, w)
		form.Resize(fyne.NewSize(420, 320))
		form.Show()
	})

	// Edit menu
	undoMenuItem := fyne.NewMenuItem("Undo", doUndo)
	redoMenuItem := fyne.NewMenuItem("Redo", doRedo)
	copyItem := fyne.NewMenuItem("Copy Element", copySelected)
	pasteItem := fyne.NewMenuItem("Paste Element", pasteElement)
	deleteItem := fyne.NewMenuItem("Delete Element", deleteSelected)
	editMenu := fyne.NewMenu("Edit", undoMenuItem, redoMenuItem, fyne.NewMenuItemSeparator(), copyItem, pasteItem, deleteItem)

	// Plan menu
	newPlanItem := fyne.NewMenuItem("New Plan...", func() {
		if ph == nil {
			dialog.ShowInformation("New Plan", "No project open.", w)
			return
		}
		nameEntry := widget.NewEntry()
		nameEntry.SetPlaceHolder("Plan name")
		form := dialog.NewForm("New Plan", "Create", "Cancel", []*widget.FormItem{
			widget.NewFormItem("Name", nameEntry),
		}, func(ok bool) {
			if !ok {
				return
			}
			name := strings.TrimSpace(nameEntry.Text)
			if name == "" {
				dialog.ShowInformation("New Plan", "Please enter a plan name.", w)
				return
			}
			if _, err := storage.EnsurePlan(ph, name); err != nil {
				dialog.ShowError(err, w)
				return
			}
			if !persistProject() {
				return
			}
			refreshPlansList()
			for i := range ph.Project.Plans {
				if ph.Project.Plans[i].Name == name {
					openPlan(i)
					break
				}
			}
			status.SetText(fmt.Sprintf("Created plan %q", name))
		}, w)
		form.Show()
	})
	addPageItem := fyne.NewMenuItem("Add Page", func() {
		pl := activePlan()
		if pl == nil {
			dialog.ShowInformation("Add Page", "No project open.", w)
			return
		}
		n := pl.AddPage()
		if !persistProject() {
			return
		}
		refreshPlansList()
		switchPage(n)
		status.SetText(fmt.Sprintf("Added page %d", n))
	})
	removePageItem := fyne.NewMenuItem("Remove Current Page...", func() {
		pl := activePlan()
		if pl == nil {
			dialog.ShowInformation("Remove Page", "No project open.", w)
			return
		}
		page := pl.ActivePage
		confirm := dialog.NewConfirm("Remove Page",
			fmt.Sprintf("Remove page %d? Its elements move to the previous page.", page),
			func(ok bool) {
				if !ok {
					return
				}
				if err := pl.RemovePage(page); err != nil {
					dialog.ShowError(err, w)
					return
				}
				if !persistProject() {
					return
				}
				planSync.Select("")
				planSync.Reconcile()
				hist.StoreReason("page")
				refreshPlansList()
				refreshPagesList()
				refreshInspector()
				refreshUndoRedo()
				status.SetText(fmt.Sprintf("Removed page %d", page))
			}, w)
		confirm.SetDismissText("Cancel")
		confirm.SetConfirmText("Remove")
		confirm.Show()
	})
	metadataItem := fyne.NewMenuItem("Project Metadata...", func() {
		if ph == nil {
			dialog.ShowInformation("Project Metadata", "No project open.", w)
			return
		}
		showMetadataDialog(w, ph, status, l)
	})
	planMenu := fyne.NewMenu("Plan", newPlanItem, addPageItem, removePageItem, fyne.NewMenuItemSeparator(), metadataItem)

	// Export menu
	exportOpts := func() (string, float64, bool) {
		return cfg.Canvas.DefaultPaper, cfg.Canvas.LabelFontPt, planCanvas.GridVisible()
	}
	exportPDFItem := fyne.NewMenuItem("Export Plan as PDF pages...", func() {
		pl := activePlan()
		if pl == nil {
			dialog.ShowInformation("Export PDF", "No project open.", w)
			return
		}
		fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uri == nil {
				return
			}
			outDir := uri.Path()
			paper, labelPt, grid := exportOpts()
			err = export.ExportPlanPDFPages(ph, pl.Name, outDir, export.PDFOptions{
				IncludeGrid: grid, Paper: paper, LabelFontPt: labelPt,
			})
			if err != nil {
				dialog.ShowError(err, w)
			} else {
				telemetry.Event("ui.export", map[string]any{"format": "pdf"})
				dialog.ShowInformation("Export PDF", "Exported pages to "+outDir, w)
			}
		}, w)
		fd.Show()
	})
	exportPNGItem := fyne.NewMenuItem("Export Plan as PNG pages...", func() {
		pl := activePlan()
		if pl == nil {
			dialog.ShowInformation("Export PNG", "No project open.", w)
			return
		}
		fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uri == nil {
				return
			}
			outDir := uri.Path()
			paper, labelPt, grid := exportOpts()
			err = export.ExportPlanPNGPages(ph, pl.Name, outDir, export.PNGOptions{
				IncludeGrid: grid, Paper: paper, LabelFontPt: labelPt,
			})
			if err != nil {
				dialog.ShowError(err, w)
			} else {
				telemetry.Event("ui.export", map[string]any{"format": "png"})
				dialog.ShowInformation("Export PNG", "Exported pages to "+outDir, w)
			}
		}, w)
		fd.Show()
	})
	exportSVGItem := fyne.NewMenuItem("Export Plan as SVG pages...", func() {
		pl := activePlan()
		if pl == nil {
			dialog.ShowInformation("Export SVG", "No project open.", w)
			return
		}
		fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uri == nil {
				return
			}
			outDir := uri.Path()
			paper, labelPt, grid := exportOpts()
			err = export.ExportPlanSVGPages(ph, pl.Name, outDir, export.SVGOptions{
				IncludeGrid: grid, Paper: paper, LabelFontPt: labelPt,
			})
			if err != nil {
				dialog.ShowError(err, w)
			} else {
				telemetry.Event("ui.export", map[string]any{"format": "svg"})
				dialog.ShowInformation("Export SVG", "Exported pages to "+outDir, w)
			}
		}, w)
		fd.Show()
	})
	exportArchiveItem := fyne.NewMenuItem("Export Plan as Archive...", func() {
		pl := activePlan()
		if pl == nil {
			dialog.ShowInformation("Export Archive", "No project open.", w)
			return
		}
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			outPath := uc.URI().Path()
			_ = uc.Close()
			paper, labelPt, grid := exportOpts()
			err = export.ExportPlanArchive(ph, pl.Name, outPath, export.ArchiveOptions{
				IncludeGrid: grid, Paper: paper, LabelFontPt: labelPt,
			})
			if err != nil {
				dialog.ShowError(err, w)
			} else {
				telemetry.Event("ui.export", map[string]any{"format": "archive"})
				dialog.ShowInformation("Export Archive", "Exported to "+outPath, w)
			}
		}, w)
		save.SetFileName(strings.ToLower(strings.ReplaceAll(pl.Name, " ", "-")) + ".zip")
		save.SetFilter(fstorage.NewExtensionFileFilter([]string{".zip"}))
		save.Show()
	})
	batchExport := func(preset export.PresetName) {
		if ph == nil {
			dialog.ShowInformation("Batch Export", "No project open.", w)
			return
		}
		status.SetText("Exporting...")
		go func(h *storage.ProjectHandle) {
			err := export.Batch(h, export.BatchOptions{Preset: preset, Paper: cfg.Canvas.DefaultPaper})
			fyne.Do(func() {
				if err != nil {
					l.Error("batch export failed", slog.Any("err", err))
					dialog.ShowError(err, w)
					status.SetText("Batch export failed.")
					return
				}
				telemetry.Event("ui.export", map[string]any{"format": "batch", "preset": string(preset)})
				status.SetText("Batch export finished under exports/.")
			})
		}(ph)
	}
	batchWebItem := fyne.NewMenuItem("Batch Export (Web preset)", func() { batchExport(export.PresetWeb) })
	batchPrintItem := fyne.NewMenuItem("Batch Export (Print preset)", func() { batchExport(export.PresetPrint) })
	exportMenu := fyne.NewMenu("Export",
		exportPDFItem, exportPNGItem, exportSVGItem, exportArchiveItem,
		fyne.NewMenuItemSeparator(), batchWebItem, batchPrintItem)

	aboutItem := fyne.NewMenuItem("About GoSitePlan", func() {
		exe, _ := os.Executable()
		cwd, _ := os.Getwd()
		info := fmt.Sprintf("GoSitePlan\nVersion: %s\nOS: %s\nArch: %s\nGo: %s\nExecutable: %s\nWorking Dir: %s",
			version.String(), runtime.GOOS, runtime.GOARCH, runtime.Version(), exe, cwd)
		dialog.ShowInformation("Installation Environment", info, w)
	})
	copyrightItem := fyne.NewMenuItem("Copyright...", func() {
		msg := fmt.Sprintf("GoSitePlan\nCopyright (c) 2025-%d Alexander Drost\n\nLicensed under the Apache License, Version 2.0.\nSee the LICENSE file for details.", time.Now().Year())
		dialog.ShowInformation("Copyright", msg, w)
	})
	aboutMenu := fyne.NewMenu("About", aboutItem, copyrightItem)

	// Keyboard shortcuts on menu entries
	newItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyN, Modifier: fyne.KeyModifierControl}
	openItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierControl}
	saveItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl}
	closeProjItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyW, Modifier: fyne.KeyModifierControl}

	// Dashboard and Home support
	showEditor = func() {
		root.Objects = []fyne.CanvasObject{editorContent}
		root.Refresh()
	}
	buildDashboard := func() fyne.CanvasObject {
		title := widget.NewLabel("Project Dashboard")
		title.TextStyle = fyne.TextStyle{Bold: true}
		title.Alignment = fyne.TextAlignLeading

		newBtn := widget.NewButton("New Project...", func() { newItem.Action() })
		openBtn := widget.NewButton("Open Project...", func() { openItem.Action() })

		recent := loadRecentProjects(prefs)
		recList := widget.NewList(
			func() int { return len(recent) },
			func() fyne.CanvasObject { return widget.NewLabel("") },
			func(i widget.ListItemID, o fyne.CanvasObject) {
				if i >= 0 && int(i) < len(recent) {
					o.(*widget.Label).SetText(recent[i])
				} else {
					o.(*widget.Label).SetText("")
				}
			},
		)
		recList.OnSelected = func(id widget.ListItemID) {
			if id < 0 || int(id) >= len(recent) {
				return
			}
			path := recent[id]
			if err := openProject(path, &ph, w, l, status); err != nil {
				dialog.ShowError(err, w)
				return
			}
			finishOpen(path)
		}

		header := widget.NewLabel("Recent Projects")
		return container.NewBorder(
			container.NewVBox(title, widget.NewSeparator(), container.NewHBox(newBtn, openBtn)),
			nil, nil, nil,
			container.NewBorder(header, nil, nil, nil, recList),
		)
	}
	showDashboard = func() {
		// Rebuild each visit so the recent-projects list stays current.
		root.Objects = []fyne.CanvasObject{buildDashboard()}
		root.Refresh()
	}
	homeItem := fyne.NewMenuItem("Home", func() { showDashboard() })

	fileMenu := fyne.NewMenu("File",
		newItem, openItem, saveItem, saveAsItem, closeProjItem,
		fyne.NewMenuItemSeparator(), homeItem, rebuildIndexItem, settingsItem)
	w.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, planMenu, exportMenu, aboutMenu))

	// Canvas-level shortcuts
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyK, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) {
		w.Canvas().Focus(omniBox)
	})
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { doUndo() })
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { doRedo() })
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyC, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { copySelected() })
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyV, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { pasteElement() })
	w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyDelete {
			deleteSelected()
		}
	})

	// Persist preferences on close; flush pending edits best-effort.
	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		prefs.SetBool("canvas.grid", planCanvas.GridVisible())
		if ph != nil && pendingChanges {
			if err := storage.Save(ph); err != nil {
				l.Error("save on close failed", slog.Any("err", err))
			}
		}
		w.Close()
	})

	// Autosave loop: drag edits mark the manifest pending, a ticker flushes.
	autosave := time.NewTicker(2 * time.Minute)
	defer autosave.Stop()
	go func() {
		for range autosave.C {
			fyne.Do(func() {
				if ph == nil || !pendingChanges {
					return
				}
				if err := storage.Save(ph); err != nil {
					l.Error("autosave failed", slog.Any("err", err))
					return
				}
				pendingChanges = false
				status.SetText("Autosaved.")
			})
		}
	}()

	// Try to open a project if provided
	if projectDir != "" {
		if err := openProject(projectDir, &ph, w, l, status); err != nil {
			l.Error("auto-open project failed", slog.Any("err", err))
			// not fatal; continue
		} else {
			finishOpen(projectDir)
		}
	}

	if ph == nil {
		showDashboard()
	}

	w.ShowAndRun()
	return nil
}

func openProject(dir string, ph **storage.ProjectHandle, w fyne.Window, l *slog.Logger, status *widget.Label) error {
	abs, _ := filepath.Abs(dir)
	l.Info("open project", slog.String("root", abs))
	h, err := storage.Open(abs)
	if err != nil {
		return err
	}
	*ph = h
	w.SetTitle(fmt.Sprintf("GoSitePlan - %s", h.Project.Name))
	status.SetText(fmt.Sprintf("Opened project: %s", abs))
	return nil
}

// showMetadataDialog opens a modal dialog to edit project metadata.
func showMetadataDialog(w fyne.Window, ph *storage.ProjectHandle, status *widget.Label, l *slog.Logger) {
	site := widget.NewEntry()
	site.SetText(ph.Project.Metadata.Site)
	client := widget.NewEntry()
	client.SetText(ph.Project.Metadata.Client)
	author := widget.NewEntry()
	author.SetText(ph.Project.Metadata.Author)
	notes := widget.NewMultiLineEntry()
	notes.SetText(ph.Project.Metadata.Notes)
	form := dialog.NewForm("Project Metadata", "Save", "Cancel", []*widget.FormItem{
		widget.NewFormItem("Site", site),
		widget.NewFormItem("Client", client),
		widget.NewFormItem("Author", author),
		widget.NewFormItem("Notes", notes),
	}, func(ok bool) {
		if !ok {
			return
		}
		ph.Project.Metadata = domain.Metadata{
			Site:   strings.TrimSpace(site.Text),
			Client: strings.TrimSpace(client.Text),
			Author: strings.TrimSpace(author.Text),
			Notes:  notes.Text,
		}
		if err := storage.Save(ph); err != nil {
			l.Error("save metadata failed", slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Metadata saved.")
	}, w)
	form.Resize(fyne.NewSize(460, 340))
	form.Show()
}

// Recent project persistence helpers for dashboard
const recentPrefsKey = "recent.projects"
const recentMax = 10

func loadRecentProjects(p fyne.Preferences) []string {
	raw := p.StringWithFallback(recentPrefsKey, "")
	var items []string
	if strings.TrimSpace(raw) != "" {
		var tmp []string
		if err := json.Unmarshal([]byte(raw), &tmp); err == nil {
			items = tmp
		}
	}
	if items == nil {
		items = []string{}
	}
	// Filter out non-existing paths
	out := make([]string, 0, len(items))
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := os.Stat(s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

func saveRecentProjects(p fyne.Preferences, items []string) {
	if len(items) > recentMax {
		items = items[:recentMax]
	}
	b, _ := json.Marshal(items)
	p.SetString(recentPrefsKey, string(b))
}

func addRecentProject(p fyne.Preferences, path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	abs, _ := filepath.Abs(path)
	rec := loadRecentProjects(p)
	out := make([]string, 0, 1+len(rec))
	out = append(out, abs)
	for _, s := range rec {
		// de-dup (case-insensitive on Windows)
		if strings.EqualFold(s, abs) {
			continue
		}
		out = append(out, s)
	}
	saveRecentProjects(p, out)
}
