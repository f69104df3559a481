// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"log"
	"path/filepath"

	"dicom-viewer/internal/app"
	"dicom-viewer/internal/version"
	"dicom-viewer/ui/panels"
	"dicom-viewer/ui/prefs"
	"dicom-viewer/ui/viewer"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	prefs     *prefs.Prefs
	viewer    *viewer.Viewer
	sidePanel *panels.SidePanel
	statusBar *widget.Label

	toolButtons map[app.Tool]*widget.Button
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, appPrefs *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow("DICOM Viewer")

	mw := &MainWindow{
		Window:      win,
		app:         fyneApp,
		state:       state,
		prefs:       appPrefs,
		toolButtons: make(map[app.Tool]*widget.Button),
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()

	win.SetCloseIntercept(func() {
		mw.savePrefs()
		win.Close()
	})

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.viewer = viewer.New(mw.state)

	mw.sidePanel = panels.NewSidePanel(mw.state, mw.viewer)
	mw.sidePanel.SetWindow(mw.Window)

	mw.statusBar = widget.NewLabel("Ready")

	toolbar := mw.createToolbar()

	viewerArea := container.NewBorder(
		toolbar,
		nil, nil, nil,
		mw.viewer.Container(),
	)

	split := container.NewHSplit(
		mw.sidePanel.Container(),
		viewerArea,
	)
	split.SetOffset(0.25)

	content := container.NewBorder(
		nil,
		container.NewPadded(mw.statusBar),
		nil, nil,
		split,
	)

	mw.SetContent(content)
}

// createToolbar creates the toolbar with tool and view controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	tools := []app.Tool{
		app.ToolSelect, app.ToolPan, app.ToolZoom, app.ToolWindowLevel,
		app.ToolScroll, app.ToolPaint, app.ToolErase, app.ToolMeasure,
	}

	bar := container.NewHBox()
	for _, t := range tools {
		tool := t
		btn := widget.NewButton(tool.String(), func() {
			mw.state.SetTool(tool)
		})
		mw.toolButtons[tool] = btn
		bar.Add(btn)
	}
	mw.highlightTool(mw.state.Tool())

	bar.Add(widget.NewSeparator())
	bar.Add(widget.NewButton("-", func() { mw.viewer.ZoomBy(0.8) }))
	bar.Add(widget.NewButton("+", func() { mw.viewer.ZoomBy(1.25) }))
	bar.Add(widget.NewButton("Fit", func() { mw.viewer.Recenter() }))

	return container.NewHScroll(bar)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Session...", mw.onOpenSession),
		fyne.NewMenuItem("Save Session As...", mw.onSaveSession),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Frame As PNG...", mw.onExportFrame),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() {
			mw.savePrefs()
			mw.app.Quit()
		}),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", func() { mw.viewer.ZoomBy(1.25) }),
		fyne.NewMenuItem("Zoom Out", func() { mw.viewer.ZoomBy(0.8) }),
		fyne.NewMenuItem("Fit to Window", func() { mw.viewer.Recenter() }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Auto Window/Level", func() { mw.viewer.AutoWindow() }),
		fyne.NewMenuItem("Reset Window/Level", func() { mw.viewer.ResetWindow() }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Toggle Segmentation", func() {
			mw.state.SetSegmentationVisible(!mw.state.SegmentationVisible())
		}),
	)

	navMenu := fyne.NewMenu("Navigate",
		fyne.NewMenuItem("Next Frame", func() { mw.viewer.StepFrame(1) }),
		fyne.NewMenuItem("Previous Frame", func() { mw.viewer.StepFrame(-1) }),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, viewMenu, navMenu, helpMenu))
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventToolChanged, func(data interface{}) {
		if tool, ok := data.(app.Tool); ok {
			mw.highlightTool(tool)
			mw.updateStatus("Tool: " + tool.String())
		}
	})

	mw.state.On(app.EventSeriesChanged, func(interface{}) {
		if view := mw.state.View(); view != nil {
			mw.updateStatus(fmt.Sprintf("Series: %s (%d frames)", view.Series.Label, view.Series.FrameCount()))
		}
	})

	mw.state.On(app.EventFrameChanged, func(interface{}) {
		if view := mw.state.View(); view != nil {
			mw.updateStatus(fmt.Sprintf("Frame %d / %d", view.FrameIndex+1, view.Series.FrameCount()))
		}
	})

	mw.state.On(app.EventFrameFailed, func(data interface{}) {
		if err, ok := data.(error); ok {
			mw.updateStatus("Frame unavailable: " + err.Error())
		}
	})

	mw.state.On(app.EventSessionLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle("DICOM Viewer - " + filepath.Base(path))
			mw.updateStatus("Session loaded: " + path)
		}
	})
}

// highlightTool marks the active tool's button.
func (mw *MainWindow) highlightTool(active app.Tool) {
	for tool, btn := range mw.toolButtons {
		if tool == active {
			btn.Importance = widget.HighImportance
		} else {
			btn.Importance = widget.MediumImportance
		}
		btn.Refresh()
	}
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// savePrefs flushes sticky UI state: tool defaults live in app state,
// the rest is already recorded on the Prefs as it changes.
func (mw *MainWindow) savePrefs() {
	mw.prefs.SetBrushDiameter(mw.state.BrushDiameter())
	mw.prefs.SetSegmentationOpacity(mw.state.SegmentationOpacity())
	if err := mw.prefs.Save(); err != nil {
		log.Printf("Failed to save preferences: %v", err)
	}
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.LastDirectory()
	if path == "" {
		return nil
	}
	uri := storage.NewFileURI(path)
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir records the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetLastDirectory(filepath.Dir(filePath))
}

// Menu action handlers

func (mw *MainWindow) onOpenSession() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.state.LoadSession(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".dvsession"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveSession() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ".dvsession" {
			path += ".dvsession"
		}
		mw.saveLastDir(path)
		if err := mw.state.SaveSession(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Session saved: " + path)
	}, mw.Window)
	fd.SetFileName("session.dvsession")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onExportFrame() {
	data, err := mw.viewer.CapturePNG()
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	if data == nil {
		mw.updateStatus("Nothing to export")
		return
	}

	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()
		path := writer.URI().Path()
		mw.saveLastDir(path)
		if _, err := writer.Write(data); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Exported: " + path)
	}, mw.Window)
	fd.SetFileName("frame.png")
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".png"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About DICOM Viewer",
		fmt.Sprintf("DICOM Viewer v%s\n\n"+
			"A cross-sectional medical image viewer with\n"+
			"segmentation and measurement tools.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
