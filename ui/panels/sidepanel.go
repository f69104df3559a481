// Package panels provides UI panels for the application.
package panels

import (
	"dicom-viewer/internal/app"
	"dicom-viewer/ui/viewer"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

// SidePanel provides the main side panel with tabbed sections.
type SidePanel struct {
	state     *app.State
	container *container.AppTabs

	seriesPanel       *SeriesPanel
	segmentsPanel     *SegmentsPanel
	measurementsPanel *MeasurementsPanel
}

// NewSidePanel creates a new side panel.
func NewSidePanel(state *app.State, vw *viewer.Viewer) *SidePanel {
	sp := &SidePanel{state: state}

	sp.seriesPanel = NewSeriesPanel(state, vw)
	sp.segmentsPanel = NewSegmentsPanel(state)
	sp.measurementsPanel = NewMeasurementsPanel(state)

	sp.container = container.NewAppTabs(
		container.NewTabItem("Series", sp.seriesPanel.Container()),
		container.NewTabItem("Segments", sp.segmentsPanel.Container()),
		container.NewTabItem("Measure", sp.measurementsPanel.Container()),
	)

	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// SetWindow sets the parent window for dialogs.
func (sp *SidePanel) SetWindow(w fyne.Window) {
	sp.segmentsPanel.SetWindow(w)
}
