package panels

import (
	"fmt"

	"dicom-viewer/internal/app"
	"dicom-viewer/ui/viewer"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// SeriesPanel lists the catalogue series and the segmented slices of the
// active one.
type SeriesPanel struct {
	state     *app.State
	viewer    *viewer.Viewer
	container fyne.CanvasObject

	seriesList *widget.List
	infoLabel  *widget.Label
	frameLabel *widget.Label
	sliceList  *widget.List

	slices []sliceEntry
}

type sliceEntry struct {
	frameIndex int
	labelCount int
}

// NewSeriesPanel creates a new series panel.
func NewSeriesPanel(state *app.State, vw *viewer.Viewer) *SeriesPanel {
	p := &SeriesPanel{state: state, viewer: vw}

	p.infoLabel = widget.NewLabel("No series loaded")
	p.infoLabel.Wrapping = fyne.TextWrapWord
	p.frameLabel = widget.NewLabel("")

	p.seriesList = widget.NewList(
		func() int {
			if state.Catalogue == nil {
				return 0
			}
			return len(state.Catalogue.Series)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("series")
		},
		func(i widget.ListItemID, o fyne.CanvasObject) {
			sr := state.Catalogue.Series[i]
			o.(*widget.Label).SetText(fmt.Sprintf("%s [%s, %d frames]", sr.Label, sr.Modality, sr.FrameCount()))
		},
	)
	p.seriesList.OnSelected = func(i widget.ListItemID) {
		state.SelectSeries(state.Catalogue.Series[i])
	}

	p.sliceList = widget.NewList(
		func() int { return len(p.slices) },
		func() fyne.CanvasObject {
			return widget.NewLabel("slice")
		},
		func(i widget.ListItemID, o fyne.CanvasObject) {
			e := p.slices[i]
			o.(*widget.Label).SetText(fmt.Sprintf("Frame %d: %d labels", e.frameIndex+1, e.labelCount))
		},
	)
	p.sliceList.OnSelected = func(i widget.ListItemID) {
		state.SetFrameIndex(p.slices[i].frameIndex)
		p.sliceList.UnselectAll()
	}

	prevButton := widget.NewButton("Prev", func() { vw.StepFrame(-1) })
	nextButton := widget.NewButton("Next", func() { vw.StepFrame(1) })

	p.container = container.NewBorder(
		container.NewVBox(
			widget.NewCard("Series", "", nil),
			p.infoLabel,
			container.NewHBox(prevButton, nextButton, p.frameLabel),
		),
		widget.NewCard("Segmented Slices", "", nil),
		nil, nil,
		container.NewVSplit(p.seriesList, p.sliceList),
	)

	state.On(app.EventSeriesChanged, func(interface{}) { p.refresh() })
	state.On(app.EventFrameChanged, func(interface{}) { p.refresh() })
	state.On(app.EventMaskChanged, func(interface{}) { p.refreshSlices() })
	state.On(app.EventFrameFailed, func(data interface{}) {
		if err, ok := data.(error); ok {
			p.infoLabel.SetText(fmt.Sprintf("Error: %v", err))
		}
	})

	p.refresh()
	return p
}

// Container returns the panel container.
func (p *SeriesPanel) Container() fyne.CanvasObject {
	return p.container
}

func (p *SeriesPanel) refresh() {
	view := p.state.View()
	if view == nil {
		p.infoLabel.SetText("No series loaded")
		p.frameLabel.SetText("")
	} else {
		p.infoLabel.SetText(fmt.Sprintf("%s (%s)", view.Series.Label, view.Series.Modality))
		p.frameLabel.SetText(fmt.Sprintf("%d / %d", view.FrameIndex+1, view.Series.FrameCount()))
	}
	p.seriesList.Refresh()
	p.refreshSlices()
}

func (p *SeriesPanel) refreshSlices() {
	p.slices = p.slices[:0]
	if view := p.state.View(); view != nil {
		for _, s := range view.Masks.Summaries() {
			p.slices = append(p.slices, sliceEntry{frameIndex: s.FrameIndex, labelCount: s.LabelCount})
		}
	}
	p.sliceList.Refresh()
}
