package panels

import (
	"fmt"

	"dicom-viewer/internal/app"
	"dicom-viewer/internal/measure"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// MeasurementsPanel lists the committed measurements of the active
// series. Selecting one jumps to its frame.
type MeasurementsPanel struct {
	state     *app.State
	container fyne.CanvasObject

	list  *widget.List
	items []*measure.Measurement
}

// NewMeasurementsPanel creates a new measurements panel.
func NewMeasurementsPanel(state *app.State) *MeasurementsPanel {
	p := &MeasurementsPanel{state: state}

	p.list = widget.NewList(
		func() int { return len(p.items) },
		func() fyne.CanvasObject {
			name := widget.NewLabel("measurement")
			remove := widget.NewButton("X", nil)
			return container.NewBorder(nil, nil, nil, remove, name)
		},
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i >= len(p.items) {
				return
			}
			m := p.items[i]
			border := o.(*fyne.Container)
			name := border.Objects[0].(*widget.Label)
			remove := border.Objects[1].(*widget.Button)

			name.SetText(fmt.Sprintf("%s: %.1f px (frame %d)", m.Label, m.DistanceInPixels, m.FrameIndex+1))
			remove.OnTapped = func() {
				if view := state.View(); view != nil {
					state.Measurements.Remove(view.Series.ID, m.ID)
					state.Emit(app.EventMeasurementsChanged, nil)
				}
			}
		},
	)
	p.list.OnSelected = func(i widget.ListItemID) {
		if i < len(p.items) {
			state.SetFrameIndex(p.items[i].FrameIndex)
		}
		p.list.UnselectAll()
	}

	p.container = container.NewBorder(
		widget.NewLabel("Measurements"),
		nil, nil, nil,
		p.list,
	)

	state.On(app.EventMeasurementsChanged, func(interface{}) { p.refresh() })
	state.On(app.EventSeriesChanged, func(interface{}) { p.refresh() })

	return p
}

// Container returns the panel container.
func (p *MeasurementsPanel) Container() fyne.CanvasObject {
	return p.container
}

func (p *MeasurementsPanel) refresh() {
	p.items = nil
	if view := p.state.View(); view != nil {
		p.items = p.state.Measurements.ForSeries(view.Series.ID)
	}
	p.list.Refresh()
}
