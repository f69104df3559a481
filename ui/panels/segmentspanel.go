package panels

import (
	"fmt"
	"image/color"

	"dicom-viewer/internal/app"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// SegmentsPanel manages the segment table: creation, selection, color,
// visibility, and the brush and overlay controls.
type SegmentsPanel struct {
	state     *app.State
	window    fyne.Window
	container fyne.CanvasObject

	list          *widget.List
	opacitySlider *widget.Slider
	brushSlider   *widget.Slider
	layerCheck    *widget.Check
}

// NewSegmentsPanel creates a new segments panel.
func NewSegmentsPanel(state *app.State) *SegmentsPanel {
	p := &SegmentsPanel{state: state}

	p.list = widget.NewList(
		func() int { return state.Segments.Len() },
		func() fyne.CanvasObject {
			visible := widget.NewCheck("", nil)
			name := widget.NewLabel("segment")
			recolor := widget.NewButton("Color", nil)
			remove := widget.NewButton("X", nil)
			return container.NewBorder(nil, nil, visible, container.NewHBox(recolor, remove), name)
		},
		func(i widget.ListItemID, o fyne.CanvasObject) {
			segs := state.Segments.List()
			if i >= len(segs) {
				return
			}
			seg := segs[i]
			border := o.(*fyne.Container)

			name := border.Objects[0].(*widget.Label)
			visible := border.Objects[1].(*widget.Check)
			buttons := border.Objects[2].(*fyne.Container)
			recolor := buttons.Objects[0].(*widget.Button)
			remove := buttons.Objects[1].(*widget.Button)

			marker := ""
			if state.ActiveSegment() == seg.ID {
				marker = "> "
			}
			name.SetText(fmt.Sprintf("%s%s", marker, seg.Label))

			visible.OnChanged = nil
			visible.SetChecked(seg.Visible)
			visible.OnChanged = func(checked bool) {
				state.Segments.SetVisible(seg.ID, checked)
				state.InvalidateSegmentVisuals()
			}

			recolor.OnTapped = func() {
				p.pickColor(seg.ID)
			}
			remove.OnTapped = func() {
				state.RemoveSegment(seg.ID)
			}
		},
	)
	p.list.OnSelected = func(i widget.ListItemID) {
		segs := state.Segments.List()
		if i < len(segs) {
			state.SetActiveSegment(segs[i].ID)
			p.list.Refresh()
		}
	}

	addButton := widget.NewButton("Add Segment", func() {
		seg := state.Segments.Add("")
		state.SetActiveSegment(seg.ID)
		state.Emit(app.EventSegmentsChanged, nil)
	})

	p.opacitySlider = widget.NewSlider(0, 1)
	p.opacitySlider.Step = 0.05
	p.opacitySlider.Value = state.SegmentationOpacity()
	p.opacitySlider.OnChanged = func(v float64) {
		state.SetSegmentationOpacity(v)
	}

	p.brushSlider = widget.NewSlider(1, 60)
	p.brushSlider.Step = 1
	p.brushSlider.Value = float64(state.BrushDiameter())
	p.brushSlider.OnChanged = func(v float64) {
		state.SetBrushDiameter(int(v))
	}

	p.layerCheck = widget.NewCheck("Show segmentation", func(checked bool) {
		state.SetSegmentationVisible(checked)
	})
	p.layerCheck.SetChecked(state.SegmentationVisible())

	p.container = container.NewBorder(
		container.NewVBox(
			addButton,
			p.layerCheck,
			widget.NewLabel("Overlay opacity"),
			p.opacitySlider,
			widget.NewLabel("Brush diameter"),
			p.brushSlider,
		),
		nil, nil, nil,
		p.list,
	)

	state.On(app.EventSegmentsChanged, func(interface{}) {
		p.list.Refresh()
	})

	return p
}

// Container returns the panel container.
func (p *SegmentsPanel) Container() fyne.CanvasObject {
	return p.container
}

// SetWindow sets the parent window for the color picker dialog.
func (p *SegmentsPanel) SetWindow(w fyne.Window) {
	p.window = w
}

func (p *SegmentsPanel) pickColor(id uint16) {
	if p.window == nil {
		return
	}
	dialog.ShowColorPicker("Segment Color", "", func(c color.Color) {
		if c == nil {
			return
		}
		r, g, b, _ := c.RGBA()
		p.state.Segments.SetColor(id, color.RGBA{
			R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255,
		})
		p.state.InvalidateSegmentVisuals()
	}, p.window)
}
