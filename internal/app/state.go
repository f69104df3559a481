// Package app provides application state, events, and session handling.
package app

import (
	"sync"

	"dicom-viewer/internal/config"
	"dicom-viewer/internal/fetch"
	"dicom-viewer/internal/mask"
	"dicom-viewer/internal/measure"
	"dicom-viewer/internal/segment"
	"dicom-viewer/internal/series"
	"dicom-viewer/internal/viewport"
)

// Tool identifies the active interaction tool. The viewer core only
// reads it; selection happens in the surrounding UI.
type Tool int

const (
	ToolSelect Tool = iota
	ToolPan
	ToolZoom
	ToolWindowLevel
	ToolScroll
	ToolPaint
	ToolErase
	ToolMeasure
)

func (t Tool) String() string {
	switch t {
	case ToolSelect:
		return "Select"
	case ToolPan:
		return "Pan"
	case ToolZoom:
		return "Zoom"
	case ToolWindowLevel:
		return "Window/Level"
	case ToolScroll:
		return "Scroll"
	case ToolPaint:
		return "Paint"
	case ToolErase:
		return "Erase"
	case ToolMeasure:
		return "Measure"
	default:
		return "Unknown"
	}
}

// EventType identifies application events.
type EventType int

const (
	EventSeriesChanged EventType = iota
	EventFrameChanged
	EventSegmentsChanged
	EventMaskChanged
	EventMeasurementsChanged
	EventToolChanged
	EventFrameFailed
	EventSessionLoaded
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// SeriesView bundles the state owned by one mounted series view: the
// viewport transform and the mask set. It is constructed fresh when the
// active series changes and dropped wholesale on switch, which is what
// makes cleanup and stale-fetch cancellation an ownership drop.
type SeriesView struct {
	Series *series.Series
	View   *viewport.State
	Masks  *mask.Set

	FrameIndex int
}

// State holds application state shared between the UI and the core.
type State struct {
	mu sync.RWMutex

	Config    *config.Config
	Resolver  *fetch.Resolver
	Catalogue *series.Catalogue

	Segments     *segment.Store
	Measurements *measure.Store
	Tracker      *measure.Tracker

	view *SeriesView

	// Interaction state read by the viewer.
	tool                Tool
	activeSegment       uint16 // 0 = none selected
	brushDiameter       int
	segmentationOpacity float64
	segmentationVisible bool

	// generation guards against displaying stale fetch results; it is
	// captured at fetch start and checked on completion.
	generation uint64

	listeners map[EventType][]EventListener
}

// NewState creates application state from configuration.
func NewState(cfg *config.Config, resolver *fetch.Resolver) *State {
	return &State{
		Config:              cfg,
		Resolver:            resolver,
		Segments:            segment.NewStore(),
		Measurements:        measure.NewStore(),
		Tracker:             measure.NewTracker(),
		tool:                ToolSelect,
		brushDiameter:       cfg.Display.BrushDiameter,
		segmentationOpacity: cfg.Display.SegmentationOpacity,
		segmentationVisible: true,
		listeners:           make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// View returns the current series view, or nil before a series is opened.
func (s *State) View() *SeriesView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// SelectSeries replaces the active series wholesale: fresh viewport,
// fresh mask set, frame index zero. The old view's caches go away with
// the old view object; in-flight fetches for it fail the generation
// check when they land.
func (s *State) SelectSeries(sr *series.Series) {
	s.mu.Lock()
	s.view = &SeriesView{
		Series: sr,
		View:   viewport.NewState(s.Config.Display.WindowWidth, s.Config.Display.WindowCenter),
		Masks:  mask.NewSet(),
	}
	s.generation++
	s.mu.Unlock()

	s.Emit(EventSeriesChanged, sr)
}

// SetFrameIndex changes the active frame within the current series.
// Out-of-range indices are the caller's problem; navigation clamps
// before calling.
func (s *State) SetFrameIndex(index int) {
	s.mu.Lock()
	if s.view == nil {
		s.mu.Unlock()
		return
	}
	s.view.FrameIndex = index
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	s.Emit(EventFrameChanged, gen)
}

// Generation returns the current liveness token. A fetch captures it at
// start and discards its result if the token has moved on by completion.
func (s *State) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// IsCurrent reports whether a captured generation still matches.
func (s *State) IsCurrent(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return gen == s.generation
}

// Tool returns the active tool.
func (s *State) Tool() Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tool
}

// SetTool changes the active tool.
func (s *State) SetTool(t Tool) {
	s.mu.Lock()
	s.tool = t
	s.mu.Unlock()
	s.Emit(EventToolChanged, t)
}

// ActiveSegment returns the selected segment id, 0 when none.
func (s *State) ActiveSegment() uint16 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeSegment
}

// SetActiveSegment selects the segment the paint tool writes.
func (s *State) SetActiveSegment(id uint16) {
	s.mu.Lock()
	s.activeSegment = id
	s.mu.Unlock()
}

// BrushDiameter returns the brush diameter in image pixels.
func (s *State) BrushDiameter() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.brushDiameter
}

// SetBrushDiameter sets the brush diameter; non-positive values are
// ignored.
func (s *State) SetBrushDiameter(d int) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.brushDiameter = d
	s.mu.Unlock()
}

// SegmentationOpacity returns the global overlay opacity.
func (s *State) SegmentationOpacity() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.segmentationOpacity
}

// SetSegmentationOpacity sets the overlay opacity, clamped to [0,1].
func (s *State) SetSegmentationOpacity(o float64) {
	if o < 0 {
		o = 0
	}
	if o > 1 {
		o = 1
	}
	s.mu.Lock()
	s.segmentationOpacity = o
	s.mu.Unlock()
	s.Emit(EventMaskChanged, nil)
}

// SegmentationVisible returns the global segmentation visibility.
func (s *State) SegmentationVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.segmentationVisible
}

// SetSegmentationVisible toggles the whole segmentation layer.
func (s *State) SetSegmentationVisible(v bool) {
	s.mu.Lock()
	s.segmentationVisible = v
	s.mu.Unlock()
	s.Emit(EventMaskChanged, nil)
}

// RemoveSegment deletes a segment from the table and sweeps its pixels
// out of every cached mask of the current view.
func (s *State) RemoveSegment(id uint16) {
	s.mu.Lock()
	removed := s.Segments.Remove(id)
	if s.activeSegment == id {
		s.activeSegment = 0
	}
	view := s.view
	s.mu.Unlock()

	if !removed {
		return
	}
	if view != nil {
		view.Masks.RemoveID(id)
	}
	s.Emit(EventSegmentsChanged, nil)
	s.Emit(EventMaskChanged, nil)
}

// InvalidateSegmentVisuals drops the visual caches after a segment's
// color or visibility changed; masks rebuild them lazily on next draw.
func (s *State) InvalidateSegmentVisuals() {
	s.mu.RLock()
	view := s.view
	s.mu.RUnlock()

	if view != nil {
		view.Masks.InvalidateVisuals()
	}
	s.Emit(EventSegmentsChanged, nil)
	s.Emit(EventMaskChanged, nil)
}
