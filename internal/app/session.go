package app

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"dicom-viewer/internal/measure"
	"dicom-viewer/internal/segment"
)

// SessionFile is the JSON structure of a saved viewer session. Masks are
// in-memory only and are not persisted; the session captures the segment
// table and committed measurements per series.
type SessionFile struct {
	Version  int       `json:"version"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	Segments     []*segment.Segment                `json:"segments,omitempty"`
	Measurements map[string][]*measure.Measurement `json:"measurements,omitempty"`
}

// SaveSession writes the current segments and measurements to path.
func (s *State) SaveSession(path string) error {
	now := time.Now()
	file := SessionFile{
		Version:      1,
		Created:      now,
		Modified:     now,
		Segments:     s.Segments.List(),
		Measurements: make(map[string][]*measure.Measurement),
	}

	if s.Catalogue != nil {
		for _, sr := range s.Catalogue.Series {
			if list := s.Measurements.ForSeries(sr.ID); len(list) > 0 {
				file.Measurements[sr.ID] = list
			}
		}
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadSession replaces segments and measurements from a session file.
// Masks are untouched; visual caches are invalidated so recolored
// segments show correctly on the next draw.
func (s *State) LoadSession(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file SessionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse session: %w", err)
	}

	s.Segments.Restore(file.Segments)
	for seriesID, list := range file.Measurements {
		s.Measurements.Restore(seriesID, list)
	}

	if view := s.View(); view != nil {
		view.Masks.InvalidateVisuals()
	}

	s.Emit(EventSessionLoaded, path)
	s.Emit(EventSegmentsChanged, nil)
	s.Emit(EventMeasurementsChanged, nil)
	return nil
}
