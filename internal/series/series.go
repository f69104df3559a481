// Package series models an ordered sequence of 2D frames sharing one
// acquisition identity, addressed by opaque frame locators.
package series

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Series is an ordered list of frame references with display metadata.
// A Series is immutable once loaded; switching series replaces it wholesale.
type Series struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Modality string   `json:"modality"`
	Frames   []string `json:"frames"` // opaque frame locator URLs, in order
}

// FrameCount returns the number of frames in the series.
func (s *Series) FrameCount() int {
	return len(s.Frames)
}

// FrameLocator returns the locator for the frame at index, or a bounds
// error. Indices are never clamped here; navigation clamps before asking.
func (s *Series) FrameLocator(index int) (string, error) {
	if index < 0 || index >= len(s.Frames) {
		return "", fmt.Errorf("frame index %d out of range [0,%d)", index, len(s.Frames))
	}
	return s.Frames[index], nil
}

// InstanceRendered reports whether a locator targets an instance-level
// rendered endpoint (".../instances/<uid>/rendered") rather than an
// explicit frame endpoint.
func InstanceRendered(locator string) bool {
	trimmed := strings.TrimSuffix(locator, "/")
	if !strings.HasSuffix(trimmed, "/rendered") {
		return false
	}
	return !strings.Contains(trimmed, "/frames/")
}

// RewriteToFirstFrame rewrites an instance-level rendered locator to its
// first-frame rendered equivalent. Some servers only serve pixel data at
// the frame level, so ".../rendered" becomes ".../frames/1/rendered".
// Locators that are not instance-level rendered are returned unchanged.
func RewriteToFirstFrame(locator string) string {
	if !InstanceRendered(locator) {
		return locator
	}
	trimmed := strings.TrimSuffix(locator, "/")
	base := strings.TrimSuffix(trimmed, "/rendered")
	return base + "/frames/1/rendered"
}

// Catalogue is a loadable list of series.
type Catalogue struct {
	Series []*Series `json:"series"`
}

// LoadCatalogue reads a series catalogue from a local path or http(s) URL.
func LoadCatalogue(location string) (*Catalogue, error) {
	var data []byte
	var err error

	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		resp, httpErr := http.Get(location)
		if httpErr != nil {
			return nil, fmt.Errorf("failed to fetch catalogue: %w", httpErr)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("catalogue request returned status %d", resp.StatusCode)
		}
		data, err = io.ReadAll(resp.Body)
	} else {
		data, err = os.ReadFile(location)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue: %w", err)
	}

	var cat Catalogue
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalogue: %w", err)
	}

	for i, s := range cat.Series {
		if s == nil || len(s.Frames) == 0 {
			return nil, fmt.Errorf("catalogue entry %d has no frames", i)
		}
		if s.Label == "" {
			s.Label = fmt.Sprintf("Series %d", i+1)
		}
	}
	return &cat, nil
}
