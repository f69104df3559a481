// Package prefs persists sticky UI state between runs: the last loaded
// catalogue, the last browsed directory, and the paint tool defaults.
// Stored as a small JSON file under the user's config directory.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

const prefsFile = "preferences.json"

// Prefs is the typed preference set. Values never stored report the
// caller's fallback.
type Prefs struct {
	mu   sync.Mutex
	path string
	data fileData
}

// fileData is the on-disk JSON shape. Opacity is a pointer because a
// stored zero is a valid choice, distinct from never-stored.
type fileData struct {
	CatalogueLocation   string   `json:"catalogueLocation,omitempty"`
	LastDirectory       string   `json:"lastDirectory,omitempty"`
	BrushDiameter       int      `json:"brushDiameter,omitempty"`
	SegmentationOpacity *float64 `json:"segmentationOpacity,omitempty"`
}

// Load reads ~/.config/dicom-viewer/preferences.json. A missing or
// unreadable file yields empty preferences.
func Load() *Prefs {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return LoadFrom(filepath.Join(configDir, "dicom-viewer", prefsFile))
}

// LoadFrom reads preferences from an explicit path.
func LoadFrom(path string) *Prefs {
	p := &Prefs{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		return p
	}
	_ = json.Unmarshal(data, &p.data)
	return p
}

// Save writes the preferences to disk, creating the directory if needed.
func (p *Prefs) Save() error {
	p.mu.Lock()
	data, err := json.MarshalIndent(p.data, "", "  ")
	p.mu.Unlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}

// CatalogueLocation returns the last loaded catalogue URL or file path,
// or "" when none has been stored.
func (p *Prefs) CatalogueLocation() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data.CatalogueLocation
}

// SetCatalogueLocation records the catalogue to reopen on next start.
func (p *Prefs) SetCatalogueLocation(location string) {
	p.mu.Lock()
	p.data.CatalogueLocation = location
	p.mu.Unlock()
}

// LastDirectory returns the directory of the last file dialog use, or
// "" when none has been stored.
func (p *Prefs) LastDirectory() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data.LastDirectory
}

// SetLastDirectory records where file dialogs should open next time.
func (p *Prefs) SetLastDirectory(dir string) {
	p.mu.Lock()
	p.data.LastDirectory = dir
	p.mu.Unlock()
}

// BrushDiameter returns the saved brush size, or fallback when unset.
func (p *Prefs) BrushDiameter(fallback int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data.BrushDiameter <= 0 {
		return fallback
	}
	return p.data.BrushDiameter
}

// SetBrushDiameter records the brush size. Non-positive values clear
// the stored value.
func (p *Prefs) SetBrushDiameter(d int) {
	p.mu.Lock()
	if d <= 0 {
		d = 0
	}
	p.data.BrushDiameter = d
	p.mu.Unlock()
}

// SegmentationOpacity returns the saved overlay opacity, or fallback
// when unset. Zero is a valid stored opacity.
func (p *Prefs) SegmentationOpacity(fallback float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data.SegmentationOpacity == nil {
		return fallback
	}
	return *p.data.SegmentationOpacity
}

// SetSegmentationOpacity records the overlay opacity.
func (p *Prefs) SetSegmentationOpacity(o float64) {
	p.mu.Lock()
	p.data.SegmentationOpacity = &o
	p.mu.Unlock()
}
