// Package presets provides named colorization settings: a fixed set of
// built-ins plus optional user presets loaded from YAML.
package presets

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"colorizer/colorize"

	"gopkg.in/yaml.v3"
)

// Preset errors
var (
	ErrUnknownPreset = errors.New("presets: unknown preset")
	ErrInvalidFile   = errors.New("presets: invalid preset file")
)

// Built-in preset names.
const (
	AutoEnhance = "Auto Enhance"
	Vintage     = "Vintage"
	Cinematic   = "Cinematic"
	Reset       = "Reset"
)

// Preset is a named set of pipeline settings.
type Preset struct {
	Name     string            `yaml:"name" json:"name"`
	Settings colorize.Settings `yaml:",inline" json:"settings"`
}

// Builtins returns the built-in presets in display order.
// This is a pure function with no side effects.
func Builtins() []Preset {
	return []Preset{
		{
			// Auto Enhance tunes the sliders only. Natural stands in for a
			// style and an explicit style overrides it.
			Name: AutoEnhance,
			Settings: colorize.Settings{
				Style:     colorize.StyleNatural,
				Intensity: 1.2,
				Enhancements: colorize.Enhancements{
					Brightness: 10, Contrast: 15, Saturation: 20, Warmth: 5, Sharpness: 10,
				},
			},
		},
		{
			Name: Vintage,
			Settings: colorize.Settings{
				Style:     colorize.StyleVintage,
				Intensity: 1.0,
				Enhancements: colorize.Enhancements{
					Brightness: -5, Contrast: 10, Saturation: -20, Warmth: 20, Sharpness: -5,
				},
			},
		},
		{
			Name: Cinematic,
			Settings: colorize.Settings{
				Style:     colorize.StyleCinematic,
				Intensity: 1.3,
				Enhancements: colorize.Enhancements{
					Brightness: 5, Contrast: 25, Saturation: 15, Warmth: -10, Sharpness: 15,
				},
			},
		},
		{
			Name:     Reset,
			Settings: colorize.DefaultSettings(),
		},
	}
}

// Key normalizes a preset name for lookup: case, surrounding space,
// underscores and hyphens are ignored, so "auto_enhance" finds "Auto Enhance".
// This is a pure function with no side effects.
func Key(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

// Registry holds the available presets. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	byKey   map[string]Preset
	ordered []string
}

// NewRegistry returns a registry holding only the built-ins.
func NewRegistry() *Registry {
	r := &Registry{byKey: make(map[string]Preset)}
	for _, p := range Builtins() {
		r.add(p)
	}
	return r
}

func (r *Registry) add(p Preset) {
	k := Key(p.Name)
	if _, exists := r.byKey[k]; !exists {
		r.ordered = append(r.ordered, k)
	}
	r.byKey[k] = p
}

// Get looks up a preset by name.
func (r *Registry) Get(name string) (Preset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byKey[Key(name)]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return p, nil
}

// Names returns preset names: built-ins first in display order, then user
// presets in the order they were loaded.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ordered))
	for _, k := range r.ordered {
		names = append(names, r.byKey[k].Name)
	}
	return names
}

// All returns every preset in Names order.
func (r *Registry) All() []Preset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Preset, 0, len(r.ordered))
	for _, k := range r.ordered {
		out = append(out, r.byKey[k])
	}
	return out
}

// Set adds or replaces a preset after validating its settings.
func (r *Registry) Set(p Preset) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: preset has no name", ErrInvalidFile)
	}
	if err := p.Settings.Validate(); err != nil {
		return fmt.Errorf("preset %q: %w", p.Name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(p)
	return nil
}

// file is the on-disk layout of a presets file.
type file struct {
	Presets []Preset `yaml:"presets"`
}

// Load reads presets from YAML and merges them over the current set.
// A preset without an intensity gets the default. Nothing is merged unless
// every preset in the stream is valid.
//
// Example:
//
//	presets:
//	  - name: Sunset
//	    style: vintage
//	    intensity: 1.4
//	    warmth: 30
func (r *Registry) Load(rd io.Reader) (int, error) {
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	for i := range f.Presets {
		p := &f.Presets[i]
		if strings.TrimSpace(p.Name) == "" {
			return 0, fmt.Errorf("%w: preset %d has no name", ErrInvalidFile, i+1)
		}
		if p.Settings.Intensity == 0 {
			p.Settings.Intensity = colorize.DefaultIntensity
		}
		if err := p.Settings.Validate(); err != nil {
			return 0, fmt.Errorf("%w: preset %q: %v", ErrInvalidFile, p.Name, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range f.Presets {
		r.add(p)
	}
	return len(f.Presets), nil
}

// LoadFile merges presets from a YAML file.
func (r *Registry) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read presets: %w", err)
	}
	n, err := r.Load(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// Marshal renders presets in the file layout accepted by Load.
func Marshal(ps []Preset) ([]byte, error) {
	return yaml.Marshal(file{Presets: ps})
}
