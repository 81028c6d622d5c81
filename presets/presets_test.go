package presets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"colorizer/colorize"
)

func TestBuiltins(t *testing.T) {
	tests := []struct {
		name      string
		style     colorize.Style
		intensity float64
		e         colorize.Enhancements
	}{
		{AutoEnhance, colorize.StyleNatural, 1.2, colorize.Enhancements{Brightness: 10, Contrast: 15, Saturation: 20, Warmth: 5, Sharpness: 10}},
		{Vintage, colorize.StyleVintage, 1.0, colorize.Enhancements{Brightness: -5, Contrast: 10, Saturation: -20, Warmth: 20, Sharpness: -5}},
		{Cinematic, colorize.StyleCinematic, 1.3, colorize.Enhancements{Brightness: 5, Contrast: 25, Saturation: 15, Warmth: -10, Sharpness: 15}},
		{Reset, colorize.StyleNatural, 1.0, colorize.Enhancements{}},
	}

	r := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := r.Get(tt.name)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			s := p.Settings
			if s.Style != tt.style || s.Intensity != tt.intensity || s.Enhancements != tt.e {
				t.Errorf("settings = %+v", s)
			}
			if err := s.Validate(); err != nil {
				t.Errorf("built-in preset is invalid: %v", err)
			}
		})
	}
}

func TestRegistry_GetNormalizesName(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"auto enhance", "AUTO_ENHANCE", " auto-enhance ", "Auto  Enhance"} {
		p, err := r.Get(name)
		if err != nil {
			t.Errorf("Get(%q) error = %v", name, err)
			continue
		}
		if p.Name != AutoEnhance {
			t.Errorf("Get(%q).Name = %q", name, p.Name)
		}
	}
	if _, err := r.Get("noir"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("Get(noir) error = %v, want ErrUnknownPreset", err)
	}
}

func TestRegistry_Names(t *testing.T) {
	got := strings.Join(NewRegistry().Names(), ",")
	want := "Auto Enhance,Vintage,Cinematic,Reset"
	if got != want {
		t.Errorf("Names() = %s, want %s", got, want)
	}
}

func TestRegistry_Load(t *testing.T) {
	const doc = `
presets:
  - name: Sunset
    style: vintage
    intensity: 1.4
    warmth: 30
    saturation: 10
  - name: vintage
    style: Dramatic
    intensity: 0.8
    contrast: 40
  - name: Soft
    brightness: 5
`
	r := NewRegistry()
	n, err := r.Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Load() = %d presets, want 3", n)
	}

	sunset, err := r.Get("sunset")
	if err != nil {
		t.Fatal(err)
	}
	if sunset.Settings.Style != colorize.StyleVintage || sunset.Settings.Intensity != 1.4 ||
		sunset.Settings.Warmth != 30 || sunset.Settings.Saturation != 10 {
		t.Errorf("Sunset = %+v", sunset.Settings)
	}

	// User presets override built-ins with the same key.
	vintage, _ := r.Get(Vintage)
	if vintage.Settings.Style != colorize.StyleDramatic || vintage.Settings.Contrast != 40 {
		t.Errorf("overridden Vintage = %+v", vintage.Settings)
	}

	soft, _ := r.Get("soft")
	if soft.Settings.Intensity != colorize.DefaultIntensity || soft.Settings.Style != colorize.StyleNatural {
		t.Errorf("Soft defaults = %+v", soft.Settings)
	}

	want := "Auto Enhance,vintage,Cinematic,Reset,Sunset,Soft"
	if got := strings.Join(r.Names(), ","); got != want {
		t.Errorf("Names() = %s, want %s", got, want)
	}
}

func TestRegistry_LoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad style", "presets:\n  - name: X\n    style: neon\n"},
		{"out of range", "presets:\n  - name: X\n    warmth: 80\n"},
		{"intensity too high", "presets:\n  - name: X\n    intensity: 3\n"},
		{"missing name", "presets:\n  - style: natural\n"},
		{"unknown field", "presets:\n  - name: X\n    glow: 3\n"},
		{"not yaml", "presets: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			if _, err := r.Load(strings.NewReader(tt.doc)); !errors.Is(err, ErrInvalidFile) {
				t.Errorf("Load() error = %v, want ErrInvalidFile", err)
			}
			if len(r.Names()) != len(Builtins()) {
				t.Errorf("registry changed after failed load: %v", r.Names())
			}
		})
	}
}

func TestRegistry_LoadEmpty(t *testing.T) {
	n, err := NewRegistry().Load(strings.NewReader(""))
	if err != nil || n != 0 {
		t.Errorf("Load(empty) = %d, %v", n, err)
	}
}

func TestRegistry_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	if err := os.WriteFile(path, []byte("presets:\n  - name: Noir\n    style: dramatic\n    saturation: -100\n"), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	if _, err := r.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if _, err := r.Get("noir"); err != nil {
		t.Errorf("Get(noir) error = %v", err)
	}
	if _, err := r.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadFile(missing) error = %v", err)
	}
}

func TestMarshal_LoadsBack(t *testing.T) {
	data, err := Marshal(Builtins()[:1])
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), "style: Natural") {
		t.Errorf("style not written as text:\n%s", data)
	}

	r := &Registry{byKey: map[string]Preset{}}
	if _, err := r.Load(strings.NewReader(string(data))); err != nil {
		t.Fatalf("Load(Marshal()) error = %v", err)
	}
	p, err := r.Get(AutoEnhance)
	if err != nil || p.Settings != Builtins()[0].Settings {
		t.Errorf("loaded %+v, %v", p.Settings, err)
	}
}

func TestRegistry_Set(t *testing.T) {
	r := NewRegistry()
	bad := Preset{Name: "Loud", Settings: colorize.Settings{Style: colorize.StyleVibrant, Intensity: 5}}
	if err := r.Set(bad); !errors.Is(err, colorize.ErrInvalidSettings) {
		t.Errorf("Set(invalid) error = %v", err)
	}
	good := Preset{Name: "Loud", Settings: colorize.Settings{Style: colorize.StyleVibrant, Intensity: 2}}
	if err := r.Set(good); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if p, _ := r.Get("loud"); p.Settings.Style != colorize.StyleVibrant {
		t.Errorf("Get(loud) = %+v", p)
	}
}
