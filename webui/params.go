package webui

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"colorizer/colorize"
	"colorizer/imageio"
	"colorizer/presets"

	"github.com/google/uuid"
)

// errBadParam marks a client error in the form parameters.
var errBadParam = errors.New("invalid parameter")

// parseSettings builds pipeline settings from form values. A "preset" value
// supplies the starting point; explicit fields override it.
func parseSettings(form func(string) string, registry *presets.Registry) (colorize.Settings, string, error) {
	s := colorize.DefaultSettings()

	presetName := strings.TrimSpace(form("preset"))
	if presetName != "" && registry != nil {
		p, err := registry.Get(presetName)
		if err != nil {
			return s, "", fmt.Errorf("%w: unknown preset %q", errBadParam, presetName)
		}
		s = p.Settings
		presetName = p.Name
	}

	if v := strings.TrimSpace(form("style")); v != "" {
		style, err := colorize.ParseStyle(v)
		if err != nil {
			return s, "", fmt.Errorf("%w: unknown style %q", errBadParam, v)
		}
		s.Style = style
	}

	fields := []struct {
		name string
		dst  *float64
	}{
		{"intensity", &s.Intensity},
		{"brightness", &s.Brightness},
		{"contrast", &s.Contrast},
		{"saturation", &s.Saturation},
		{"warmth", &s.Warmth},
		{"sharpness", &s.Sharpness},
	}
	for _, f := range fields {
		v := strings.TrimSpace(form(f.name))
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return s, "", fmt.Errorf("%w: %s must be a number", errBadParam, f.name)
		}
		*f.dst = n
	}

	if err := s.Validate(); err != nil {
		return s, "", fmt.Errorf("%w: %v", errBadParam, err)
	}
	return s, presetName, nil
}

// allowedUpload reports whether the file name has an accepted extension.
// GIF is accepted on upload even though it is not an output format.
func allowedUpload(name string) bool {
	return imageio.IsSupportedExt(name) || strings.EqualFold(filepath.Ext(name), ".gif")
}

// sanitizeFilename reduces a client-supplied name to a safe base name of
// ASCII letters, digits, '.', '-' and '_'. Whitespace becomes '_'. If
// nothing usable remains, "upload" plus the original extension is used.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteByte('_')
		}
	}
	clean := strings.TrimLeft(b.String(), "._")

	ext := strings.ToLower(filepath.Ext(name))
	if clean == "" || strings.ToLower(filepath.Ext(clean)) != ext {
		return "upload" + sanitizeExt(ext)
	}
	return clean
}

func sanitizeExt(ext string) string {
	if len(ext) < 2 {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}

// saveUpload writes an uploaded part to dir as "<uuid>_<safe name>" and
// returns the path.
func saveUpload(fh *multipart.FileHeader, dir, safeName string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	path := filepath.Join(dir, uuid.NewString()+"_"+safeName)
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("save upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("save upload: %w", err)
	}
	return path, nil
}
