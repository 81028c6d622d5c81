package logging

import (
	"fmt"
	"image"
	"time"

	"colorizer/colorize"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// settingsObject renders colorize.Settings as a nested log object.
type settingsObject colorize.Settings

func (s settingsObject) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("style", s.Style.String())
	enc.AddFloat64("intensity", s.Intensity)
	if e := colorize.Settings(s).Enhancements; !e.IsNeutral() {
		enc.AddFloat64("brightness", e.Brightness)
		enc.AddFloat64("contrast", e.Contrast)
		enc.AddFloat64("saturation", e.Saturation)
		enc.AddFloat64("warmth", e.Warmth)
		enc.AddFloat64("sharpness", e.Sharpness)
	}
	return nil
}

// Settings logs the full pipeline parameter set under "settings".
// Slider values are omitted when all are neutral.
//
// Example:
//
//	logger.Info("colorizing", logging.Settings(s))
func Settings(s colorize.Settings) zap.Field {
	return zap.Object("settings", settingsObject(s))
}

// Style logs the style name.
func Style(s colorize.Style) zap.Field {
	return zap.String("style", s.String())
}

// ImageSize logs dimensions as "WxH".
func ImageSize(b image.Rectangle) zap.Field {
	return zap.String("size", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()))
}

// Duration logs an elapsed time measured from start.
func Duration(start time.Time) zap.Field {
	return zap.Duration("duration", time.Since(start))
}

// Input and Output name the files a stage read and wrote.
func Input(path string) zap.Field  { return zap.String("input", path) }
func Output(path string) zap.Field { return zap.String("output", path) }

// Degraded flags a grayscale fallback and attaches its cause.
func Degraded(cause error) []zap.Field {
	if cause == nil {
		return []zap.Field{zap.Bool("degraded", false)}
	}
	return []zap.Field{zap.Bool("degraded", true), zap.NamedError("cause", cause)}
}
