package artboard

import (
	"github.com/matzehuels/artboard/pkg/camera"
	"github.com/matzehuels/artboard/pkg/cull"
	"github.com/matzehuels/artboard/pkg/errors"
	"github.com/matzehuels/artboard/pkg/input"
	"github.com/matzehuels/artboard/pkg/layout"
)

// Config holds the engine constants.
type Config struct {
	Layout   layout.Config `toml:"layout" json:"layout"`
	Viewport cull.Viewport `toml:"viewport" json:"viewport"`

	// Smoothing is the camera's per-tick fraction of remaining distance.
	Smoothing float64 `toml:"smoothing" json:"smoothing"`

	// ClickThreshold is the camera speed at or above which clicks are
	// treated as drag releases and dropped.
	ClickThreshold float64 `toml:"click_threshold" json:"click_threshold"`
}

// DefaultConfig returns the reference constants for a 1280x800 viewport.
func DefaultConfig() Config {
	return Config{
		Layout:         layout.DefaultConfig(),
		Viewport:       cull.Viewport{Width: 1280, Height: 800, Buffer: cull.DefaultBuffer},
		Smoothing:      camera.DefaultSmoothing,
		ClickThreshold: input.DefaultClickThreshold,
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if !(c.Viewport.Width >= 0) || !(c.Viewport.Height >= 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "viewport: size must not be negative, got %vx%v", c.Viewport.Width, c.Viewport.Height)
	}
	if !(c.Viewport.Buffer >= 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "viewport: buffer must not be negative, got %v", c.Viewport.Buffer)
	}
	if !(c.Smoothing > 0 && c.Smoothing <= 1) {
		return errors.New(errors.ErrCodeInvalidConfig, "camera: smoothing must be in (0, 1], got %v", c.Smoothing)
	}
	if !(c.ClickThreshold > 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "camera: click threshold must be positive, got %v", c.ClickThreshold)
	}
	return nil
}
