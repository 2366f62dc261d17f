// Package layout assigns world-space rectangles to items by masonry
// bin-packing.
//
// # Algorithm
//
// Columns keep a running height. Each item, in input order, goes into the
// currently shortest column (ties resolve to the lowest index), is sized to
// the column width with a height derived from its aspect ratio, and pushes
// that column down by its height plus the gap:
//
//	w, err := layout.Masonry(items, layout.DefaultConfig())
//
// The world is one gap wider than the packed columns so that wrapping the
// last column back onto the first leaves the same spacing as between any
// two columns. The world height is the tallest running column height.
//
// Placement is a pure function of the input order and the configuration.
// The optional starting jitter is drawn from a PCG seeded by [Config.Seed],
// so even jittered layouts are reproducible.
package layout

import (
	"math/rand/v2"

	"github.com/matzehuels/artboard/pkg/errors"
	"github.com/matzehuels/artboard/pkg/item"
	"github.com/matzehuels/artboard/pkg/world"
)

// Defaults match the reference artboard: twelve 350-unit columns separated by
// 80-unit gaps, with up to 400 units of cosmetic starting jitter.
const (
	DefaultColumns     = 12
	DefaultColumnWidth = 350.0
	DefaultGap         = 80.0
	DefaultJitter      = 400.0
	DefaultSeed        = uint64(42)
)

// Config holds the layout constants.
type Config struct {
	Columns     int     `toml:"columns" json:"columns"`
	ColumnWidth float64 `toml:"column_width" json:"column_width"`
	Gap         float64 `toml:"gap" json:"gap"`

	// Jitter is the upper bound of the random starting height of each
	// column. Zero disables it.
	Jitter float64 `toml:"jitter" json:"jitter"`
	Seed   uint64  `toml:"seed" json:"seed"`
}

// DefaultConfig returns the reference layout constants.
func DefaultConfig() Config {
	return Config{
		Columns:     DefaultColumns,
		ColumnWidth: DefaultColumnWidth,
		Gap:         DefaultGap,
		Jitter:      DefaultJitter,
		Seed:        DefaultSeed,
	}
}

// Validate rejects configurations that cannot produce a positive world.
func (c Config) Validate() error {
	if c.Columns < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout: columns must be at least 1, got %d", c.Columns)
	}
	if !(c.ColumnWidth > 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "layout: column width must be positive, got %v", c.ColumnWidth)
	}
	if !(c.Gap >= 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "layout: gap must not be negative, got %v", c.Gap)
	}
	if !(c.Jitter >= 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "layout: jitter must not be negative, got %v", c.Jitter)
	}
	return nil
}

// WorldWidth returns the wrap period along x. It depends only on the
// column constants, never on the items.
func (c Config) WorldWidth() float64 {
	n := float64(c.Columns)
	return n*c.ColumnWidth + (n-1)*c.Gap + c.Gap
}

// Masonry lays out items and returns the resulting world. The input slice
// is not modified; the returned world holds placed copies in input order.
// Items with a malformed aspect ratio are sized with
// [item.DefaultAspectRatio].
func Masonry(items []item.Item, cfg Config) (*world.World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	heights := startHeights(cfg)
	placed := make([]item.Item, len(items))
	for i, it := range items {
		col := shortest(heights)
		h := cfg.ColumnWidth / it.Ratio()

		it.X = float64(col) * (cfg.ColumnWidth + cfg.Gap)
		it.Y = heights[col]
		it.Width = cfg.ColumnWidth
		it.Height = h
		placed[i] = it

		heights[col] += h + cfg.Gap
	}

	return world.New(placed, cfg.WorldWidth(), tallest(heights)), nil
}

func startHeights(cfg Config) []float64 {
	heights := make([]float64, cfg.Columns)
	if cfg.Jitter == 0 {
		return heights
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	for i := range heights {
		heights[i] = rng.Float64() * cfg.Jitter
	}
	return heights
}

// shortest returns the index of the minimum height; the strict comparison
// keeps the lowest index on ties.
func shortest(heights []float64) int {
	best := 0
	for i := 1; i < len(heights); i++ {
		if heights[i] < heights[best] {
			best = i
		}
	}
	return best
}

func tallest(heights []float64) float64 {
	m := heights[0]
	for _, h := range heights[1:] {
		m = max(m, h)
	}
	return m
}
