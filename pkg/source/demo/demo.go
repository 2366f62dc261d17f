// Package demo generates the built-in sample board: 400 copies of six base
// works, 2400 items in total, with aspect ratios drawn from a seeded PCG so
// every run lays out identically.
package demo

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/matzehuels/artboard/pkg/item"
)

const (
	// Copies is how many versions of each base work are generated.
	Copies = 400

	// DefaultSeed seeds the aspect-ratio generator.
	DefaultSeed = uint64(1)

	author = "SPBSU"
)

type base struct {
	title string
	tag   string
}

var bases = []base{
	{"SPBSU One", "Architecture"},
	{"SPBSU Two", "Campus"},
	{"SPBSU Three", "People"},
	{"SPBSU Four", "Architecture"},
	{"SPBSU Five", "Campus"},
	{"SPBSU Six", "People"},
}

// Size is the number of items Items returns.
var Size = Copies * len(bases)

// Source serves the generated board.
type Source struct {
	seed uint64
}

// New returns a demo source seeded with seed.
func New(seed uint64) *Source {
	return &Source{seed: seed}
}

// FetchItems returns the generated items.
func (s *Source) FetchItems(ctx context.Context) ([]item.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Items(s.seed), nil
}

// FetchTagNames returns the demo tags, sorted.
func (s *Source) FetchTagNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []string{"Architecture", "Campus", "People"}, nil
}

// Items generates the board. Item ids run from 1 to Size; copy i of base
// work b has id i*6+b+1 and title "<base> (v.i+1)". Aspect ratios lie in
// [0.8, 1.6).
func Items(seed uint64) []item.Item {
	rng := rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d))
	items := make([]item.Item, 0, Size)
	for i := range Copies {
		for b, w := range bases {
			items = append(items, item.Item{
				ID:          i*len(bases) + b + 1,
				Title:       fmt.Sprintf("%s (v.%d)", w.title, i+1),
				ImageRef:    fmt.Sprintf("demo/spbsu-%d.jpg", b+1),
				Description: fmt.Sprintf("Version %d of %s.", i+1, w.title),
				Author:      author,
				Tag:         w.tag,
				AspectRatio: 0.8 + rng.Float64()*0.8,
			})
		}
	}
	return items
}
