// Package source defines where artboard items come from.
//
// A [Source] returns flat items and the tag vocabulary. Implementations live
// in subpackages (demo, mongo, sqlite) and in pkg/integrations/strapi.
// Callers that want the canvas to come up regardless of the backend wrap
// their source with [Resilient], which turns failures into an empty result.
package source

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/artboard/pkg/item"
)

// Source provides items and tag names.
type Source interface {
	// FetchItems returns all items. Geometry fields are ignored.
	FetchItems(ctx context.Context) ([]item.Item, error)

	// FetchTagNames returns the tag vocabulary. It may include tags that no
	// item carries.
	FetchTagNames(ctx context.Context) ([]string, error)
}

// Func adapts a pair of functions to a Source. A nil function yields an
// empty result.
type Func struct {
	Items func(ctx context.Context) ([]item.Item, error)
	Tags  func(ctx context.Context) ([]string, error)
}

// FetchItems implements Source.
func (f Func) FetchItems(ctx context.Context) ([]item.Item, error) {
	if f.Items == nil {
		return []item.Item{}, nil
	}
	return f.Items(ctx)
}

// FetchTagNames implements Source.
func (f Func) FetchTagNames(ctx context.Context) ([]string, error) {
	if f.Tags == nil {
		return []string{}, nil
	}
	return f.Tags(ctx)
}

// Static returns a Source serving a fixed list. Tag names are derived from
// the items.
func Static(items []item.Item) Source {
	return Func{
		Items: func(context.Context) ([]item.Item, error) {
			return append([]item.Item(nil), items...), nil
		},
		Tags: func(context.Context) ([]string, error) {
			return item.Tags(items), nil
		},
	}
}

// =============================================================================
// Resilience
// =============================================================================

type resilient struct {
	src    Source
	logger *log.Logger
}

// Resilient wraps src so fetch failures are logged at warn level and
// reported as empty results. A nil logger discards.
func Resilient(src Source, logger *log.Logger) Source {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &resilient{src: src, logger: logger}
}

func (r *resilient) FetchItems(ctx context.Context) ([]item.Item, error) {
	items, err := r.src.FetchItems(ctx)
	if err != nil {
		r.logger.Warn("fetching items failed, showing an empty board", "err", err)
		return []item.Item{}, nil
	}
	if items == nil {
		items = []item.Item{}
	}
	return items, nil
}

func (r *resilient) FetchTagNames(ctx context.Context) ([]string, error) {
	tags, err := r.src.FetchTagNames(ctx)
	if err != nil {
		r.logger.Warn("fetching tags failed", "err", err)
		return []string{}, nil
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}
