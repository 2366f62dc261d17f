package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/matzehuels/artboard/pkg/cache"
	apperrors "github.com/matzehuels/artboard/pkg/errors"
	"github.com/matzehuels/artboard/pkg/item"
	"github.com/matzehuels/artboard/pkg/layout"
	"github.com/matzehuels/artboard/pkg/source"
)

type countingSource struct {
	items []item.Item
	calls int
}

func (s *countingSource) FetchItems(context.Context) ([]item.Item, error) {
	s.calls++
	return s.items, nil
}

func (s *countingSource) FetchTagNames(context.Context) ([]string, error) {
	return item.Tags(s.items), nil
}

func testItems() []item.Item {
	return []item.Item{
		{ID: 1, Title: "a", Tag: "Painting", AspectRatio: 1},
		{ID: 2, Title: "b", Tag: "Photo", AspectRatio: 2},
		{ID: 2, Title: "dup", AspectRatio: 1},
		{ID: 3, Title: "c", Tag: "Painting", AspectRatio: -1},
	}
}

func testOptions() Options {
	cfg := layout.DefaultConfig()
	cfg.Columns = 2
	cfg.Jitter = 0
	return Options{Source: "test", Location: "memory", Layout: cfg}
}

func newFileRunner(t *testing.T) *Runner {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestExecute(t *testing.T) {
	r := newFileRunner(t)
	src := &countingSource{items: testItems()}
	opts := testOptions()

	res, err := r.Execute(context.Background(), src, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Stats.ItemCount != 3 || res.Stats.Dropped != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.CacheInfo.FetchHit || res.CacheInfo.LayoutHit {
		t.Errorf("first run hit the cache: %+v", res.CacheInfo)
	}
	if !reflect.DeepEqual(res.Tags, []string{"Painting", "Photo"}) {
		t.Errorf("tags = %v", res.Tags)
	}
	if res.World.Len() != 3 || res.World.Width != opts.Layout.WorldWidth() {
		t.Errorf("world: len=%d width=%v", res.World.Len(), res.World.Width)
	}
	if err := res.World.Check(); err != nil {
		t.Errorf("world check: %v", err)
	}
	if res.ItemsHash == "" {
		t.Error("ItemsHash is empty")
	}

	again, err := r.Execute(context.Background(), src, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !again.CacheInfo.FetchHit || !again.CacheInfo.LayoutHit {
		t.Errorf("second run should hit both stages: %+v", again.CacheInfo)
	}
	if src.calls != 1 {
		t.Errorf("source called %d times, want 1", src.calls)
	}
	if !reflect.DeepEqual(again.World.Items, res.World.Items) {
		t.Error("cached world differs from computed world")
	}
	if _, ok := again.World.Item(3); !ok {
		t.Error("cached world was not reindexed")
	}

	opts.Refresh = true
	refreshed, err := r.Execute(context.Background(), src, opts)
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.CacheInfo.FetchHit || src.calls != 2 {
		t.Errorf("refresh should refetch: hit=%v calls=%d", refreshed.CacheInfo.FetchHit, src.calls)
	}
	if !refreshed.CacheInfo.LayoutHit {
		t.Error("unchanged items should reuse the cached world")
	}
}

func TestLayoutKeyedByConfig(t *testing.T) {
	r := newFileRunner(t)
	items, _ := item.Normalize(testItems())
	opts := testOptions()

	if _, hit, err := r.LayoutWithCacheInfo(context.Background(), items, opts); err != nil || hit {
		t.Fatalf("first layout: hit=%v err=%v", hit, err)
	}
	opts.Layout.Columns = 3
	w, hit, err := r.LayoutWithCacheInfo(context.Background(), items, opts)
	if err != nil || hit {
		t.Fatalf("changed columns should miss: hit=%v err=%v", hit, err)
	}
	if w.Width != opts.Layout.WorldWidth() {
		t.Errorf("width = %v, want %v", w.Width, opts.Layout.WorldWidth())
	}
}

func TestExecuteInvalidOptions(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	src := source.Static(nil)

	if _, err := r.Execute(context.Background(), src, Options{Layout: layout.DefaultConfig()}); !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("missing source kind: %v", err)
	}

	opts := testOptions()
	opts.Layout.Columns = 0
	if _, err := r.Execute(context.Background(), src, opts); !apperrors.Is(err, apperrors.ErrCodeInvalidConfig) {
		t.Errorf("bad layout: %v", err)
	}
}

func TestExecuteSourceError(t *testing.T) {
	boom := errors.New("boom")
	src := source.Func{Items: func(context.Context) ([]item.Item, error) { return nil, boom }}

	_, err := NewRunner(nil, nil, nil).Execute(context.Background(), src, testOptions())
	if !errors.Is(err, boom) {
		t.Errorf("Execute() error = %v, want wrapped source error", err)
	}
}

func TestExecuteEmpty(t *testing.T) {
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), source.Static(nil), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if res.World.Len() != 0 || !res.World.Degenerate() {
		t.Errorf("empty source should give an empty degenerate world, got %+v", res.World)
	}
}
