package sqlite

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matzehuels/artboard/pkg/errors"
	"github.com/matzehuels/artboard/pkg/item"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "art.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSeedAndFetch(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	in := []item.Item{
		{ID: 2, Title: "Bronze", Tag: "Sculpture", AspectRatio: 0.75, Author: "Ada",
			GalleryRefs: []string{"a.jpg", "b.jpg"}},
		{ID: 1, Title: "Harbour", Tag: "Painting", AspectRatio: 1.5, ImageRef: "h.jpg",
			Description: "Oil on canvas."},
	}
	n, err := s.Seed(ctx, in)
	if err != nil || n != 2 {
		t.Fatalf("Seed() = %d, %v", n, err)
	}

	got, err := s.FetchItems(ctx)
	if err != nil {
		t.Fatalf("FetchItems: %v", err)
	}
	want := []item.Item{in[1], in[0]}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FetchItems():\n got %+v\nwant %+v", got, want)
	}

	tags, err := s.FetchTagNames(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(tags, []string{"Painting", "Sculpture"}) {
		t.Errorf("FetchTagNames() = %v", tags)
	}
}

func TestSeedUpserts(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	if _, err := s.Seed(ctx, []item.Item{{ID: 1, Title: "old", AspectRatio: 1}}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Seed(ctx, []item.Item{{ID: 1, Title: "new", AspectRatio: 2}}); err != nil {
		t.Fatal(err)
	}

	if n, _ := s.Count(ctx); n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
	items, _ := s.FetchItems(ctx)
	if items[0].Title != "new" || items[0].AspectRatio != 2 {
		t.Errorf("item = %+v", items[0])
	}
}

func TestSeedRejectsInvalid(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	_, err := s.Seed(ctx, []item.Item{{ID: 1, Title: "ok", AspectRatio: 1}, {ID: 0, Title: "bad", AspectRatio: 1}})
	if !errors.Is(err, errors.ErrCodeInvalidItem) {
		t.Errorf("Seed() error = %v, want INVALID_ITEM", err)
	}
	if n, _ := s.Count(ctx); n != 0 {
		t.Errorf("failed seed left %d rows", n)
	}
}

func TestEmptyDatabase(t *testing.T) {
	s := openTemp(t)
	items, err := s.FetchItems(context.Background())
	if err != nil || items == nil || len(items) != 0 {
		t.Errorf("FetchItems() = %#v, %v", items, err)
	}
	tags, err := s.FetchTagNames(context.Background())
	if err != nil || tags == nil || len(tags) != 0 {
		t.Errorf("FetchTagNames() = %#v, %v", tags, err)
	}
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "art.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Seed(ctx, []item.Item{{ID: 5, Title: "kept", AspectRatio: 1}}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	items, _ := s.FetchItems(ctx)
	if len(items) != 1 || items[0].Title != "kept" {
		t.Errorf("items after reopen = %+v", items)
	}
}

func TestMissingAspectDerivedFromID(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	if _, err := s.db.ExecContext(ctx, `INSERT INTO projects(id, title) VALUES (9, 'bare')`); err != nil {
		t.Fatal(err)
	}
	items, _ := s.FetchItems(ctx)
	if len(items) != 1 || items[0].AspectRatio != item.AspectFromID(9) {
		t.Errorf("items = %+v", items)
	}
}
