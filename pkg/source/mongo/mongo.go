// Package mongo reads artboard items from a MongoDB collection.
//
// Documents use the bson field names of [item.Item] (id, title, image,
// gallery, description, author, avatar, tag, aspect_ratio). Tag names are
// the distinct tag values of the collection.
package mongo

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/artboard/pkg/item"
)

// DefaultTimeout bounds server selection when dialing.
const DefaultTimeout = 10 * time.Second

// Source reads from one collection.
type Source struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New wraps an existing collection. Close is then a no-op; the caller owns
// the client.
func New(coll *mongo.Collection) *Source {
	return &Source{coll: coll}
}

// Dial connects to uri and selects database.collection. A zero timeout
// means DefaultTimeout.
func Dial(ctx context.Context, uri, database, collection string, timeout time.Duration) (*Source, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(timeout).
		SetAppName("artboard")
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	return &Source{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

// FetchItems returns every document ordered by id.
func (s *Source) FetchItems(ctx context.Context) ([]item.Item, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	items := []item.Item{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}
	for i := range items {
		if !(items[i].AspectRatio > 0) {
			items[i].AspectRatio = item.AspectFromID(items[i].ID)
		}
		if items[i].Tag == "" {
			items[i].Tag = item.Uncategorized
		}
	}
	return items, nil
}

// FetchTagNames returns the distinct non-empty tags, sorted.
func (s *Source) FetchTagNames(ctx context.Context) ([]string, error) {
	values, err := s.coll.Distinct(ctx, "tag", bson.D{})
	if err != nil {
		return nil, fmt.Errorf("mongo distinct: %w", err)
	}
	return tagNames(values), nil
}

// Seed replaces documents by id, inserting those that are missing.
func (s *Source) Seed(ctx context.Context, items []item.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	models := make([]mongo.WriteModel, 0, len(items))
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return 0, err
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "id", Value: it.ID}}).
			SetReplacement(it).
			SetUpsert(true))
	}
	res, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("mongo seed: %w", err)
	}
	return int(res.UpsertedCount + res.MatchedCount), nil
}

// Close disconnects a client created by Dial.
func (s *Source) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func tagNames(values []any) []string {
	names := make([]string, 0, len(values))
	for _, v := range values {
		if name, ok := v.(string); ok && name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}
