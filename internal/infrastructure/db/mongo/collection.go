package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/infrastructure/changefeed"
	"github.com/loga-alumni/portal/internal/pkg/ids"
)

type CollectionOptions struct {
	// StampField receives the server time on Create, e.g. "createdAt".
	StampField string
	Indexes    []mongo.IndexModel
	Log        zerolog.Logger
}

// Collection implements ports.Collection on a Mongo collection. Every write
// is followed by a change notification; subscriptions re-read the ordered
// collection on each one.
type Collection[T any] struct {
	col      *mongo.Collection
	notifier ports.ChangeNotifier
	opts     CollectionOptions
	now      func() time.Time
}

func NewCollection[T any](db *mongo.Database, name string, notifier ports.ChangeNotifier, opts CollectionOptions) *Collection[T] {
	return &Collection[T]{
		col:      db.Collection(name),
		notifier: notifier,
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (c *Collection[T]) Name() string { return c.col.Name() }

func (c *Collection[T]) Subscribe(ctx context.Context, q ports.Query) (ports.SnapshotStream[T], error) {
	listener, err := c.notifier.Listen(ctx, c.Name())
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", c.Name(), err)
	}
	fetch := func(ctx context.Context) ([]T, error) { return c.List(ctx, q) }
	return changefeed.NewStream(ctx, listener, fetch, c.opts.Log), nil
}

func (c *Collection[T]) List(ctx context.Context, q ports.Query) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	for k, v := range q.Where {
		filter[k] = v
	}

	// _id is a ULID, so it breaks ties in insertion order.
	opts := options.Find()
	if f := q.OrderBy.Field; f != "" {
		dir := 1
		if q.OrderBy.Desc {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: f, Value: dir}, {Key: "_id", Value: 1}})
	} else {
		opts.SetSort(bson.D{{Key: "_id", Value: 1}})
	}

	cur, err := c.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.Name(), err)
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.Name(), err)
	}
	return out, nil
}

func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var out T
	if err := c.col.FindOne(ctx, bson.M{"_id": id}).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return out, domain.ErrNotFound
		}
		return out, fmt.Errorf("find %s/%s: %w", c.Name(), id, err)
	}
	return out, nil
}

func (c *Collection[T]) Create(ctx context.Context, doc T) (string, error) {
	m, err := encode(doc)
	if err != nil {
		return "", err
	}
	id := ids.New()
	m["_id"] = id
	if c.opts.StampField != "" {
		m[c.opts.StampField] = c.now()
	}

	writeCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if _, err := c.col.InsertOne(writeCtx, m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("insert %s: %w", c.Name(), domain.ErrDuplicate)
		}
		return "", fmt.Errorf("insert %s: %w", c.Name(), err)
	}
	c.notify(ctx)
	return id, nil
}

func (c *Collection[T]) Set(ctx context.Context, id string, doc T) error {
	m, err := encode(doc)
	if err != nil {
		return err
	}
	m["_id"] = id

	writeCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	opts := options.Replace().SetUpsert(true)
	if _, err := c.col.ReplaceOne(writeCtx, bson.M{"_id": id}, m, opts); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("replace %s/%s: %w", c.Name(), id, domain.ErrDuplicate)
		}
		return fmt.Errorf("replace %s/%s: %w", c.Name(), id, err)
	}
	c.notify(ctx)
	return nil
}

func (c *Collection[T]) Update(ctx context.Context, id string, fields ports.Fields) error {
	if len(fields) == 0 {
		return nil
	}
	set := bson.M{}
	for k, v := range fields {
		if k != "_id" {
			set[k] = v
		}
	}

	writeCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	res, err := c.col.UpdateOne(writeCtx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", c.Name(), id, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	c.notify(ctx)
	return nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	writeCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	res, err := c.col.DeleteOne(writeCtx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", c.Name(), id, err)
	}
	if res.DeletedCount > 0 {
		c.notify(ctx)
	}
	return nil
}

// EnsureIndexes creates the indexes configured for this collection.
func (c *Collection[T]) EnsureIndexes(ctx context.Context) error {
	if len(c.opts.Indexes) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := c.col.Indexes().CreateMany(ctx, c.opts.Indexes)
	return err
}

func (c *Collection[T]) notify(ctx context.Context) {
	if err := c.notifier.Notify(ctx, c.Name()); err != nil {
		c.opts.Log.Warn().Err(err).Str("collection", c.Name()).Msg("change notification failed")
	}
}

func encode(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	m := bson.M{}
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return m, nil
}

// OrderIndex indexes field descending, matching the newest-first listings.
func OrderIndex(field string) mongo.IndexModel {
	return mongo.IndexModel{Keys: bson.D{{Key: field, Value: -1}}}
}

func FieldIndex(field string) mongo.IndexModel {
	return mongo.IndexModel{Keys: bson.D{{Key: field, Value: 1}}}
}

// UniqueIndex rejects a second document carrying the same field value.
// Inserts that collide fail with domain.ErrDuplicate.
func UniqueIndex(field string) mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true),
	}
}
