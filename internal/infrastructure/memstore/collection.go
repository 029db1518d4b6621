// Package memstore keeps collections in process memory. Documents go through
// the same BSON mapping as the Mongo store, so field names, filters and
// ordering behave the same way. Used by tests and STORE_DRIVER=memory.
package memstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/infrastructure/changefeed"
	"github.com/loga-alumni/portal/internal/pkg/ids"
)

// Options tunes a Collection. Zero values pick sensible defaults.
type Options struct {
	// StampField receives the server time on Create, e.g. "createdAt".
	StampField string
	// Unique fields reject a second document with the same non-empty value,
	// like a unique index.
	Unique []string
	Now    func() time.Time
	NewID  func() string
	Log    zerolog.Logger
}

type entry struct {
	doc bson.M
	seq int64
}

// Collection implements ports.Collection in memory.
type Collection[T any] struct {
	name     string
	notifier ports.ChangeNotifier
	opts     Options

	mu           sync.RWMutex
	seq          int64
	docs         map[string]*entry
	writeErr     error
	subscribeErr error
}

func NewCollection[T any](name string, notifier ports.ChangeNotifier, opts Options) *Collection[T] {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = ids.New
	}
	return &Collection[T]{
		name:     name,
		notifier: notifier,
		opts:     opts,
		docs:     make(map[string]*entry),
	}
}

func (c *Collection[T]) Name() string { return c.name }

// FailWrites makes every following write return err; nil heals the store.
func (c *Collection[T]) FailWrites(err error) {
	c.mu.Lock()
	c.writeErr = err
	c.mu.Unlock()
}

// FailSubscribe makes every following Subscribe return err.
func (c *Collection[T]) FailSubscribe(err error) {
	c.mu.Lock()
	c.subscribeErr = err
	c.mu.Unlock()
}

func (c *Collection[T]) Subscribe(ctx context.Context, q ports.Query) (ports.SnapshotStream[T], error) {
	c.mu.RLock()
	err := c.subscribeErr
	c.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	listener, err := c.notifier.Listen(ctx, c.name)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", c.name, err)
	}
	fetch := func(ctx context.Context) ([]T, error) { return c.List(ctx, q) }
	return changefeed.NewStream(ctx, listener, fetch, c.opts.Log), nil
}

func (c *Collection[T]) List(_ context.Context, q ports.Query) ([]T, error) {
	where := bson.M{}
	if len(q.Where) > 0 {
		var err error
		if where, err = toDoc(bson.M(q.Where)); err != nil {
			return nil, fmt.Errorf("encode filter: %w", err)
		}
	}

	c.mu.RLock()
	matched := make([]*entry, 0, len(c.docs))
	for _, e := range c.docs {
		if matches(e.doc, where) {
			matched = append(matched, e)
		}
	}
	c.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })
	if f := q.OrderBy.Field; f != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			cmp := compare(matched[i].doc[f], matched[j].doc[f])
			if q.OrderBy.Desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	out := make([]T, 0, len(matched))
	for _, e := range matched {
		v, err := fromDoc[T](e.doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Collection[T]) Get(_ context.Context, id string) (T, error) {
	c.mu.RLock()
	e, ok := c.docs[id]
	c.mu.RUnlock()
	if !ok {
		var zero T
		return zero, domain.ErrNotFound
	}
	return fromDoc[T](e.doc)
}

func (c *Collection[T]) Create(ctx context.Context, doc T) (string, error) {
	m, err := toDoc(doc)
	if err != nil {
		return "", err
	}
	id := c.opts.NewID()
	m["_id"] = id
	if c.opts.StampField != "" {
		m[c.opts.StampField] = primitive.NewDateTimeFromTime(c.opts.Now())
	}

	c.mu.Lock()
	if c.writeErr != nil {
		c.mu.Unlock()
		return "", c.writeErr
	}
	if field, taken := c.conflict(m, id); taken {
		c.mu.Unlock()
		return "", fmt.Errorf("insert %s: %s already taken: %w", c.name, field, domain.ErrDuplicate)
	}
	c.seq++
	c.docs[id] = &entry{doc: m, seq: c.seq}
	c.mu.Unlock()

	c.notify(ctx)
	return id, nil
}

func (c *Collection[T]) Set(ctx context.Context, id string, doc T) error {
	m, err := toDoc(doc)
	if err != nil {
		return err
	}
	m["_id"] = id

	c.mu.Lock()
	if c.writeErr != nil {
		c.mu.Unlock()
		return c.writeErr
	}
	if field, taken := c.conflict(m, id); taken {
		c.mu.Unlock()
		return fmt.Errorf("replace %s/%s: %s already taken: %w", c.name, id, field, domain.ErrDuplicate)
	}
	if e, ok := c.docs[id]; ok {
		e.doc = m
	} else {
		c.seq++
		c.docs[id] = &entry{doc: m, seq: c.seq}
	}
	c.mu.Unlock()

	c.notify(ctx)
	return nil
}

// conflict reports the first unique field of m already held by another
// document. Callers hold c.mu.
func (c *Collection[T]) conflict(m bson.M, id string) (string, bool) {
	for _, field := range c.opts.Unique {
		v, ok := m[field]
		if !ok || v == nil || v == "" {
			continue
		}
		for otherID, e := range c.docs {
			if otherID != id && reflect.DeepEqual(e.doc[field], v) {
				return field, true
			}
		}
	}
	return "", false
}

func (c *Collection[T]) Update(ctx context.Context, id string, fields ports.Fields) error {
	if len(fields) == 0 {
		return nil
	}
	patch, err := toDoc(bson.M(fields))
	if err != nil {
		return err
	}
	delete(patch, "_id")

	c.mu.Lock()
	if c.writeErr != nil {
		c.mu.Unlock()
		return c.writeErr
	}
	e, ok := c.docs[id]
	if !ok {
		c.mu.Unlock()
		return domain.ErrNotFound
	}
	merged := make(bson.M, len(e.doc)+len(patch))
	for k, v := range e.doc {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	e.doc = merged
	c.mu.Unlock()

	c.notify(ctx)
	return nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.writeErr != nil {
		c.mu.Unlock()
		return c.writeErr
	}
	_, existed := c.docs[id]
	delete(c.docs, id)
	c.mu.Unlock()

	if existed {
		c.notify(ctx)
	}
	return nil
}

func (c *Collection[T]) notify(ctx context.Context) {
	if err := c.notifier.Notify(ctx, c.name); err != nil {
		c.opts.Log.Warn().Err(err).Str("collection", c.name).Msg("change notification failed")
	}
}

// toDoc round-trips v through BSON so stored values have the same shape as
// documents read back from Mongo.
func toDoc(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	m := bson.M{}
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("normalise document: %w", err)
	}
	return m, nil
}

func fromDoc[T any](m bson.M) (T, error) {
	var out T
	raw, err := bson.Marshal(m)
	if err != nil {
		return out, fmt.Errorf("encode document: %w", err)
	}
	if err := bson.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

func matches(doc, where bson.M) bool {
	for k, want := range where {
		if !reflect.DeepEqual(doc[k], want) {
			return false
		}
	}
	return true
}

// compare orders two BSON values of the same kind; missing values sort first.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch av := a.(type) {
	case primitive.DateTime:
		if bv, ok := b.(primitive.DateTime); ok {
			return cmpOrdered(av, bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return cmpOrdered(av, bv)
		}
	case int32:
		if bv, ok := b.(int32); ok {
			return cmpOrdered(av, bv)
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return cmpOrdered(av, bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return cmpOrdered(av, bv)
		}
	}
	return 0
}

func cmpOrdered[V int32 | int64 | float64 | string | primitive.DateTime](a, b V) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
