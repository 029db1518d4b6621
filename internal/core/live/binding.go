// Package live mirrors a remote collection in memory through a live
// subscription and forwards mutations to the store.
//
// A Binding moves through Unsubscribed → Subscribing → Live, and to Failed
// when the subscription breaks. Every snapshot replaces the whole mirror;
// mutations never touch the mirror directly and show up with the next
// snapshot instead.
package live

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/pkg/metrics"
)

// Document is anything a Binding can mirror.
type Document interface {
	DocID() string
}

type State int32

const (
	Unsubscribed State = iota
	Subscribing
	Live
	Failed
)

func (s State) String() string {
	switch s {
	case Subscribing:
		return "subscribing"
	case Live:
		return "live"
	case Failed:
		return "failed"
	default:
		return "unsubscribed"
	}
}

type Option func(*options)

type options struct {
	log     zerolog.Logger
	onError func(error)
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithErrorHandler is called once for every subscription that fails.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) { o.onError = fn }
}

// Binding is the in-memory mirror of one query over one collection.
type Binding[T Document] struct {
	coll    ports.Collection[T]
	query   ports.Query
	log     zerolog.Logger
	onError func(error)
	changed chan struct{}

	mu      sync.RWMutex
	state   State
	items   []T
	loading bool
	err     error
	version uint64
	sub     *subscription[T]
}

type subscription[T any] struct {
	stream ports.SnapshotStream[T]
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	name   string
}

// close tears the subscription down exactly once.
func (s *subscription[T]) close() {
	s.once.Do(func() {
		s.cancel()
		s.stream.Close()
		metrics.SubscriptionsActive.WithLabelValues(s.name).Dec()
	})
}

func New[T Document](coll ports.Collection[T], q ports.Query, opts ...Option) *Binding[T] {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Binding[T]{
		coll:    coll,
		query:   q,
		log:     o.log.With().Str("collection", coll.Name()).Logger(),
		onError: o.onError,
		changed: make(chan struct{}, 1),
		items:   []T{},
		loading: true,
	}
}

// Start opens the subscription. Calling Start on a subscribing or live
// binding is a no-op; calling it after Close or a failure resubscribes.
func (b *Binding[T]) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.state == Subscribing || b.state == Live {
		b.mu.Unlock()
		return nil
	}
	b.state = Subscribing
	b.loading = true
	b.err = nil
	b.mu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	stream, err := b.coll.Subscribe(subCtx, b.query)
	if err != nil {
		cancel()
		return b.fail(nil, err)
	}

	name := b.coll.Name()
	sub := &subscription[T]{stream: stream, ctx: subCtx, cancel: cancel, name: name}
	metrics.SubscriptionsActive.WithLabelValues(name).Inc()

	b.mu.Lock()
	if b.state != Subscribing {
		// Closed while subscribing.
		b.mu.Unlock()
		sub.close()
		return nil
	}
	b.sub = sub
	b.mu.Unlock()

	b.log.Debug().Msg("subscribed")
	go b.run(sub)
	return nil
}

func (b *Binding[T]) run(sub *subscription[T]) {
	for {
		select {
		case <-sub.ctx.Done():
			return
		case snap := <-sub.stream.Snapshots():
			b.replace(sub, snap)
		case err := <-sub.stream.Errors():
			_ = b.fail(sub, err)
			sub.close()
			return
		}
	}
}

func (b *Binding[T]) replace(sub *subscription[T], snap []T) {
	b.mu.Lock()
	if b.sub != sub {
		b.mu.Unlock()
		return
	}
	b.items = snap
	b.loading = false
	b.state = Live
	b.version++
	b.mu.Unlock()

	metrics.SnapshotsTotal.WithLabelValues(b.coll.Name()).Inc()
	b.signal()
}

// fail moves to Failed while keeping the last good mirror. sub is nil when
// the subscription could not be opened at all.
func (b *Binding[T]) fail(sub *subscription[T], cause error) error {
	err := &domain.SubscriptionError{Collection: b.coll.Name(), Err: cause}

	b.mu.Lock()
	if b.sub != sub {
		b.mu.Unlock()
		return err
	}
	b.state = Failed
	b.loading = false
	b.err = err
	b.sub = nil
	b.version++
	b.mu.Unlock()

	metrics.SubscriptionErrorsTotal.WithLabelValues(b.coll.Name()).Inc()
	b.log.Error().Err(cause).Msg("subscription failed")
	if b.onError != nil {
		b.onError(err)
	}
	b.signal()
	return err
}

func (b *Binding[T]) signal() {
	select {
	case b.changed <- struct{}{}:
	default:
	}
}

// Close cancels the current subscription. Safe to call any number of times.
func (b *Binding[T]) Close() {
	b.mu.Lock()
	sub := b.sub
	b.sub = nil
	b.state = Unsubscribed
	b.mu.Unlock()

	if sub != nil {
		sub.close()
		b.log.Debug().Msg("unsubscribed")
	}
}

// Changed receives a signal after every mirror replacement or failure.
// Signals coalesce, so there should be a single reader.
func (b *Binding[T]) Changed() <-chan struct{} {
	return b.changed
}

func (b *Binding[T]) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

func (b *Binding[T]) Loading() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loading
}

func (b *Binding[T]) Err() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.err
}

// Items returns a copy of the mirror in store order.
func (b *Binding[T]) Items() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.items)
}

func (b *Binding[T]) View() ports.View[T] {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v := ports.View[T]{
		Items:   slices.Clone(b.items),
		Loading: b.loading,
		Version: b.version,
	}
	if b.err != nil {
		v.Error = b.err.Error()
	}
	return v
}

// Find looks id up in the mirror.
func (b *Binding[T]) Find(id string) (T, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, it := range b.items {
		if it.DocID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

func (b *Binding[T]) Create(ctx context.Context, doc T) (string, error) {
	id, err := b.coll.Create(ctx, doc)
	b.recordWrite("create", err)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", b.coll.Name(), err)
	}
	return id, nil
}

func (b *Binding[T]) Update(ctx context.Context, id string, fields ports.Fields) error {
	err := b.coll.Update(ctx, id, fields)
	b.recordWrite("update", err)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", b.coll.Name(), id, err)
	}
	return nil
}

func (b *Binding[T]) Delete(ctx context.Context, id string) error {
	err := b.coll.Delete(ctx, id)
	b.recordWrite("delete", err)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", b.coll.Name(), id, err)
	}
	return nil
}

func (b *Binding[T]) recordWrite(op string, err error) {
	metrics.StoreWritesTotal.WithLabelValues(b.coll.Name(), op, metrics.Result(err)).Inc()
	if err != nil {
		b.log.Warn().Err(err).Str("op", op).Msg("store write failed")
	}
}
