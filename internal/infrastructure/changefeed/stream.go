// Package changefeed turns "collection changed" signals into full snapshot
// streams, and provides the in-process notifier used without a broker.
package changefeed

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/loga-alumni/portal/internal/core/ports"
)

// FetchFunc reads the complete, ordered result of a query.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

type stream[T any] struct {
	snapshots chan []T
	errors    chan error
	listener  ports.ChangeListener
	cancel    context.CancelFunc
	once      sync.Once
}

// NewStream reads one snapshot right away and another after every change
// signal from listener. Signals that arrive while a read is in flight
// collapse into a single re-read. The first read or listener error ends the
// stream. listener must already be registered so no change goes unseen.
func NewStream[T any](ctx context.Context, listener ports.ChangeListener, fetch FetchFunc[T], log zerolog.Logger) ports.SnapshotStream[T] {
	streamCtx, cancel := context.WithCancel(ctx)
	s := &stream[T]{
		snapshots: make(chan []T, 1),
		errors:    make(chan error, 1),
		listener:  listener,
		cancel:    cancel,
	}
	go s.run(streamCtx, fetch, log)
	return s
}

func (s *stream[T]) Snapshots() <-chan []T { return s.snapshots }
func (s *stream[T]) Errors() <-chan error  { return s.errors }

func (s *stream[T]) Close() {
	s.once.Do(func() {
		s.cancel()
		s.listener.Close()
	})
}

func (s *stream[T]) run(ctx context.Context, fetch FetchFunc[T], log zerolog.Logger) {
	if !s.refresh(ctx, fetch) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.listener.Changes():
			if !s.refresh(ctx, fetch) {
				return
			}
		case err := <-s.listener.Errors():
			log.Warn().Err(err).Msg("change listener failed")
			s.errors <- err
			return
		}
	}
}

func (s *stream[T]) refresh(ctx context.Context, fetch FetchFunc[T]) bool {
	snap, err := fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.errors <- err
		}
		return false
	}
	if snap == nil {
		snap = []T{}
	}
	offer(s.snapshots, snap)
	return true
}

// offer sends v, replacing an undelivered older value. Only safe with a
// single sender.
func offer[V any](ch chan V, v V) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- v
}
