package live

import (
	"context"

	"github.com/loga-alumni/portal/internal/core/ports"
)

// Watch opens a private binding over q and delivers its view after every
// snapshot until ctx ends or the subscription fails. The last view sent
// after a failure carries the error. The binding is closed when the
// returned channel closes.
func Watch[T Document](ctx context.Context, coll ports.Collection[T], q ports.Query, opts ...Option) (<-chan ports.View[T], error) {
	b := New(coll, q, opts...)
	if err := b.Start(ctx); err != nil {
		return nil, err
	}

	out := make(chan ports.View[T], 1)
	go func() {
		defer close(out)
		defer b.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-b.Changed():
				offer(out, b.View())
				if b.State() == Failed {
					return
				}
			}
		}
	}()
	return out, nil
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
