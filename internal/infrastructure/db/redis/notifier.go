package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/pkg/metrics"
)

// ChangesChannel is the Pub/Sub channel carrying change signals for collection.
func ChangesChannel(collection string) string {
	return "portal:changes:" + collection
}

// ChangeNotifier fans collection change signals out over Redis Pub/Sub so
// every API instance refreshes its subscriptions after any instance writes.
// Delivery is at-most-once: a signal published while a listener is
// reconnecting is lost until the next write.
type ChangeNotifier struct {
	client *redis.Client
}

func NewChangeNotifier(client *redis.Client) *ChangeNotifier {
	return &ChangeNotifier{client: client}
}

func (n *ChangeNotifier) Notify(ctx context.Context, collection string) error {
	if err := n.client.Publish(ctx, ChangesChannel(collection), collection).Err(); err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	metrics.ChangeNotificationsTotal.WithLabelValues(collection, "published").Inc()
	return nil
}

// Listen subscribes to the collection's channel and waits for Redis to
// confirm the subscription before returning.
func (n *ChangeNotifier) Listen(ctx context.Context, collection string) (ports.ChangeListener, error) {
	pubsub := n.client.Subscribe(ctx, ChangesChannel(collection))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", collection, err)
	}

	changes := make(chan struct{}, 1)
	errs := make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					if subCtx.Err() == nil {
						errs <- errors.New("change channel closed")
					}
					return
				}
				metrics.ChangeNotificationsTotal.WithLabelValues(collection, "received").Inc()
				select {
				case changes <- struct{}{}:
				default:
				}
			}
		}
	}()

	return &listener{changes: changes, errors: errs, cancel: cancel}, nil
}

type listener struct {
	changes chan struct{}
	errors  chan error
	cancel  func()
	once    sync.Once
}

func (l *listener) Changes() <-chan struct{} { return l.changes }
func (l *listener) Errors() <-chan error     { return l.errors }
func (l *listener) Close()                   { l.once.Do(l.cancel) }
