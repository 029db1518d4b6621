package changefeed

import (
	"context"
	"sync"

	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/pkg/metrics"
)

// LocalNotifier fans change signals out to listeners in this process only.
type LocalNotifier struct {
	mu   sync.RWMutex
	next int
	subs map[string]map[int]*localListener
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{subs: make(map[string]map[int]*localListener)}
}

func (n *LocalNotifier) Notify(_ context.Context, collection string) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, l := range n.subs[collection] {
		l.signal()
	}
	metrics.ChangeNotificationsTotal.WithLabelValues(collection, "published").Inc()
	return nil
}

func (n *LocalNotifier) Listen(_ context.Context, collection string) (ports.ChangeListener, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.next
	n.next++
	l := &localListener{
		changes: make(chan struct{}, 1),
		errors:  make(chan error),
	}
	l.remove = func() {
		n.mu.Lock()
		delete(n.subs[collection], id)
		n.mu.Unlock()
	}
	if n.subs[collection] == nil {
		n.subs[collection] = make(map[int]*localListener)
	}
	n.subs[collection][id] = l
	return l, nil
}

// Listeners reports how many listeners are registered for collection.
func (n *LocalNotifier) Listeners(collection string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs[collection])
}

type localListener struct {
	changes chan struct{}
	errors  chan error
	remove  func()
	once    sync.Once
}

func (l *localListener) signal() {
	select {
	case l.changes <- struct{}{}:
	default:
	}
}

func (l *localListener) Changes() <-chan struct{} { return l.changes }
func (l *localListener) Errors() <-chan error     { return l.errors }
func (l *localListener) Close()                   { l.once.Do(l.remove) }
