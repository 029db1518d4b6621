// Package queue processes provider payment notifications off the request path.
package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes payment events to a fixed set of workers by payer
// email, so one member's payments are processed in arrival order.
type Dispatcher struct {
	workers   []chan ports.PaymentEvent
	processor ports.PaymentProcessor
	log       zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, processor ports.PaymentProcessor, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan ports.PaymentEvent, numWorkers),
		processor: processor,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.PaymentEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands ev to the worker responsible for its payer. It blocks while
// that worker's buffer is full, until ctx ends.
func (d *Dispatcher) Enqueue(ctx context.Context, ev ports.PaymentEvent) error {
	idx := d.shardIndex(ev.Email)
	select {
	case d.workers[idx] <- ev:
		metrics.PaymentsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps a payer deterministically to a worker index.
func (d *Dispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(email)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.PaymentEvent) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			metrics.PaymentsQueueDepth.WithLabelValues(label).Dec()
			kind := paymentKind(ev.Reference)

			start := time.Now()
			err := d.processor.ProcessPayment(ctx, ev)
			metrics.PaymentProcessingDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

			if err != nil {
				d.log.Error().Err(err).
					Str("reference", ev.Reference).
					Int("worker_id", id).
					Msg("payment processing failed")
			}
		}
	}
}

func paymentKind(reference string) string {
	if i := strings.IndexByte(reference, '_'); i > 0 {
		return reference[:i]
	}
	return "unknown"
}
