package handlers

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"fizzbuzz-server/metrics"
	"fizzbuzz-server/models"
)

// dispatcher publishes play events off the request path. A handler only
// enqueues, so a slow or unreachable publisher never holds a response open.
type dispatcher struct {
	h     *Handler
	queue chan models.PlayEvent
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

func newDispatcher(h *Handler, size int) *dispatcher {
	if size < 1 {
		size = 1
	}
	d := &dispatcher{h: h, queue: make(chan models.PlayEvent, size)}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *dispatcher) run() {
	defer d.wg.Done()
	for e := range d.queue {
		d.h.publish(context.Background(), e)
	}
}

// enqueue never blocks. Events are dropped once the queue is full or closed.
func (d *dispatcher) enqueue(e models.PlayEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.h.logger.Debug("dispatcher closed, dropping play event", zap.String("endpoint", e.Endpoint))
		return
	}
	select {
	case d.queue <- e:
	default:
		d.h.logger.Warn("play event queue full, dropping event", zap.String("endpoint", e.Endpoint))
		d.h.metrics.RecordPublish(metrics.OutcomeDropped)
	}
}

// close publishes whatever is queued and waits for the run goroutine.
func (d *dispatcher) close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})
	d.wg.Wait()
}
