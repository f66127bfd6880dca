// Package stats aggregates play events in memory.
package stats

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"fizzbuzz-server/models"
)

var ErrClosed = errors.New("stats worker closed")

const requestTimeout = 2 * time.Second

// Worker owns the aggregate Stats. All mutation happens on the run goroutine.
// Reads and resets apply buffered events first, so a caller always sees its
// own earlier Record calls.
type Worker struct {
	logger     *zap.Logger
	eventsChan chan models.PlayEvent
	statsChan  chan chan models.Stats
	resetChan  chan struct{}
	closed     chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup

	stats models.Stats
}

var (
	_ models.Worker    = (*Worker)(nil)
	_ models.Publisher = (*Worker)(nil)
)

func NewWorker(logger *zap.Logger, bufferSize int) *Worker {
	if bufferSize < 1 {
		bufferSize = 1
	}
	w := &Worker{
		logger:     logger.Named("stats"),
		eventsChan: make(chan models.PlayEvent, bufferSize),
		statsChan:  make(chan chan models.Stats),
		resetChan:  make(chan struct{}),
		closed:     make(chan struct{}),
	}

	w.wg.Add(1)
	go w.run()

	return w
}

func (w *Worker) run() {
	defer w.wg.Done()

	for {
		select {
		case e := <-w.eventsChan:
			w.stats.Apply(e)
		case respChan := <-w.statsChan:
			w.drain()
			respChan <- w.stats
		case <-w.resetChan:
			w.drain()
			w.stats = models.Stats{}
		case <-w.closed:
			w.drain()
			return
		}
	}
}

func (w *Worker) drain() {
	for {
		select {
		case e := <-w.eventsChan:
			w.stats.Apply(e)
		default:
			return
		}
	}
}

// Record enqueues e without blocking. Events are dropped when the buffer is full.
func (w *Worker) Record(e models.PlayEvent) {
	select {
	case <-w.closed:
		w.logger.Debug("worker closed, dropping event", zap.String("endpoint", e.Endpoint))
		return
	default:
	}

	select {
	case w.eventsChan <- e:
	default:
		w.logger.Warn("events channel full, dropping event",
			zap.String("endpoint", e.Endpoint),
			zap.Int("answers", e.Answers))
	}
}

// Publish records e directly, for use when no event transport is configured.
func (w *Worker) Publish(_ context.Context, e models.PlayEvent) error {
	select {
	case <-w.closed:
		return ErrClosed
	default:
	}
	w.Record(e)
	return nil
}

func (w *Worker) Ping(_ context.Context) error {
	select {
	case <-w.closed:
		return ErrClosed
	default:
		return nil
	}
}

func (w *Worker) GetStats() models.Stats {
	respChan := make(chan models.Stats, 1)
	select {
	case w.statsChan <- respChan:
		return <-respChan
	case <-w.closed:
		return models.Stats{}
	case <-time.After(requestTimeout):
		w.logger.Warn("timeout waiting for stats")
		return models.Stats{}
	}
}

func (w *Worker) Reset() {
	select {
	case w.resetChan <- struct{}{}:
	case <-w.closed:
	case <-time.After(requestTimeout):
		w.logger.Warn("timeout waiting for reset")
	}
}

// Close stops the run loop after applying any buffered events.
func (w *Worker) Close() error {
	w.closeOnce.Do(func() {
		close(w.closed)
	})
	w.wg.Wait()
	return nil
}
