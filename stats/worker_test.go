package stats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"fizzbuzz-server/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func event(tally models.Tally) models.PlayEvent {
	return models.PlayEvent{Endpoint: "/game", Answers: tally.Total(), Tally: tally}
}

func TestWorkerRecord(t *testing.T) {
	w := NewWorker(zaptest.NewLogger(t), 16)
	defer w.Close()

	w.Record(event(models.Tally{Fizz: 1, Buzz: 1, Number: 3}))
	w.Record(event(models.Tally{FizzBuzz: 1}))

	assert.Equal(t, models.Stats{Plays: 2, Answers: 6, Fizz: 1, Buzz: 1, FizzBuzz: 1, Number: 3}, w.GetStats())
}

func TestWorkerReset(t *testing.T) {
	w := NewWorker(zaptest.NewLogger(t), 16)
	defer w.Close()

	w.Record(event(models.Tally{Number: 2}))
	w.Reset()
	assert.Equal(t, models.Stats{}, w.GetStats())

	w.Record(event(models.Tally{Fizz: 1}))
	assert.Equal(t, 1, w.GetStats().Plays)
}

func TestWorkerPublish(t *testing.T) {
	w := NewWorker(zaptest.NewLogger(t), 4)

	require.NoError(t, w.Ping(context.Background()))
	require.NoError(t, w.Publish(context.Background(), event(models.Tally{Buzz: 1})))
	assert.Equal(t, 1, w.GetStats().Buzz)

	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Publish(context.Background(), event(models.Tally{})), ErrClosed)
	assert.ErrorIs(t, w.Ping(context.Background()), ErrClosed)
}

func TestWorkerCloseIsIdempotent(t *testing.T) {
	w := NewWorker(zaptest.NewLogger(t), 1)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	// operations after close return promptly
	w.Record(event(models.Tally{Number: 1}))
	w.Reset()
	assert.Equal(t, models.Stats{}, w.GetStats())
}

func TestWorkerConcurrentRecord(t *testing.T) {
	w := NewWorker(zaptest.NewLogger(t), 1000)
	defer w.Close()

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 50; j++ {
				w.Record(event(models.Tally{Number: 1}))
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	assert.Equal(t, 500, w.GetStats().Plays)
}
