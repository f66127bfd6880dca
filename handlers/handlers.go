package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"fizzbuzz-server/game"
	"fizzbuzz-server/metrics"
	"fizzbuzz-server/models"
)

type Handler struct {
	logger    *zap.Logger
	game      game.Game
	worker    models.Worker
	publisher models.Publisher
	metrics   *metrics.Metrics
	events    *dispatcher
	now       func() time.Time
}

// NewHandler starts the goroutine that publishes play events. queueSize
// bounds how many events may wait for the publisher; Close stops it.
func NewHandler(logger *zap.Logger, g game.Game, worker models.Worker, publisher models.Publisher, m *metrics.Metrics, queueSize int) *Handler {
	h := &Handler{
		logger:    logger.Named("handlers"),
		game:      g,
		worker:    worker,
		publisher: publisher,
		metrics:   m,
		now:       time.Now,
	}
	h.events = newDispatcher(h, queueSize)
	return h
}

// Close publishes queued play events and stops the publishing goroutine.
// Call it after the HTTP server has stopped accepting requests.
func (h *Handler) Close() {
	h.events.close()
}

// Play streams answers for 1..countTo.
func (h *Handler) Play(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodGet) {
		return
	}

	raw := r.URL.Query().Get("countTo")
	if raw == "" {
		h.writeError(w, r, http.StatusBadRequest, "Required parameter 'countTo' is not present")
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("Parameter 'countTo' must be an integer, got %q", raw))
		return
	}

	countTo, err := game.NewCountToNumber(n)
	if err == nil {
		err = h.game.Validate(countTo)
	}
	if err != nil {
		if errors.Is(err, game.ErrIllegalCount) || errors.Is(err, game.ErrCountTooLarge) {
			h.writeError(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Debug("playing", zap.Int("count_to", countTo.Value()))
	h.stream(w, r, h.game.Play(countTo))
}

// Answers streams one answer per number in the numbers query parameter.
func (h *Handler) Answers(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodGet) {
		return
	}

	numbers, err := parseNumbers(r.URL.Query()["numbers"])
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Debug("answering", zap.Ints("numbers", numbers))
	h.stream(w, r, h.game.Answers(numbers))
}

// parseNumbers accepts comma-delimited values, optionally spread over
// repeated parameters.
func parseNumbers(values []string) ([]int, error) {
	var numbers []int
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				return nil, errors.New("Parameter 'numbers' must not contain empty items")
			}
			n, err := strconv.Atoi(item)
			if err != nil {
				return nil, fmt.Errorf("Parameter 'numbers' must contain integers, got %q", item)
			}
			numbers = append(numbers, n)
		}
	}
	if len(numbers) == 0 {
		return nil, errors.New("Required parameter 'numbers' is not present")
	}
	return numbers, nil
}

// stream writes answers as they are produced. Nothing is written before the
// caller has validated the request, so errors never follow a partial body.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request, answers iter.Seq[game.Answer]) {
	enc := negotiate(r.Header.Get("Accept"))
	w.Header().Set("Content-Type", enc.contentType())
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	var tally models.Tally
	err := enc.begin(w)
	if err == nil {
		for a := range answers {
			if err = ctx.Err(); err != nil {
				break
			}
			if err = enc.encode(w, a); err != nil {
				break
			}
			tally.Add(a)
			flush(w)
		}
	}
	if err == nil {
		err = enc.end(w)
	}
	flush(w)

	h.metrics.AddAnswers(tally)
	if err != nil {
		h.logger.Info("answer stream aborted",
			zap.String("path", r.URL.Path),
			zap.Int("answers", tally.Total()),
			zap.Error(err))
		return
	}

	h.events.enqueue(models.PlayEvent{
		Endpoint: r.URL.Path,
		Answers:  tally.Total(),
		Tally:    tally,
		PlayedAt: h.now().UTC(),
	})
}

func (h *Handler) publish(ctx context.Context, e models.PlayEvent) {
	if err := h.publisher.Publish(ctx, e); err != nil {
		h.metrics.RecordPublish(metrics.OutcomeError)
		h.logger.Warn("failed to publish play event", zap.String("endpoint", e.Endpoint), zap.Error(err))
		return
	}
	h.metrics.RecordPublish(metrics.OutcomeSuccess)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodGet) {
		return
	}

	stats := h.worker.GetStats()
	h.writeJSON(w, r, http.StatusOK, stats)
	h.logger.Debug("stats sent", zap.Int("plays", stats.Plays), zap.Int("answers", stats.Answers))
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodPost) {
		return
	}

	h.worker.Reset()
	h.writeJSON(w, r, http.StatusOK, ResetResponse{Status: "reset completed"})
	h.logger.Info("stats reset")
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.publisher.Ping(ctx); err != nil {
		h.logger.Warn("event publisher unreachable", zap.Error(err))
		h.writeJSON(w, r, http.StatusServiceUnavailable, HealthResponse{ServerStatus: "error", EventsStatus: "disconnected"})
		return
	}
	h.writeJSON(w, r, http.StatusOK, HealthResponse{ServerStatus: "ok", EventsStatus: "connected"})
}

func (h *Handler) allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	h.writeError(w, r, http.StatusMethodNotAllowed, fmt.Sprintf("Request method '%s' is not supported", r.Method))
	return false
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.logger.Debug("request rejected",
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("message", message))

	h.writeJSON(w, r, status, ErrorResponse{
		Timestamp: h.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Path:      r.URL.Path,
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", zap.String("path", r.URL.Path), zap.Error(err))
	}
}
