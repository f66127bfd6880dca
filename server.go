package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"fizzbuzz-server/config"
	"fizzbuzz-server/game"
	"fizzbuzz-server/handlers"
	"fizzbuzz-server/metrics"
	"fizzbuzz-server/models"
)

type APIServer struct {
	addr            string
	shutdownTimeout time.Duration
	logger          *zap.Logger
	h               *handlers.Handler
	metrics         *metrics.Metrics
	srv             *http.Server
}

func NewServer(cfg *config.Config, logger *zap.Logger, w models.Worker, p models.Publisher, m *metrics.Metrics) *APIServer {
	g := game.New(game.WithMaxCountTo(cfg.Game.MaxCountTo))
	s := &APIServer{
		addr:            cfg.Addr(),
		shutdownTimeout: cfg.GetShutdownTimeout(),
		logger:          logger.Named("server"),
		h:               handlers.NewHandler(logger, g, w, p, m, cfg.Stats.BufferSize),
		metrics:         m,
	}
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *APIServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/game", s.h.Instrument("/game", s.h.Play))
	mux.HandleFunc("/game/answers", s.h.Instrument("/game/answers", s.h.Answers))
	mux.HandleFunc("/stats", s.h.Instrument("/stats", s.h.Stats))
	mux.HandleFunc("/reset", s.h.Instrument("/reset", s.h.Reset))
	mux.HandleFunc("/health", s.h.Instrument("/health", s.h.Health))
	mux.Handle("/metrics", s.metrics.Handler())
	return mux
}

// Close flushes play events still waiting for the publisher.
func (s *APIServer) Close() {
	s.h.Close()
}

// Run serves until ctx is done, then shuts down gracefully and flushes
// queued play events.
func (s *APIServer) Run(ctx context.Context) error {
	defer s.Close()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", s.addr))
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	s.logger.Info("server shutting down", zap.Duration("timeout", s.shutdownTimeout))
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
