package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"fizzbuzz-server/config"
	"fizzbuzz-server/kafka"
	"fizzbuzz-server/metrics"
	"fizzbuzz-server/models"
	"fizzbuzz-server/stats"
	"fizzbuzz-server/utils"
)

var (
	configPath string
	port       string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fizzbuzz-server",
	Short: "Serve the FizzBuzz game over streaming HTTP",
	Long: `fizzbuzz-server answers FizzBuzz over HTTP.

  GET /game?countTo=N          answers for 1..N
  GET /game/answers?numbers=…  answers for each listed number

Play statistics are kept in memory. When kafka.brokers is configured, play
events travel through Kafka before being aggregated.`,
	SilenceUsage: true,
	RunE:         runServer,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to YAML config file")
	rootCmd.Flags().StringVarP(&port, "port", "p", "", "listen port, overrides config")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Port = port
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err = newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, cfg, logger)
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	worker := stats.NewWorker(logger, cfg.Stats.BufferSize)
	defer worker.Close()

	m := metrics.New()
	g, ctx := errgroup.WithContext(ctx)

	var publisher models.Publisher = worker
	if cfg.KafkaEnabled() {
		kcfg := cfg.KafkaSettings()
		producer := kafka.NewProducer(logger, kcfg)
		defer func() {
			if err := producer.Close(); err != nil {
				logger.Warn("closing kafka producer", zap.Error(err))
			}
		}()
		publisher = producer

		if err := pingWithRetry(ctx, producer, kcfg); err != nil {
			logger.Warn("kafka unreachable at startup, each play event will still be retried", zap.Error(err))
		}

		consumer := kafka.NewConsumer(logger, worker, kcfg)
		g.Go(func() error {
			return consumer.Run(ctx)
		})
		logger.Info("kafka events enabled",
			zap.Strings("brokers", kcfg.Brokers),
			zap.String("topic", kcfg.Topic))
	}

	srv := NewServer(cfg, logger, worker, publisher, m)
	g.Go(func() error {
		return srv.Run(ctx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// pingWithRetry checks the event transport at boot. The caller treats a
// failure as a warning since the broker may come up later.
func pingWithRetry(ctx context.Context, p models.Publisher, cfg kafka.Config) error {
	return utils.RetryContext(ctx, cfg.RetryAttempts, cfg.RetryBackoff, func() error {
		return p.Ping(ctx)
	})
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Format == "text" {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, nil
}
