// Package kafka carries play events between the HTTP handlers and the stats worker.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"fizzbuzz-server/models"
	"fizzbuzz-server/utils"
)

const (
	readErrorBackoff = 2 * time.Second
	// writerBatchTimeout keeps single-event writes from waiting on
	// kafka-go's default one-second batch window.
	writerBatchTimeout = 10 * time.Millisecond
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type dialFunc func(ctx context.Context, network, address string) (*kafka.Conn, error)

// Producer publishes play events to a single topic.
type Producer struct {
	logger  *zap.Logger
	writer  messageWriter
	brokers []string
	dial    dialFunc
	cfg     Config
}

var _ models.Publisher = (*Producer)(nil)

func NewProducer(logger *zap.Logger, cfg Config) *Producer {
	return &Producer{
		logger: logger.Named("kafka.producer"),
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: writerBatchTimeout,
		},
		brokers: cfg.Brokers,
		dial:    kafka.DialContext,
		cfg:     cfg,
	}
}

func (p *Producer) Publish(ctx context.Context, e models.PlayEvent) error {
	value, err := Encode(e)
	if err != nil {
		return err
	}
	msg := kafka.Message{Key: []byte(e.Endpoint), Value: value, Time: e.PlayedAt}

	if p.cfg.PublishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.PublishTimeout)
		defer cancel()
	}

	err = utils.RetryContext(ctx, p.cfg.RetryAttempts, p.cfg.RetryBackoff, func() error {
		return p.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", p.cfg.Topic, err)
	}
	p.logger.Debug("play event published",
		zap.String("topic", p.cfg.Topic),
		zap.String("endpoint", e.Endpoint),
		zap.Int("answers", e.Answers))
	return nil
}

// Ping succeeds if any broker accepts a connection.
func (p *Producer) Ping(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	var errs []error
	for _, broker := range p.brokers {
		conn, err := p.dial(ctx, "tcp", broker)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return conn.Close()
	}
	return fmt.Errorf("kafka unreachable: %w", errors.Join(errs...))
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// Consumer reads play events and records them on a worker.
type Consumer struct {
	logger *zap.Logger
	worker models.Worker
	reader messageReader
	topic  string
}

func NewConsumer(logger *zap.Logger, worker models.Worker, cfg Config) *Consumer {
	return &Consumer{
		logger: logger.Named("kafka.consumer"),
		worker: worker,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: cfg.Brokers,
			Topic:   cfg.Topic,
			GroupID: cfg.GroupID,
		}),
		topic: cfg.Topic,
	}
}

// Run consumes until ctx is done. It always closes the reader.
func (c *Consumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.Warn("closing reader", zap.Error(err))
		}
	}()

	c.logger.Info("consuming play events", zap.String("topic", c.topic))
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("read message", zap.String("topic", c.topic), zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(readErrorBackoff):
			}
			continue
		}

		e, err := Decode(msg.Value)
		if err != nil {
			c.logger.Warn("skipping malformed play event",
				zap.String("topic", c.topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			continue
		}
		c.worker.Record(e)
		c.logger.Debug("play event recorded",
			zap.String("endpoint", e.Endpoint),
			zap.Int64("offset", msg.Offset))
	}
}

func Encode(e models.PlayEvent) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode play event: %w", err)
	}
	return b, nil
}

func Decode(b []byte) (models.PlayEvent, error) {
	var e models.PlayEvent
	if err := json.Unmarshal(b, &e); err != nil {
		return models.PlayEvent{}, fmt.Errorf("decode play event: %w", err)
	}
	if e.Endpoint == "" {
		return models.PlayEvent{}, errors.New("decode play event: missing endpoint")
	}
	return e, nil
}
