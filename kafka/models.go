package kafka

import "time"

type Config struct {
	Brokers        []string
	Topic          string
	GroupID        string
	PublishTimeout time.Duration
	RetryAttempts  int
	RetryBackoff   time.Duration
}
