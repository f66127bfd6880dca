package models

import (
	"context"
	"time"

	"fizzbuzz-server/game"
)

// Tally counts answers by kind.
type Tally struct {
	Fizz     int `json:"fizz"`
	Buzz     int `json:"buzz"`
	FizzBuzz int `json:"fizzbuzz"`
	Number   int `json:"number"`
}

func (t *Tally) Add(a game.Answer) {
	switch game.Classify(a.Value) {
	case game.KindFizz:
		t.Fizz++
	case game.KindBuzz:
		t.Buzz++
	case game.KindFizzBuzz:
		t.FizzBuzz++
	default:
		t.Number++
	}
}

func (t Tally) Total() int {
	return t.Fizz + t.Buzz + t.FizzBuzz + t.Number
}

// PlayEvent summarises one completed answer stream.
type PlayEvent struct {
	Endpoint string    `json:"endpoint"`
	Answers  int       `json:"answers"`
	Tally    Tally     `json:"tally"`
	PlayedAt time.Time `json:"played_at"`
}

type Stats struct {
	Plays    int `json:"plays"`
	Answers  int `json:"answers"`
	Fizz     int `json:"fizz"`
	Buzz     int `json:"buzz"`
	FizzBuzz int `json:"fizzbuzz"`
	Number   int `json:"number"`
}

func (s *Stats) Apply(e PlayEvent) {
	s.Plays++
	s.Answers += e.Answers
	s.Fizz += e.Tally.Fizz
	s.Buzz += e.Tally.Buzz
	s.FizzBuzz += e.Tally.FizzBuzz
	s.Number += e.Tally.Number
}

type Worker interface {
	Record(e PlayEvent)
	GetStats() Stats
	Reset()
	Close() error
}

// Publisher delivers play events to whatever aggregates them.
type Publisher interface {
	Publish(ctx context.Context, e PlayEvent) error
	Ping(ctx context.Context) error
}
