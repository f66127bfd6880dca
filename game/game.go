// Package game computes FizzBuzz answers.
package game

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
)

var (
	ErrIllegalCount  = errors.New("count to must be greater than zero")
	ErrCountTooLarge = errors.New("count to exceeds the allowed maximum")
)

const (
	Fizz     = "Fizz"
	Buzz     = "Buzz"
	FizzBuzz = "FizzBuzz"
)

// Kind classifies an answer value.
type Kind string

const (
	KindFizz     Kind = "fizz"
	KindBuzz     Kind = "buzz"
	KindFizzBuzz Kind = "fizzbuzz"
	KindNumber   Kind = "number"
)

// Answer is the result of the game for one number.
type Answer struct {
	Value string `json:"value"`
}

// CountToNumber is the inclusive upper bound of a sequential game.
// The zero value is not valid; use NewCountToNumber.
type CountToNumber struct {
	value int
}

func NewCountToNumber(n int) (CountToNumber, error) {
	if n < 1 {
		return CountToNumber{}, fmt.Errorf("%w: got %d", ErrIllegalCount, n)
	}
	return CountToNumber{value: n}, nil
}

func (c CountToNumber) Value() int {
	return c.value
}

// Game produces answers. Implementations must be safe for concurrent use.
type Game interface {
	// Play answers every number from 1 to countTo inclusive.
	Play(countTo CountToNumber) iter.Seq[Answer]
	// Answers answers each of numbers, in order.
	Answers(numbers []int) iter.Seq[Answer]
	// Validate checks countTo against the game's limits.
	Validate(countTo CountToNumber) error
}

type Option func(*Classic)

// WithMaxCountTo limits how far Play may count. Zero means no limit.
func WithMaxCountTo(n int) Option {
	return func(c *Classic) {
		c.maxCountTo = n
	}
}

// Classic plays by the 3/5 rules.
type Classic struct {
	maxCountTo int
}

func New(opts ...Option) *Classic {
	c := &Classic{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Classic) Validate(countTo CountToNumber) error {
	if countTo.value < 1 {
		return fmt.Errorf("%w: got %d", ErrIllegalCount, countTo.value)
	}
	if c.maxCountTo > 0 && countTo.value > c.maxCountTo {
		return fmt.Errorf("%w: got %d, maximum is %d", ErrCountTooLarge, countTo.value, c.maxCountTo)
	}
	return nil
}

func (c *Classic) Play(countTo CountToNumber) iter.Seq[Answer] {
	return func(yield func(Answer) bool) {
		for n := range span(1, countTo.value) {
			if !yield(Answer{Value: Say(n)}) {
				return
			}
		}
	}
}

// span yields count consecutive integers starting at first. It stops after
// count values even when the last one is math.MaxInt.
func span(first, count int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := range count {
			if !yield(first + i) {
				return
			}
		}
	}
}

func (c *Classic) Answers(numbers []int) iter.Seq[Answer] {
	return func(yield func(Answer) bool) {
		for _, n := range numbers {
			if !yield(Answer{Value: Say(n)}) {
				return
			}
		}
	}
}

// Say returns the answer for n.
func Say(n int) string {
	switch {
	case n%15 == 0:
		return FizzBuzz
	case n%3 == 0:
		return Fizz
	case n%5 == 0:
		return Buzz
	default:
		return strconv.Itoa(n)
	}
}

// Classify reports which kind of answer value is.
func Classify(value string) Kind {
	switch value {
	case Fizz:
		return KindFizz
	case Buzz:
		return KindBuzz
	case FizzBuzz:
		return KindFizzBuzz
	default:
		return KindNumber
	}
}
