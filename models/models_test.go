package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fizzbuzz-server/game"
)

func TestTallyAdd(t *testing.T) {
	var tally Tally
	for a := range game.New().Answers([]int{1, 3, 5, 15, 6, 2}) {
		tally.Add(a)
	}

	assert.Equal(t, Tally{Fizz: 2, Buzz: 1, FizzBuzz: 1, Number: 2}, tally)
	assert.Equal(t, 6, tally.Total())
}

func TestStatsApply(t *testing.T) {
	var s Stats
	s.Apply(PlayEvent{Answers: 5, Tally: Tally{Fizz: 1, Buzz: 1, Number: 3}})
	s.Apply(PlayEvent{Answers: 1, Tally: Tally{FizzBuzz: 1}})

	assert.Equal(t, Stats{Plays: 2, Answers: 6, Fizz: 1, Buzz: 1, FizzBuzz: 1, Number: 3}, s)
}
