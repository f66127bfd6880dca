package game

import (
	"errors"
	"iter"
	"math"
	"slices"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values(seq iter.Seq[Answer]) []string {
	var out []string
	for a := range seq {
		out = append(out, a.Value)
	}
	return out
}

func TestSay(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "1"},
		{2, "2"},
		{3, "Fizz"},
		{5, "Buzz"},
		{9, "Fizz"},
		{10, "Buzz"},
		{15, "FizzBuzz"},
		{30, "FizzBuzz"},
		{0, "FizzBuzz"},
		{-3, "Fizz"},
		{-7, "-7"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Say(tt.n), "Say(%d)", tt.n)
	}
}

func TestSayRule(t *testing.T) {
	for n := -100; n <= 300; n++ {
		got := Say(n)
		switch {
		case n%15 == 0:
			assert.Equal(t, "FizzBuzz", got)
		case n%3 == 0:
			assert.Equal(t, "Fizz", got)
		case n%5 == 0:
			assert.Equal(t, "Buzz", got)
		default:
			assert.Equal(t, strconv.Itoa(n), got)
		}
	}
}

func TestNewCountToNumber(t *testing.T) {
	for _, n := range []int{0, -1, -100} {
		_, err := NewCountToNumber(n)
		assert.True(t, errors.Is(err, ErrIllegalCount), "n=%d", n)
	}

	c, err := NewCountToNumber(5)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Value())
}

func TestPlay(t *testing.T) {
	g := New()
	c, err := NewCountToNumber(5)
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "Fizz", "4", "Buzz"}, values(g.Play(c)))
}

func TestPlayYieldsCountAnswersInOrder(t *testing.T) {
	g := New()
	for _, n := range []int{1, 2, 15, 100} {
		c, err := NewCountToNumber(n)
		require.NoError(t, err)

		got := values(g.Play(c))
		require.Len(t, got, n)
		for i, v := range got {
			assert.Equal(t, Say(i+1), v)
		}
	}
}

func TestPlayStopsWhenConsumerStops(t *testing.T) {
	c, err := NewCountToNumber(1_000_000)
	require.NoError(t, err)

	var got []string
	for a := range New().Play(c) {
		got = append(got, a.Value)
		if len(got) == 3 {
			break
		}
	}
	assert.Equal(t, []string{"1", "2", "Fizz"}, got)
}

func TestAnswers(t *testing.T) {
	g := New()

	assert.Equal(t, []string{"1", "Buzz", "Fizz", "Buzz"}, values(g.Answers([]int{1, 5, 3, 10})))
	assert.Equal(t, []string{"FizzBuzz"}, values(g.Answers([]int{15})))
	assert.Empty(t, values(g.Answers(nil)))
}

func TestAnswersPreservesOrderAndDuplicates(t *testing.T) {
	in := []int{7, 3, 3, 45, 7, 1}
	got := values(New().Answers(in))
	want := []string{"7", "Fizz", "Fizz", "FizzBuzz", "7", "1"}
	assert.True(t, slices.Equal(want, got), "got %v", got)
}

func TestValidate(t *testing.T) {
	c, err := NewCountToNumber(50)
	require.NoError(t, err)

	assert.NoError(t, New().Validate(c))
	assert.NoError(t, New(WithMaxCountTo(50)).Validate(c))

	err = New(WithMaxCountTo(10)).Validate(c)
	assert.ErrorIs(t, err, ErrCountTooLarge)

	assert.ErrorIs(t, New().Validate(CountToNumber{}), ErrIllegalCount)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindFizz, Classify("Fizz"))
	assert.Equal(t, KindBuzz, Classify("Buzz"))
	assert.Equal(t, KindFizzBuzz, Classify("FizzBuzz"))
	assert.Equal(t, KindNumber, Classify("11"))
}

func TestSpanEndsAtMaxInt(t *testing.T) {
	var got []int
	for n := range span(math.MaxInt-2, 3) {
		got = append(got, n)
		require.LessOrEqual(t, len(got), 3, "span kept going past its count")
	}
	assert.Equal(t, []int{math.MaxInt - 2, math.MaxInt - 1, math.MaxInt}, got)
}

func TestPlayAcceptsMaxIntCount(t *testing.T) {
	c, err := NewCountToNumber(math.MaxInt)
	require.NoError(t, err)

	var got []string
	for a := range New().Play(c) {
		got = append(got, a.Value)
		if len(got) == 5 {
			break
		}
	}
	assert.Equal(t, []string{"1", "2", "Fizz", "4", "Buzz"}, got)
}
