package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrixValid(t *testing.T) {
	assert.True(t, Matrix{{1, 0}, {0, 1}}.Valid(2))
	assert.False(t, Matrix{{1, 0}}.Valid(2))
	assert.False(t, Matrix{{1, 0}, {0}}.Valid(2))
	assert.True(t, Matrix{}.Valid(0))
	assert.False(t, Matrix(nil).Valid(1))
}

func TestScoresRowMean(t *testing.T) {
	m := Matrix{
		{1.0, 0.8, 0.2},
		{0.8, 1.0, 0.4},
		{0.2, 0.4, 1.0},
	}
	got := Scores(m, 3, Policy{IncludeDiagonal: true})
	require.Len(t, got, 3)
	assert.InDelta(t, 2.0/3, got[0], 1e-9)
	assert.InDelta(t, 2.2/3, got[1], 1e-9)
	assert.InDelta(t, 1.6/3, got[2], 1e-9)
}

func TestScoresExcludeDiagonal(t *testing.T) {
	m := Matrix{
		{1.0, 0.5},
		{0.5, 1.0},
	}
	got := Scores(m, 2, Policy{IncludeDiagonal: false})
	assert.InDelta(t, 0.5, got[0], 1e-9)
	assert.InDelta(t, 0.5, got[1], 1e-9)
}

func TestScoresMalformed(t *testing.T) {
	assert.Nil(t, Scores(nil, 2, DefaultPolicy()))
	assert.Nil(t, Scores(Matrix{{1}}, 2, DefaultPolicy()))
}

func TestOrderDescending(t *testing.T) {
	m := Matrix{
		{1.0, 0.1, 0.1},
		{0.1, 1.0, 0.9},
		{0.1, 0.9, 1.0},
	}
	assert.Equal(t, []int{1, 2, 0}, Order(3, m, DefaultPolicy()))
}

func TestOrderTiesPreserveSourceOrder(t *testing.T) {
	// All-equal 3x3: every row mean ties, so the stable sort must keep
	// source order exactly.
	m := Matrix{
		{0.5, 0.5, 0.5},
		{0.5, 0.5, 0.5},
		{0.5, 0.5, 0.5},
	}
	assert.Equal(t, []int{0, 1, 2}, Order(3, m, DefaultPolicy()))
	assert.Equal(t, []int{0, 1, 2}, Order(3, m, Policy{IncludeDiagonal: false}))
}

func TestOrderSingleCandidate(t *testing.T) {
	assert.Equal(t, []int{0}, Order(1, nil, DefaultPolicy()))
}

func TestOrderDegradesOnNilMatrix(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, Order(3, nil, DefaultPolicy()))
	assert.Equal(t, []int{0, 1}, Order(2, Matrix{{1}}, DefaultPolicy()))
}
