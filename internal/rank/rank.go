// Package rank orders field candidates by cross-source similarity and
// provides the pure list reordering primitives used by the saliency
// hierarchy.
package rank

import "sort"

// Matrix is a square similarity matrix aligned to candidate order.
// Matrix[i][j] is the similarity of candidate i to candidate j; it is
// expected to be symmetric and the engine never computes it locally.
type Matrix [][]float64

// Valid reports whether m is a well-formed n×n matrix.
func (m Matrix) Valid(n int) bool {
	if len(m) != n {
		return false
	}
	for _, row := range m {
		if len(row) != n {
			return false
		}
	}
	return true
}

// Policy controls score aggregation. The reference comparison service
// defines self-similarity on the diagonal; whether it participates in the
// mean is configurable because the service's matrix semantics may change.
type Policy struct {
	IncludeDiagonal bool `yaml:"include_diagonal" mapstructure:"include_diagonal"`
}

// DefaultPolicy matches the observed reference behavior: the full row,
// diagonal included.
func DefaultPolicy() Policy {
	return Policy{IncludeDiagonal: true}
}

// Scores computes the aggregate similarity score per candidate: the mean
// of its matrix row under the policy. Returns nil if m is malformed.
func Scores(m Matrix, n int, p Policy) []float64 {
	if !m.Valid(n) || n == 0 {
		return nil
	}
	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		count := 0
		for j := 0; j < n; j++ {
			if !p.IncludeDiagonal && i == j {
				continue
			}
			sum += m[i][j]
			count++
		}
		if count > 0 {
			scores[i] = sum / float64(count)
		}
	}
	return scores
}

// Order returns candidate indices sorted by descending aggregate score.
// Ties preserve original source order (stable sort) so results are
// reproducible. A single candidate needs no matrix; a nil or malformed
// matrix degrades to the original order.
func Order(n int, m Matrix, p Policy) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if n <= 1 {
		return order
	}

	scores := Scores(m, n, p)
	if scores == nil {
		return order
	}

	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	return order
}
