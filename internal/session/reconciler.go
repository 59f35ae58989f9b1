package session

import (
	"github.com/sells-group/curation-cli/internal/model"
	"github.com/sells-group/curation-cli/internal/rank"
)

// RankedCandidate is one source's value for a scalar field, in
// presentation order with its aggregate similarity score.
type RankedCandidate struct {
	SourceIndex int     `json:"source_index"`
	Value       string  `json:"value"`
	Score       float64 `json:"score"`
	Selected    bool    `json:"selected"`
}

// FieldReconciler resolves one scalar/free-text field to either a source's
// value or a manual override. Candidates start in source order and are
// re-ranked when a similarity matrix arrives; a failed similarity call
// leaves them unranked with the first source defaulted.
type FieldReconciler struct {
	key       string
	values    []string
	order     []int
	scores    []float64
	ranked    bool
	selection model.FieldSelection
}

func newFieldReconciler(key string, sources []model.SourceAnalysis) *FieldReconciler {
	f := &FieldReconciler{
		key:       key,
		values:    make([]string, len(sources)),
		selection: model.FieldSelection{FieldKey: key},
	}
	for i, src := range sources {
		f.values[i] = src.ScalarField(key)
	}
	f.order = rank.Order(len(f.values), nil, rank.Policy{})

	// Default selection: first candidate in presentation order. A field
	// with no sources stays unresolved and resolves to "".
	if len(f.order) > 0 {
		idx := f.order[0]
		f.selection.SourceIndex = &idx
	}
	return f
}

// Values returns the raw per-source values in source order. Used for
// similarity requests, which must align the matrix to this order.
func (f *FieldReconciler) Values() []string {
	return f.values
}

// ApplyMatrix re-ranks candidates from a similarity matrix. The default
// selection moves to the new top candidate only if the curator has not
// diverged from the previous default.
func (f *FieldReconciler) ApplyMatrix(m rank.Matrix, p rank.Policy) {
	n := len(f.values)
	if !m.Valid(n) || n <= 1 {
		return
	}
	prevDefault := -1
	if len(f.order) > 0 {
		prevDefault = f.order[0]
	}
	f.order = rank.Order(n, m, p)
	f.scores = rank.Scores(m, n, p)
	f.ranked = true

	if !f.selection.Manual && f.selection.SourceIndex != nil && *f.selection.SourceIndex == prevDefault {
		idx := f.order[0]
		f.selection.SourceIndex = &idx
	}
}

// Candidates returns the candidates in presentation order.
func (f *FieldReconciler) Candidates() []RankedCandidate {
	out := make([]RankedCandidate, 0, len(f.order))
	for _, idx := range f.order {
		c := RankedCandidate{SourceIndex: idx, Value: f.values[idx]}
		if f.scores != nil {
			c.Score = f.scores[idx]
		}
		if !f.selection.Manual && f.selection.SourceIndex != nil && *f.selection.SourceIndex == idx {
			c.Selected = true
		}
		out = append(out, c)
	}
	return out
}

// Ranked reports whether similarity ranking was applied (false after a
// degraded similarity call or for single-source fields).
func (f *FieldReconciler) Ranked() bool {
	return f.ranked
}

// ChooseSource selects a source's value and clears any manual override.
func (f *FieldReconciler) ChooseSource(index int) {
	if index < 0 || index >= len(f.values) {
		return
	}
	idx := index
	f.selection.SourceIndex = &idx
	f.selection.Manual = false
	f.selection.ManualValue = ""
}

// ChooseManual switches the field to a manual value. Typing into the
// manual control routes here, so input implicitly promotes the field to
// manual with no separate activation step.
func (f *FieldReconciler) ChooseManual(value string) {
	f.selection.SourceIndex = nil
	f.selection.Manual = true
	f.selection.ManualValue = value
}

// Selection returns the current resolution state.
func (f *FieldReconciler) Selection() model.FieldSelection {
	return f.selection
}

func (f *FieldReconciler) setSelection(sel model.FieldSelection) {
	sel.FieldKey = f.key
	f.selection = sel
}

// Resolve returns the value for persistence: the chosen source's raw
// value, the manual value, or "" when unresolved or when the chosen
// source index no longer exists.
func (f *FieldReconciler) Resolve() string {
	if f.selection.Manual {
		return f.selection.ManualValue
	}
	if f.selection.SourceIndex == nil {
		return ""
	}
	idx := *f.selection.SourceIndex
	if idx < 0 || idx >= len(f.values) {
		return ""
	}
	return f.values[idx]
}
