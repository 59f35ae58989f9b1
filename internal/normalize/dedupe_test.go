package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/curation-cli/internal/model"
)

func sourcesWithObjects(lists ...[]string) []model.SourceAnalysis {
	out := make([]model.SourceAnalysis, len(lists))
	for i, l := range lists {
		out[i] = model.SourceAnalysis{Content: model.AnalysisContent{Objects: l}}
	}
	return out
}

func displays(cs model.CandidateSet) []string {
	out := make([]string, len(cs.Candidates))
	for i, c := range cs.Candidates {
		out[i] = c.Display
	}
	return out
}

func TestDedupeKeepsFirstSeenDisplay(t *testing.T) {
	cs := Dedupe(sourcesWithObjects(
		[]string{"Sky", "water"},
		[]string{"sky", "Boat"},
	), model.FieldObjects)

	assert.Equal(t, []string{"Sky", "water", "Boat"}, displays(cs))
	for _, c := range cs.Candidates {
		assert.True(t, c.Checked)
	}
}

func TestDedupeSplitsSlashes(t *testing.T) {
	cs := Dedupe(sourcesWithObjects(
		[]string{"food/dining"},
		[]string{"Dining"},
	), model.FieldObjects)

	assert.Equal(t, []string{"food", "dining"}, displays(cs))
}

func TestDedupeDeterministic(t *testing.T) {
	sources := sourcesWithObjects(
		[]string{"b", "A", "c/d"},
		[]string{"d", "a", "E"},
	)
	first := Dedupe(sources, model.FieldObjects)
	second := Dedupe(sources, model.FieldObjects)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"b", "A", "c", "d", "E"}, displays(first))
}

func TestDedupeSkipsEmptyKeys(t *testing.T) {
	cs := Dedupe(sourcesWithObjects([]string{"", "  ", "!!!", "real"}), model.FieldObjects)
	require.Len(t, cs.Candidates, 1)
	assert.Equal(t, "real", cs.Candidates[0].Display)
}

func TestDedupeLabels(t *testing.T) {
	got := DedupeLabels(
		[]string{"sky", "water"},
		[]string{"Water", "boat"},
		[]string{"sky"},
	)
	assert.Equal(t, []string{"sky", "water", "boat"}, got)
}
