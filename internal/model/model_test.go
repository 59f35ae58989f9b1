package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemAssetURL(t *testing.T) {
	item := Item{AssetRef: "drops/one two.jpg", OriginalFilename: "one.jpg"}
	assert.Equal(t, "/assets/drops%2Fone%20two.jpg", item.AssetURL("/assets/"))

	item = Item{OriginalFilename: "fallback.jpg"}
	assert.Equal(t, "http://cdn/fallback.jpg", item.AssetURL("http://cdn"))
}

func TestScalarField(t *testing.T) {
	a := SourceAnalysis{
		Content: AnalysisContent{
			Headline:      "Sunset",
			ExtractedText: []string{"BAY CAFE", "OPEN LATE"},
		},
		Media: MediaMetadata{AudioSource: "original audio"},
	}

	assert.Equal(t, "Sunset", a.ScalarField(FieldHeadline))
	assert.Equal(t, "BAY CAFE\nOPEN LATE", a.ScalarField(FieldExtractedText))
	assert.Equal(t, "original audio", a.ScalarField(FieldAudioSource))
	assert.Equal(t, "", a.ScalarField("not_a_field"))
}

func TestListField(t *testing.T) {
	a := SourceAnalysis{
		Content: AnalysisContent{
			Objects:           []string{"sky", "water"},
			SaliencyHierarchy: []string{"sky"},
		},
		Media: MediaMetadata{Hashtags: []string{"#bay"}},
	}

	assert.Equal(t, []string{"sky", "water"}, a.ListField(FieldObjects))
	assert.Equal(t, []string{"sky"}, a.ListField(FieldSaliency))
	assert.Equal(t, []string{"#bay"}, a.ListField(FieldHashtags))
	assert.Nil(t, a.ListField("not_a_field"))
}

func TestFieldSelectionResolved(t *testing.T) {
	assert.False(t, FieldSelection{}.Resolved())
	idx := 0
	assert.True(t, FieldSelection{SourceIndex: &idx}.Resolved())
	assert.True(t, FieldSelection{Manual: true}.Resolved())
}

func TestCandidateSetCheckedDisplays(t *testing.T) {
	cs := CandidateSet{Candidates: []Candidate{
		{Key: "sky", Display: "Sky", Checked: true},
		{Key: "water", Display: "water", Checked: false},
		{Key: "boat", Display: "Boat", Checked: true},
	}}
	assert.Equal(t, []string{"Sky", "Boat"}, cs.CheckedDisplays())
}

func TestCandidateSetSetChecked(t *testing.T) {
	cs := CandidateSet{Candidates: []Candidate{{Key: "sky", Checked: true}}}
	cs.SetChecked("sky", false)
	assert.False(t, cs.Candidates[0].Checked)
	cs.SetChecked("unknown", true)
	assert.False(t, cs.Candidates[0].Checked)
}

func TestRankedListClone(t *testing.T) {
	idx := 1
	orig := RankedList{Labels: []string{"sky", "water"}, SourceIndex: &idx}
	cp := orig.Clone()

	cp.Labels[0] = "changed"
	*cp.SourceIndex = 5
	assert.Equal(t, "sky", orig.Labels[0])
	assert.Equal(t, 1, *orig.SourceIndex)
}

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()

	assert.Equal(t, []string{"classification", "content", "mood", "media"}, reg.Sections())

	spec := reg.ByKey(FieldSaliency)
	require.NotNil(t, spec)
	assert.Equal(t, KindRanked, spec.Kind)

	assert.Nil(t, reg.ByKey("nope"))
	assert.Len(t, reg.ByKind(KindRanked), 1)
	assert.NotEmpty(t, reg.Section("mood"))
	assert.Nil(t, reg.Section("nope"))
}
