package annotator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContentPlainJSON(t *testing.T) {
	content, err := parseContent(`{
		"category": "landscape",
		"headline": "Sunset over the bay",
		"extracted_text": ["BAY CAFE"],
		"saliency_hierarchy": ["sky", "water"],
		"objects": ["sky", "water", "boat"]
	}`)
	require.NoError(t, err)
	assert.Equal(t, "landscape", content.Category)
	assert.Equal(t, []string{"sky", "water"}, content.SaliencyHierarchy)
	assert.Equal(t, []string{"BAY CAFE"}, content.ExtractedText)
}

func TestParseContentWithFences(t *testing.T) {
	content, err := parseContent("Here is the annotation:\n```json\n{\"headline\": \"A boat\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "A boat", content.Headline)
}

func TestParseContentNoJSON(t *testing.T) {
	_, err := parseContent("no structured output here")
	assert.Error(t, err)
}

func TestParseContentInvalidJSON(t *testing.T) {
	_, err := parseContent(`{"headline": `)
	assert.Error(t, err)
}
