package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase passthrough", "sky", "sky"},
		{"case fold", "Sky", "sky"},
		{"trim and collapse", "  blue   sky  ", "blue sky"},
		{"punctuation stripped", "sky!", "sky"},
		{"internal hyphen kept", "sun-set", "sun-set"},
		{"edge hyphens trimmed", "-sunset-", "sunset"},
		{"unicode compatibility", "ｓｋｙ", "sky"},
		{"digits kept", "route 66", "route 66"},
		{"empty", "", ""},
		{"only punctuation", "!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.in))
		})
	}
}

func TestKeyIdempotent(t *testing.T) {
	inputs := []string{"Sky", "  blue   sky  ", "sun-set!", "Ｆｕｌｌ-Ｗｉｄｔｈ Text", "café"}
	for _, in := range inputs {
		once := Key(in)
		assert.Equal(t, once, Key(once), "Key not idempotent for %q", in)
	}
}

func TestSplitTokens(t *testing.T) {
	assert.Equal(t, []string{"food", "dining"}, SplitTokens("food/dining"))
	assert.Equal(t, []string{"food", "dining"}, SplitTokens(" food / dining "))
	assert.Equal(t, []string{"plain"}, SplitTokens("plain"))
	assert.Equal(t, []string{"a"}, SplitTokens("a//"))
	assert.Nil(t, SplitTokens(""))
	assert.Nil(t, SplitTokens("   "))
}
