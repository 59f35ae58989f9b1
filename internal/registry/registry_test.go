package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/curation-cli/internal/model"
)

func writeRegistryFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fields.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeRegistryFile(t, `
fields:
  - key: category
    label: Category
    kind: scalar
    section: classification
  - key: objects
    label: Objects
    kind: list
    section: content
  - key: saliency_hierarchy
    label: Saliency
    kind: ranked
    section: content
`)

	reg, err := LoadFile(path)
	require.NoError(t, err)

	spec := reg.ByKey("category")
	require.NotNil(t, spec)
	assert.Equal(t, model.KindScalar, spec.Kind)
	assert.Equal(t, "classification", spec.Section)

	spec = reg.ByKey("objects")
	require.NotNil(t, spec)
	assert.Equal(t, model.KindList, spec.Kind)

	spec = reg.ByKey("saliency_hierarchy")
	require.NotNil(t, spec)
	assert.Equal(t, model.KindRanked, spec.Kind)

	assert.Equal(t, []string{"classification", "content"}, reg.Sections())
}

func TestLoadFileDefaultsLabelToKey(t *testing.T) {
	path := writeRegistryFile(t, `
fields:
  - key: vibes
    kind: list
    section: mood
`)

	reg, err := LoadFile(path)
	require.NoError(t, err)
	spec := reg.ByKey("vibes")
	require.NotNil(t, spec)
	assert.Equal(t, "vibes", spec.Label)
}

func TestLoadFileSkipsUnknownKind(t *testing.T) {
	path := writeRegistryFile(t, `
fields:
  - key: good
    kind: scalar
    section: a
  - key: bad
    kind: matrix
    section: a
`)

	reg, err := LoadFile(path)
	require.NoError(t, err)
	assert.NotNil(t, reg.ByKey("good"))
	assert.Nil(t, reg.ByKey("bad"))
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeRegistryFile(t, `fields: []`)
	_, err = LoadFile(path)
	assert.Error(t, err)

	path = writeRegistryFile(t, `
fields:
  - kind: scalar
    section: a
`)
	_, err = LoadFile(path)
	assert.Error(t, err)
}
