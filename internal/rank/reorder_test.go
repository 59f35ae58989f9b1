package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReorder(t *testing.T) {
	list := []string{"a", "b", "c", "d"}

	assert.Equal(t, []string{"b", "c", "a", "d"}, Reorder(list, 0, 2))
	assert.Equal(t, []string{"d", "a", "b", "c"}, Reorder(list, 3, 0))
	assert.Equal(t, []string{"b", "c", "d", "a"}, Reorder(list, 0, 3))
	assert.Equal(t, []string{"a", "b", "c", "d"}, Reorder(list, 1, 1))

	// Input untouched.
	assert.Equal(t, []string{"a", "b", "c", "d"}, list)
}

func TestReorderClamps(t *testing.T) {
	list := []string{"a", "b", "c"}
	assert.Equal(t, []string{"b", "c", "a"}, Reorder(list, 0, 99))
	assert.Equal(t, []string{"c", "a", "b"}, Reorder(list, 99, -5))
}

func TestReorderEmpty(t *testing.T) {
	assert.Nil(t, Reorder(nil, 0, 1))
}

func TestDropIndex(t *testing.T) {
	mids := []float64{10, 20, 30}
	assert.Equal(t, 0, DropIndex(mids, 5))
	assert.Equal(t, 1, DropIndex(mids, 15))
	assert.Equal(t, 3, DropIndex(mids, 35))
	assert.Equal(t, 0, DropIndex(nil, 50))
}
