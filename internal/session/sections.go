package session

import "github.com/sells-group/curation-cli/internal/model"

// SectionStateCache preserves in-progress field state per wizard section.
// Leaving a section overwrites its snapshot; entering re-applies it if one
// exists. The cache is scoped to one item session and discarded wholesale
// when a new item loads.
type SectionStateCache struct {
	snapshots map[string]model.SectionSnapshot
}

func newSectionStateCache() *SectionStateCache {
	return &SectionStateCache{snapshots: make(map[string]model.SectionSnapshot)}
}

// Put stores the snapshot for a section, replacing any previous one.
func (c *SectionStateCache) Put(section string, snap model.SectionSnapshot) {
	c.snapshots[section] = snap
}

// Get returns the snapshot for a section. The snapshot is read, not
// cleared: re-entering repeatedly restores the same state until the next
// leave overwrites it.
func (c *SectionStateCache) Get(section string) (model.SectionSnapshot, bool) {
	snap, ok := c.snapshots[section]
	return snap, ok
}
