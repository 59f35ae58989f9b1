package session

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/curation-cli/internal/model"
	"github.com/sells-group/curation-cli/internal/normalize"
	"github.com/sells-group/curation-cli/internal/rank"
)

// RankingSynchronizer owns the saliency hierarchy. While auto-synced, the
// list mirrors the saliency data of whichever source is selected for the
// driving field (extracted text). Any direct mutation latches the list
// into manually-edited: driving-field changes stop re-deriving until the
// curator explicitly resets from a chosen source.
type RankingSynchronizer struct {
	sources []model.SourceAnalysis
	list    model.RankedList
}

func newRankingSynchronizer(sources []model.SourceAnalysis, driving *int) *RankingSynchronizer {
	rs := &RankingSynchronizer{sources: sources}
	rs.derive(driving)
	return rs
}

// derive rebuilds the list wholesale from one source, or from the
// aggregated union of all sources when no single source drives it.
func (rs *RankingSynchronizer) derive(sourceIndex *int) {
	if sourceIndex != nil && *sourceIndex >= 0 && *sourceIndex < len(rs.sources) {
		idx := *sourceIndex
		rs.list = model.RankedList{
			Labels:      append([]string(nil), rs.sources[idx].Content.SaliencyHierarchy...),
			SourceIndex: &idx,
		}
		return
	}
	lists := make([][]string, 0, len(rs.sources))
	for _, src := range rs.sources {
		lists = append(lists, src.Content.SaliencyHierarchy)
	}
	rs.list = model.RankedList{Labels: normalize.DedupeLabels(lists...)}
}

// DriveFrom reacts to a driving-field selection change. It re-derives only
// while auto-synced; a manually-edited list is never silently overwritten.
func (rs *RankingSynchronizer) DriveFrom(sourceIndex *int) {
	if rs.list.ManuallyEdited {
		return
	}
	rs.derive(sourceIndex)
}

// Reorder splices the item at from to position to. Any reorder marks the
// list manually edited.
func (rs *RankingSynchronizer) Reorder(from, to int) error {
	if from < 0 || from >= len(rs.list.Labels) {
		return eris.Errorf("saliency: reorder index %d out of range", from)
	}
	rs.list.Labels = rank.Reorder(rs.list.Labels, from, to)
	rs.list.ManuallyEdited = true
	return nil
}

// Add appends a label. Marks the list manually edited.
func (rs *RankingSynchronizer) Add(label string) error {
	if normalize.Key(label) == "" {
		return eris.New("saliency: empty label")
	}
	rs.list.Labels = append(rs.list.Labels, label)
	rs.list.ManuallyEdited = true
	return nil
}

// Remove deletes the label at index. Marks the list manually edited.
func (rs *RankingSynchronizer) Remove(index int) error {
	if index < 0 || index >= len(rs.list.Labels) {
		return eris.Errorf("saliency: remove index %d out of range", index)
	}
	rs.list.Labels = append(rs.list.Labels[:index], rs.list.Labels[index+1:]...)
	rs.list.ManuallyEdited = true
	return nil
}

// ResetFromSource is the explicit curator action that abandons manual
// edits: it clears the manually-edited flag and re-synchronizes from the
// given source.
func (rs *RankingSynchronizer) ResetFromSource(sourceIndex int) error {
	if sourceIndex < 0 || sourceIndex >= len(rs.sources) {
		return eris.Errorf("saliency: source %d out of range", sourceIndex)
	}
	rs.list.ManuallyEdited = false
	rs.derive(&sourceIndex)
	return nil
}

// List returns a copy of the current ranked list with provenance.
func (rs *RankingSynchronizer) List() model.RankedList {
	return rs.list.Clone()
}

func (rs *RankingSynchronizer) restore(list model.RankedList) {
	rs.list = list.Clone()
}
