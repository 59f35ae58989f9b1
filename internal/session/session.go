// Package session implements the consensus curation engine: per-item state
// machines that reconcile competing source analyses into one golden entry.
// All mutation flows through discrete commands so transition logic stays
// independent of any UI toolkit.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/curation-cli/internal/model"
	"github.com/sells-group/curation-cli/internal/normalize"
	"github.com/sells-group/curation-cli/internal/rank"
)

// SimilarityProvider is the slice of the external comparison service the
// engine consumes. The matrix must align to the input value order; the
// engine never computes similarity itself and must not block when the
// provider fails.
type SimilarityProvider interface {
	Compare(ctx context.Context, itemID, fieldType string, values []string) ([][]float64, error)
}

// Session owns all mutable curation state for one item. A single curator
// session is the only writer; every public method takes the session lock,
// so commands apply atomically in arrival order.
type Session struct {
	mu sync.Mutex

	ID      string
	item    model.Item
	sources []model.SourceAnalysis

	registry *model.FieldRegistry
	policy   rank.Policy

	fields   map[string]*FieldReconciler
	lists    map[string]*model.CandidateSet
	saliency *RankingSynchronizer
	sections *SectionStateCache

	// generation guards in-flight similarity responses: a response fetched
	// for a previous population round is discarded instead of applied.
	generation uint64
	closed     bool
}

// New builds a session for an item and its source analyses. Candidates
// start in source order; call Populate to rank them via the similarity
// service.
func New(id string, item model.Item, sources []model.SourceAnalysis, registry *model.FieldRegistry, policy rank.Policy) *Session {
	if registry == nil {
		registry = model.DefaultRegistry()
	}
	s := &Session{
		ID:       id,
		item:     item,
		sources:  sources,
		registry: registry,
		policy:   policy,
		fields:   make(map[string]*FieldReconciler),
		lists:    make(map[string]*model.CandidateSet),
		sections: newSectionStateCache(),
	}

	for _, spec := range registry.ByKind(model.KindScalar) {
		s.fields[spec.Key] = newFieldReconciler(spec.Key, sources)
	}
	for _, spec := range registry.ByKind(model.KindList) {
		cs := normalize.Dedupe(sources, spec.Key)
		s.lists[spec.Key] = &cs
	}

	driving := s.drivingSelection()
	s.saliency = newRankingSynchronizer(sources, driving)
	return s
}

// Item returns the item under review.
func (s *Session) Item() model.Item {
	return s.item
}

// Sources returns the item's source analyses.
func (s *Session) Sources() []model.SourceAnalysis {
	return s.sources
}

// drivingSelection returns the extracted-text source index, or nil when
// that field is manual or unresolved. Callers hold the lock (or are in
// construction).
func (s *Session) drivingSelection() *int {
	f, ok := s.fields[model.FieldExtractedText]
	if !ok {
		return nil
	}
	sel := f.Selection()
	if sel.Manual || sel.SourceIndex == nil {
		return nil
	}
	idx := *sel.SourceIndex
	return &idx
}

// Populate fetches similarity matrices for every multi-source scalar field
// and re-ranks candidates. Failures degrade to unranked source order and
// are logged, never returned: the review workflow must not block on the
// comparison service. Responses arriving after the session moved on (new
// population round or close) are discarded.
func (s *Session) Populate(ctx context.Context, sim SimilarityProvider) {
	if sim == nil || len(s.sources) <= 1 {
		return
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	keys := make([]string, 0, len(s.fields))
	values := make(map[string][]string, len(s.fields))
	for key, f := range s.fields {
		keys = append(keys, key)
		values[key] = append([]string(nil), f.Values()...)
	}
	itemID := s.item.ID
	s.mu.Unlock()

	for _, key := range keys {
		matrix, err := sim.Compare(ctx, itemID, key, values[key])
		if err != nil {
			zap.L().Warn("session: similarity unavailable, presenting unranked",
				zap.String("item", itemID),
				zap.String("field", key),
				zap.Error(err),
			)
			continue
		}

		s.mu.Lock()
		if s.closed || s.generation != gen {
			s.mu.Unlock()
			zap.L().Debug("session: discarding stale similarity response",
				zap.String("item", itemID),
				zap.String("field", key),
			)
			return
		}
		s.fields[key].ApplyMatrix(rank.Matrix(matrix), s.policy)
		s.mu.Unlock()
	}
}

// Close marks the session abandoned. In-flight similarity responses and
// autosave ticks become no-ops.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.generation++
}

// Closed reports whether the session has been abandoned.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// FieldCandidates returns the ranked candidates for a scalar field.
func (s *Session) FieldCandidates(key string) ([]RankedCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fields[key]
	if !ok {
		return nil, eris.Errorf("session: unknown scalar field %q", key)
	}
	return f.Candidates(), nil
}

// ListCandidates returns the deduplicated candidate set for a list field.
func (s *Session) ListCandidates(key string) (model.CandidateSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.lists[key]
	if !ok {
		return model.CandidateSet{}, eris.Errorf("session: unknown list field %q", key)
	}
	out := model.CandidateSet{FieldKey: cs.FieldKey}
	out.Candidates = append(out.Candidates, cs.Candidates...)
	return out, nil
}

// Saliency returns the current ranked list with provenance.
func (s *Session) Saliency() model.RankedList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saliency.List()
}

// Assemble produces the golden entry from current resolved state. It is
// side-effect free and repeatable: with no intervening commands, two calls
// yield structurally identical entries. Both manual save and autosave go
// through here.
func (s *Session) Assemble() *model.GoldenEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assembleLocked()
}

func (s *Session) assembleLocked() *model.GoldenEntry {
	entry := &model.GoldenEntry{
		ItemID: s.item.ID,
		Fields: make(map[string]model.ResolvedField, len(s.fields)),
		Lists:  make(map[string][]string, len(s.lists)),
	}
	for key, f := range s.fields {
		sel := f.Selection()
		rf := model.ResolvedField{Value: f.Resolve(), Manual: sel.Manual}
		if !sel.Manual && sel.SourceIndex != nil {
			idx := *sel.SourceIndex
			rf.SourceIndex = &idx
		}
		entry.Fields[key] = rf
	}
	for key, cs := range s.lists {
		entry.Lists[key] = cs.CheckedDisplays()
	}
	list := s.saliency.List()
	entry.Saliency = model.RankedSnapshot{
		Labels:         list.Labels,
		SourceIndex:    list.SourceIndex,
		ManuallyEdited: list.ManuallyEdited,
	}
	entry.CreatedAt = time.Now().UTC()
	return entry
}

// ApplyEntry pre-populates the session from a previously saved golden
// entry, re-deriving selection and ranked-list provenance.
func (s *Session) ApplyEntry(entry *model.GoldenEntry) {
	if entry == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, rf := range entry.Fields {
		f, ok := s.fields[key]
		if !ok {
			continue
		}
		switch {
		case rf.Manual:
			f.ChooseManual(rf.Value)
		case rf.SourceIndex != nil:
			f.ChooseSource(*rf.SourceIndex)
		}
	}

	for key, saved := range entry.Lists {
		cs, ok := s.lists[key]
		if !ok {
			continue
		}
		checked := make(map[string]struct{}, len(saved))
		for _, v := range saved {
			checked[normalize.Key(v)] = struct{}{}
		}
		for i := range cs.Candidates {
			_, on := checked[cs.Candidates[i].Key]
			cs.Candidates[i].Checked = on
		}
	}

	s.saliency.restore(model.RankedList{
		Labels:         entry.Saliency.Labels,
		SourceIndex:    entry.Saliency.SourceIndex,
		ManuallyEdited: entry.Saliency.ManuallyEdited,
	})
}
