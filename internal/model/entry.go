package model

import "time"

// FieldSelection is the curator-visible resolution state for one scalar
// field. At most one of SourceIndex/Manual is authoritative; a selection
// with neither means the curator has not interacted yet.
type FieldSelection struct {
	FieldKey    string `json:"field_key"`
	SourceIndex *int   `json:"source_index,omitempty"`
	Manual      bool   `json:"manual"`
	ManualValue string `json:"manual_value,omitempty"`
}

// Resolved reports whether the curator has interacted with the field.
func (s FieldSelection) Resolved() bool {
	return s.Manual || s.SourceIndex != nil
}

// Candidate is one deduplicated value of a list field. Key is the
// normalized form; Display is the first-seen raw form.
type Candidate struct {
	Key     string `json:"key"`
	Display string `json:"display"`
	Checked bool   `json:"checked"`
}

// CandidateSet is the normalized union of a list field's values across all
// sources, in deterministic source-then-list order. No two candidates share
// a normalized key.
type CandidateSet struct {
	FieldKey   string      `json:"field_key"`
	Candidates []Candidate `json:"candidates"`
}

// CheckedDisplays returns the display forms of checked candidates, in
// candidate order.
func (cs CandidateSet) CheckedDisplays() []string {
	out := make([]string, 0, len(cs.Candidates))
	for _, c := range cs.Candidates {
		if c.Checked {
			out = append(out, c.Display)
		}
	}
	return out
}

// SetChecked updates the checked state of the candidate with the given
// normalized key. Unknown keys are ignored.
func (cs *CandidateSet) SetChecked(key string, checked bool) {
	for i := range cs.Candidates {
		if cs.Candidates[i].Key == key {
			cs.Candidates[i].Checked = checked
			return
		}
	}
}

// RankedList is the saliency hierarchy plus its provenance: the source it
// was last derived from (nil when aggregated or unset) and whether the
// curator has edited it directly. Once ManuallyEdited is set, automatic
// re-derivation must not overwrite Labels.
type RankedList struct {
	Labels         []string `json:"labels"`
	SourceIndex    *int     `json:"source_index,omitempty"`
	ManuallyEdited bool     `json:"manually_edited"`
}

// Clone returns a deep copy so snapshots never alias live state.
func (r RankedList) Clone() RankedList {
	cp := r
	cp.Labels = append([]string(nil), r.Labels...)
	if r.SourceIndex != nil {
		idx := *r.SourceIndex
		cp.SourceIndex = &idx
	}
	return cp
}

// SectionSnapshot preserves one wizard section's field states across
// navigation: scalar selections, per-candidate checkbox states, and the
// ranked list when the section contains it.
type SectionSnapshot struct {
	Selections map[string]FieldSelection  `json:"selections"`
	Checks     map[string]map[string]bool `json:"checks"`
	Ranked     *RankedList                `json:"ranked,omitempty"`
}

// ResolvedField is one reconciled scalar value in a golden entry, with the
// provenance needed to reconstruct why it was chosen.
type ResolvedField struct {
	Value       string `json:"value"`
	SourceIndex *int   `json:"source_index,omitempty"`
	Manual      bool   `json:"manual"`
}

// RankedSnapshot is the saliency hierarchy as persisted: displayed order
// plus provenance.
type RankedSnapshot struct {
	Labels         []string `json:"labels"`
	SourceIndex    *int     `json:"source_index,omitempty"`
	ManuallyEdited bool     `json:"manually_edited"`
}

// GoldenEntry is the assembled consensus record for one item. Each save
// produces a new version; the latest version is authoritative.
type GoldenEntry struct {
	ID        string                   `json:"id,omitempty"`
	ItemID    string                   `json:"item_id"`
	Version   int                      `json:"version"`
	Fields    map[string]ResolvedField `json:"fields"`
	Lists     map[string][]string      `json:"lists"`
	Saliency  RankedSnapshot           `json:"saliency"`
	CreatedAt time.Time                `json:"created_at"`
}
