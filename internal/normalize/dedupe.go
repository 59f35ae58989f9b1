package normalize

import (
	"github.com/sells-group/curation-cli/internal/model"
)

// Dedupe merges one list field across all sources into a unique candidate
// set. Iteration is source-index order, then within-source list order, so
// output is deterministic for identical input. Each raw value is
// slash-split and normalized; the first-seen raw form becomes the display
// text and every candidate defaults to checked. Only exact normalized
// duplicates are dropped.
func Dedupe(sources []model.SourceAnalysis, fieldKey string) model.CandidateSet {
	cs := model.CandidateSet{FieldKey: fieldKey}
	seen := make(map[string]struct{})

	for _, src := range sources {
		for _, raw := range src.ListField(fieldKey) {
			for _, part := range SplitTokens(raw) {
				key := Key(part)
				if key == "" {
					continue
				}
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				cs.Candidates = append(cs.Candidates, model.Candidate{
					Key:     key,
					Display: part,
					Checked: true,
				})
			}
		}
	}
	return cs
}

// DedupeLabels is Dedupe for a bare label list (used for the aggregated
// saliency view): duplicates removed by normalized key, first raw form kept.
func DedupeLabels(lists ...[]string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, raw := range list {
			key := Key(raw)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, raw)
		}
	}
	return out
}
