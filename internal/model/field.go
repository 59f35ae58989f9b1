package model

// Field keys for the fixed review field set. The registry can re-label or
// re-section fields, but keys are stable identifiers used in storage.
const (
	FieldCategory       = "category"
	FieldHeadline       = "headline"
	FieldSummary        = "summary"
	FieldExtractedText  = "extracted_text"
	FieldSaliency       = "saliency_hierarchy"
	FieldObjects        = "objects"
	FieldThemes         = "themes"
	FieldEmotions       = "emotions"
	FieldVibes          = "vibes"
	FieldKeyInterest    = "key_interest"
	FieldLikelySource   = "likely_source"
	FieldTaggedAccounts = "tagged_accounts"
	FieldLocationTags   = "location_tags"
	FieldHashtags       = "hashtags"
	FieldAudioSource    = "audio_source"
	FieldOriginalPoster = "original_poster"
)

// FieldKind classifies how a field is reconciled.
type FieldKind string

const (
	// KindScalar fields resolve to one value via source selection or
	// manual override.
	KindScalar FieldKind = "scalar"
	// KindList fields merge into a deduplicated checked candidate set.
	KindList FieldKind = "list"
	// KindRanked is the saliency hierarchy: an ordered list synchronized
	// with the extracted-text selection until edited directly.
	KindRanked FieldKind = "ranked"
)

// FieldSpec describes one reviewed field: its kind, display label, and the
// wizard section it belongs to.
type FieldSpec struct {
	Key     string    `json:"key" yaml:"key"`
	Label   string    `json:"label" yaml:"label"`
	Kind    FieldKind `json:"kind" yaml:"kind"`
	Section string    `json:"section" yaml:"section"`
}

// FieldRegistry is an indexed collection of field specs with a stable
// section order.
type FieldRegistry struct {
	Fields    []FieldSpec
	byKey     map[string]*FieldSpec
	bySection map[string][]*FieldSpec
	sections  []string
}

// NewFieldRegistry creates a FieldRegistry with indexed lookups. Section
// order follows first appearance in the field slice.
func NewFieldRegistry(fields []FieldSpec) *FieldRegistry {
	r := &FieldRegistry{
		Fields:    fields,
		byKey:     make(map[string]*FieldSpec, len(fields)),
		bySection: make(map[string][]*FieldSpec),
	}
	for i := range r.Fields {
		f := &r.Fields[i]
		r.byKey[f.Key] = f
		if _, seen := r.bySection[f.Section]; !seen {
			r.sections = append(r.sections, f.Section)
		}
		r.bySection[f.Section] = append(r.bySection[f.Section], f)
	}
	return r
}

// ByKey returns the field spec for the given key, or nil if not found.
func (r *FieldRegistry) ByKey(key string) *FieldSpec {
	return r.byKey[key]
}

// Section returns the field specs belonging to one wizard section.
func (r *FieldRegistry) Section(name string) []*FieldSpec {
	return r.bySection[name]
}

// Sections returns the ordered wizard section names.
func (r *FieldRegistry) Sections() []string {
	return r.sections
}

// ByKind returns all field specs of the given kind, in registry order.
func (r *FieldRegistry) ByKind(kind FieldKind) []*FieldSpec {
	var out []*FieldSpec
	for i := range r.Fields {
		if r.Fields[i].Kind == kind {
			out = append(out, &r.Fields[i])
		}
	}
	return out
}

// DefaultRegistry returns the built-in review field set. The registry
// package can replace it from YAML or Notion at startup.
func DefaultRegistry() *FieldRegistry {
	return NewFieldRegistry([]FieldSpec{
		{Key: FieldCategory, Label: "Category", Kind: KindScalar, Section: "classification"},
		{Key: FieldHeadline, Label: "Headline", Kind: KindScalar, Section: "classification"},
		{Key: FieldSummary, Label: "Summary", Kind: KindScalar, Section: "classification"},
		{Key: FieldExtractedText, Label: "Extracted Text", Kind: KindScalar, Section: "content"},
		{Key: FieldSaliency, Label: "Saliency Hierarchy", Kind: KindRanked, Section: "content"},
		{Key: FieldObjects, Label: "Objects", Kind: KindList, Section: "content"},
		{Key: FieldThemes, Label: "Themes", Kind: KindList, Section: "content"},
		{Key: FieldEmotions, Label: "Emotions", Kind: KindList, Section: "mood"},
		{Key: FieldVibes, Label: "Vibes", Kind: KindList, Section: "mood"},
		{Key: FieldKeyInterest, Label: "Key Interest", Kind: KindScalar, Section: "mood"},
		{Key: FieldLikelySource, Label: "Likely Source", Kind: KindScalar, Section: "mood"},
		{Key: FieldTaggedAccounts, Label: "Tagged Accounts", Kind: KindList, Section: "media"},
		{Key: FieldLocationTags, Label: "Location Tags", Kind: KindList, Section: "media"},
		{Key: FieldHashtags, Label: "Hashtags", Kind: KindList, Section: "media"},
		{Key: FieldAudioSource, Label: "Audio Source", Kind: KindScalar, Section: "media"},
		{Key: FieldOriginalPoster, Label: "Original Poster", Kind: KindScalar, Section: "media"},
	})
}
