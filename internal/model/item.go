// Package model defines the core types shared across the curation engine:
// items under review, their competing source analyses, curator selection
// state, and the assembled golden entry.
package model

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Item is one unit of review: a media asset plus its competing analyses.
// Items are created at ingest and read-only for the rest of their life.
type Item struct {
	ID               string    `json:"id"`
	AssetRef         string    `json:"asset_ref"`
	OriginalFilename string    `json:"original_filename"`
	CreatedAt        time.Time `json:"created_at"`
}

// AssetURL resolves the display URL for the item's media asset. Pure
// formatting: the asset reference is joined onto the configured base URL.
func (i Item) AssetURL(baseURL string) string {
	ref := i.AssetRef
	if ref == "" {
		ref = i.OriginalFilename
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(baseURL, "/"), url.PathEscape(ref))
}

// SourceAnalysis is one independently produced AI annotation of an Item.
// Immutable once loaded; an item carries 1..N of these.
type SourceAnalysis struct {
	ID              string          `json:"id"`
	ItemID          string          `json:"item_id"`
	Producer        string          `json:"producer"`
	ProducerVersion string          `json:"producer_version"`
	Content         AnalysisContent `json:"content"`
	Media           MediaMetadata   `json:"media"`
	CreatedAt       time.Time       `json:"created_at"`
}

// AnalysisContent holds the annotation proper: scalar classification,
// free text, and the structured list fields.
type AnalysisContent struct {
	Category          string   `json:"category"`
	Headline          string   `json:"headline"`
	Summary           string   `json:"summary"`
	ExtractedText     []string `json:"extracted_text"`
	SaliencyHierarchy []string `json:"saliency_hierarchy"`
	Objects           []string `json:"objects"`
	Themes            []string `json:"themes"`
	Emotions          []string `json:"emotions"`
	Vibes             []string `json:"vibes"`
	KeyInterest       string   `json:"key_interest"`
	LikelySource      string   `json:"likely_source"`
}

// MediaMetadata holds platform metadata attached to the post the asset
// came from.
type MediaMetadata struct {
	TaggedAccounts []string `json:"tagged_accounts"`
	LocationTags   []string `json:"location_tags"`
	Hashtags       []string `json:"hashtags"`
	AudioSource    string   `json:"audio_source"`
	OriginalPoster string   `json:"original_poster"`
}

// ScalarField returns the analysis value for a scalar/free-text field key.
// The extracted_text list is presented as one scalar block (newline-joined)
// because curators select it wholesale per source.
func (a SourceAnalysis) ScalarField(key string) string {
	switch key {
	case FieldCategory:
		return a.Content.Category
	case FieldHeadline:
		return a.Content.Headline
	case FieldSummary:
		return a.Content.Summary
	case FieldExtractedText:
		return strings.Join(a.Content.ExtractedText, "\n")
	case FieldKeyInterest:
		return a.Content.KeyInterest
	case FieldLikelySource:
		return a.Content.LikelySource
	case FieldAudioSource:
		return a.Media.AudioSource
	case FieldOriginalPoster:
		return a.Media.OriginalPoster
	}
	return ""
}

// ListField returns the analysis values for a list field key.
func (a SourceAnalysis) ListField(key string) []string {
	switch key {
	case FieldObjects:
		return a.Content.Objects
	case FieldThemes:
		return a.Content.Themes
	case FieldEmotions:
		return a.Content.Emotions
	case FieldVibes:
		return a.Content.Vibes
	case FieldTaggedAccounts:
		return a.Media.TaggedAccounts
	case FieldLocationTags:
		return a.Media.LocationTags
	case FieldHashtags:
		return a.Media.Hashtags
	case FieldSaliency:
		return a.Content.SaliencyHierarchy
	}
	return nil
}
