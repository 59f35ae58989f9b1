// Package store persists items, their source analyses, and versioned
// golden entries behind a backend-agnostic interface.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/curation-cli/internal/model"
)

// ErrEntryNotFound is the explicit "none" signal for items that have no
// golden entry yet.
var ErrEntryNotFound = eris.New("store: entry not found")

// ErrItemNotFound signals a lookup for an unknown item id.
var ErrItemNotFound = eris.New("store: item not found")

// Mode filters item listings by review state.
type Mode string

const (
	// ModeAll lists every item.
	ModeAll Mode = "all"
	// ModeUnreviewed lists only items without a golden entry.
	ModeUnreviewed Mode = "unreviewed"
)

// ItemFilter specifies criteria for listing items.
type ItemFilter struct {
	Offset int  `json:"offset,omitempty"`
	Limit  int  `json:"limit,omitempty"`
	Mode   Mode `json:"mode,omitempty"`
}

// ItemWithSources pairs an item with its source analyses and whether a
// golden entry exists for it.
type ItemWithSources struct {
	Item     model.Item             `json:"item"`
	Sources  []model.SourceAnalysis `json:"sources"`
	Reviewed bool                   `json:"reviewed"`
}

// ItemBatch is one page of items plus the running counts the review UI
// displays: Total counts items matching the filter mode, Reviewed counts
// items with at least one golden entry.
type ItemBatch struct {
	Items    []ItemWithSources `json:"items"`
	Total    int               `json:"total"`
	Reviewed int               `json:"reviewed"`
}

// Store defines the persistence interface for the curation engine.
type Store interface {
	// Ingest
	PutItem(ctx context.Context, item model.Item) error
	PutAnalyses(ctx context.Context, analyses []model.SourceAnalysis) error

	// Review
	ListItems(ctx context.Context, filter ItemFilter) (*ItemBatch, error)
	GetItem(ctx context.Context, itemID string) (*ItemWithSources, error)
	GetEntry(ctx context.Context, itemID string) (*model.GoldenEntry, error)
	SaveEntry(ctx context.Context, entry *model.GoldenEntry) (reviewed int, err error)

	// Reporting
	ExportEntries(ctx context.Context) ([]model.GoldenEntry, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
