package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/curation-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS items (
	id                TEXT PRIMARY KEY,
	asset_ref         TEXT NOT NULL,
	original_filename TEXT NOT NULL,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY,
	item_id    TEXT NOT NULL REFERENCES items(id),
	producer   TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS entries (
	id         TEXT PRIMARY KEY,
	item_id    TEXT NOT NULL REFERENCES items(id),
	version    INTEGER NOT NULL,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(item_id, version)
);

CREATE INDEX IF NOT EXISTS idx_analyses_item_id ON analyses(item_id);
CREATE INDEX IF NOT EXISTS idx_entries_item_id ON entries(item_id);
CREATE INDEX IF NOT EXISTS idx_entries_item_version ON entries(item_id, version DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) PutItem(ctx context.Context, item model.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (id, asset_ref, original_filename, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET asset_ref = excluded.asset_ref, original_filename = excluded.original_filename`,
		item.ID, item.AssetRef, item.OriginalFilename, item.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: put item %s", item.ID)
}

func (s *SQLiteStore) PutAnalyses(ctx context.Context, analyses []model.SourceAnalysis) error {
	for _, a := range analyses {
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now().UTC()
		}
		payload, err := json.Marshal(a)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal analysis")
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO analyses (id, item_id, producer, payload, created_at) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload`,
			a.ID, a.ItemID, a.Producer, string(payload), a.CreatedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: put analysis %s", a.ID)
		}
	}
	return nil
}

func (s *SQLiteStore) ListItems(ctx context.Context, filter ItemFilter) (*ItemBatch, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Mode == "" {
		filter.Mode = ModeAll
	}

	where := ""
	if filter.Mode == ModeUnreviewed {
		where = `WHERE NOT EXISTS (SELECT 1 FROM entries e WHERE e.item_id = items.id)`
	}

	batch := &ItemBatch{}

	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items `+where)
	if err := row.Scan(&batch.Total); err != nil {
		return nil, eris.Wrap(err, "sqlite: count items")
	}
	row = s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT item_id) FROM entries`)
	if err := row.Scan(&batch.Reviewed); err != nil {
		return nil, eris.Wrap(err, "sqlite: count reviewed")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, asset_ref, original_filename, created_at,
		        EXISTS (SELECT 1 FROM entries e WHERE e.item_id = items.id) AS reviewed
		 FROM items `+where+
			` ORDER BY created_at, id LIMIT ? OFFSET ?`,
		filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list items")
	}
	defer rows.Close()

	for rows.Next() {
		var iws ItemWithSources
		it := &iws.Item
		if err := rows.Scan(&it.ID, &it.AssetRef, &it.OriginalFilename, &it.CreatedAt, &iws.Reviewed); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan item")
		}
		batch.Items = append(batch.Items, iws)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate items")
	}

	for i := range batch.Items {
		sources, err := s.analysesFor(ctx, batch.Items[i].Item.ID)
		if err != nil {
			return nil, err
		}
		batch.Items[i].Sources = sources
	}
	return batch, nil
}

func (s *SQLiteStore) GetItem(ctx context.Context, itemID string) (*ItemWithSources, error) {
	var iws ItemWithSources
	it := &iws.Item
	err := s.db.QueryRowContext(ctx,
		`SELECT id, asset_ref, original_filename, created_at,
		        EXISTS (SELECT 1 FROM entries e WHERE e.item_id = items.id) AS reviewed
		 FROM items WHERE id = ?`, itemID,
	).Scan(&it.ID, &it.AssetRef, &it.OriginalFilename, &it.CreatedAt, &iws.Reviewed)
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get item %s", itemID)
	}
	iws.Sources, err = s.analysesFor(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return &iws, nil
}

func (s *SQLiteStore) analysesFor(ctx context.Context, itemID string) ([]model.SourceAnalysis, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM analyses WHERE item_id = ? ORDER BY created_at, id`, itemID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: analyses for %s", itemID)
	}
	defer rows.Close()

	var out []model.SourceAnalysis
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan analysis")
		}
		var a model.SourceAnalysis
		if err := json.Unmarshal([]byte(payload), &a); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal analysis")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetEntry(ctx context.Context, itemID string) (*model.GoldenEntry, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM entries WHERE item_id = ? ORDER BY version DESC LIMIT 1`, itemID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get entry %s", itemID)
	}
	var entry model.GoldenEntry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal entry")
	}
	return &entry, nil
}

func (s *SQLiteStore) SaveEntry(ctx context.Context, entry *model.GoldenEntry) (int, error) {
	if entry == nil || entry.ItemID == "" {
		return 0, eris.New("sqlite: entry missing item id")
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var version int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM entries WHERE item_id = ?`, entry.ItemID,
	).Scan(&version)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: next version")
	}
	entry.Version = version

	payload, err := json.Marshal(entry)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: marshal entry")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entries (id, item_id, version, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.ItemID, entry.Version, string(payload), entry.CreatedAt,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: save entry %s", entry.ItemID)
	}

	var reviewed int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT item_id) FROM entries`).Scan(&reviewed)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: count reviewed")
	}
	return reviewed, nil
}

func (s *SQLiteStore) ExportEntries(ctx context.Context) ([]model.GoldenEntry, error) {
	// Latest version per item only.
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM entries e
		 WHERE version = (SELECT MAX(version) FROM entries WHERE item_id = e.item_id)
		 ORDER BY item_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: export entries")
	}
	defer rows.Close()

	var out []model.GoldenEntry
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan entry")
		}
		var entry model.GoldenEntry
		if err := json.Unmarshal([]byte(payload), &entry); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal entry")
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
