package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/curation-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it
// for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS items (
	id                TEXT PRIMARY KEY,
	asset_ref         TEXT NOT NULL,
	original_filename TEXT NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY,
	item_id    TEXT NOT NULL REFERENCES items(id),
	producer   TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS entries (
	id         TEXT PRIMARY KEY,
	item_id    TEXT NOT NULL REFERENCES items(id),
	version    INTEGER NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(item_id, version)
);

CREATE INDEX IF NOT EXISTS idx_analyses_item_id ON analyses(item_id);
CREATE INDEX IF NOT EXISTS idx_entries_item_id ON entries(item_id);
CREATE INDEX IF NOT EXISTS idx_entries_item_version ON entries(item_id, version DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) PutItem(ctx context.Context, item model.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO items (id, asset_ref, original_filename, created_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET asset_ref = EXCLUDED.asset_ref, original_filename = EXCLUDED.original_filename`,
		item.ID, item.AssetRef, item.OriginalFilename, item.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: put item %s", item.ID)
}

func (s *PostgresStore) PutAnalyses(ctx context.Context, analyses []model.SourceAnalysis) error {
	for _, a := range analyses {
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now().UTC()
		}
		payload, err := json.Marshal(a)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal analysis")
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO analyses (id, item_id, producer, payload, created_at) VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload`,
			a.ID, a.ItemID, a.Producer, payload, a.CreatedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: put analysis %s", a.ID)
		}
	}
	return nil
}

func (s *PostgresStore) ListItems(ctx context.Context, filter ItemFilter) (*ItemBatch, error) {
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
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM items `+where).Scan(&batch.Total); err != nil {
		return nil, eris.Wrap(err, "postgres: count items")
	}
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(DISTINCT item_id) FROM entries`).Scan(&batch.Reviewed); err != nil {
		return nil, eris.Wrap(err, "postgres: count reviewed")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, asset_ref, original_filename, created_at,
		        EXISTS (SELECT 1 FROM entries e WHERE e.item_id = items.id) AS reviewed
		 FROM items `+where+
			` ORDER BY created_at, id LIMIT $1 OFFSET $2`,
		filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list items")
	}
	defer rows.Close()

	for rows.Next() {
		var iws ItemWithSources
		it := &iws.Item
		if err := rows.Scan(&it.ID, &it.AssetRef, &it.OriginalFilename, &it.CreatedAt, &iws.Reviewed); err != nil {
			return nil, eris.Wrap(err, "postgres: scan item")
		}
		batch.Items = append(batch.Items, iws)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate items")
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

func (s *PostgresStore) GetItem(ctx context.Context, itemID string) (*ItemWithSources, error) {
	var iws ItemWithSources
	it := &iws.Item
	err := s.pool.QueryRow(ctx,
		`SELECT id, asset_ref, original_filename, created_at,
		        EXISTS (SELECT 1 FROM entries e WHERE e.item_id = items.id) AS reviewed
		 FROM items WHERE id = $1`, itemID,
	).Scan(&it.ID, &it.AssetRef, &it.OriginalFilename, &it.CreatedAt, &iws.Reviewed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get item %s", itemID)
	}
	iws.Sources, err = s.analysesFor(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return &iws, nil
}

func (s *PostgresStore) analysesFor(ctx context.Context, itemID string) ([]model.SourceAnalysis, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM analyses WHERE item_id = $1 ORDER BY created_at, id`, itemID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: analyses for %s", itemID)
	}
	defer rows.Close()

	var out []model.SourceAnalysis
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan analysis")
		}
		var a model.SourceAnalysis
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal analysis")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetEntry(ctx context.Context, itemID string) (*model.GoldenEntry, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM entries WHERE item_id = $1 ORDER BY version DESC LIMIT 1`, itemID,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get entry %s", itemID)
	}
	var entry model.GoldenEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal entry")
	}
	return &entry, nil
}

func (s *PostgresStore) SaveEntry(ctx context.Context, entry *model.GoldenEntry) (int, error) {
	if entry == nil || entry.ItemID == "" {
		return 0, eris.New("postgres: entry missing item id")
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var version int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM entries WHERE item_id = $1`, entry.ItemID,
	).Scan(&version)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: next version")
	}
	entry.Version = version

	payload, err := json.Marshal(entry)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: marshal entry")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO entries (id, item_id, version, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.ItemID, entry.Version, payload, entry.CreatedAt,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: save entry %s", entry.ItemID)
	}

	var reviewed int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(DISTINCT item_id) FROM entries`).Scan(&reviewed); err != nil {
		return 0, eris.Wrap(err, "postgres: count reviewed")
	}
	return reviewed, nil
}

func (s *PostgresStore) ExportEntries(ctx context.Context) ([]model.GoldenEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM entries e
		 WHERE version = (SELECT MAX(version) FROM entries WHERE item_id = e.item_id)
		 ORDER BY item_id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: export entries")
	}
	defer rows.Close()

	var out []model.GoldenEntry
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan entry")
		}
		var entry model.GoldenEntry
		if err := json.Unmarshal(payload, &entry); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal entry")
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
