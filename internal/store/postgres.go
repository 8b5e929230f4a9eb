package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/curate-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses, extracted so tests can
// substitute pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements Store using pgxpool, for shared-team deployments
// where several operators curate against one database.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
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
CREATE TABLE IF NOT EXISTS batches (
	name         TEXT PRIMARY KEY,
	run_id       TEXT NOT NULL,
	fingerprint  TEXT NOT NULL,
	status       TEXT NOT NULL,
	processed_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS batch_addresses (
	batch    TEXT NOT NULL REFERENCES batches(name) ON DELETE CASCADE,
	address  TEXT NOT NULL,
	category TEXT NOT NULL,
	PRIMARY KEY (batch, address)
);

CREATE TABLE IF NOT EXISTS enrichment (
	address      TEXT PRIMARY KEY,
	org          TEXT NOT NULL DEFAULT '',
	phone        TEXT NOT NULL DEFAULT '',
	country      TEXT NOT NULL DEFAULT '',
	city         TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	keywords     TEXT NOT NULL DEFAULT '',
	source_url   TEXT NOT NULL DEFAULT '',
	batch        TEXT NOT NULL DEFAULT '',
	first_seen   TIMESTAMPTZ NOT NULL,
	last_updated TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_batch_addresses_address ON batch_addresses(address);
CREATE INDEX IF NOT EXISTS idx_batches_processed_at ON batches(processed_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetBatch(ctx context.Context, name string) (*model.BatchOutcome, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT name, run_id, fingerprint, status, processed_at FROM batches WHERE name = $1`, name)

	var out model.BatchOutcome
	err := row.Scan(&out.Batch, &out.RunID, &out.Fingerprint, &out.Status, &out.ProcessedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get batch %s", name)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT address, category FROM batch_addresses WHERE batch = $1`, name)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get batch addresses %s", name)
	}
	defer rows.Close()

	out.Addresses = make(map[string]model.Category)
	for rows.Next() {
		var addr string
		var cat model.Category
		if err := rows.Scan(&addr, &cat); err != nil {
			return nil, eris.Wrap(err, "postgres: scan batch address")
		}
		out.Addresses[addr] = cat
	}
	return &out, eris.Wrap(rows.Err(), "postgres: iterate batch addresses")
}

func (s *PostgresStore) ListBatches(ctx context.Context) ([]model.BatchSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT b.name, b.run_id, b.fingerprint, b.status, b.processed_at,
		       (SELECT COUNT(*) FROM batch_addresses a WHERE a.batch = b.name)
		FROM batches b
		ORDER BY b.processed_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list batches")
	}
	defer rows.Close()

	var out []model.BatchSummary
	for rows.Next() {
		var bs model.BatchSummary
		if err := rows.Scan(&bs.Batch, &bs.RunID, &bs.Fingerprint, &bs.Status, &bs.ProcessedAt, &bs.Addresses); err != nil {
			return nil, eris.Wrap(err, "postgres: scan batch summary")
		}
		out = append(out, bs)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate batches")
}

func (s *PostgresStore) RecordOutcome(ctx context.Context, out *model.BatchOutcome) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin outcome tx")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO batches (name, run_id, fingerprint, status, processed_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (name) DO UPDATE SET
		   run_id = EXCLUDED.run_id,
		   fingerprint = EXCLUDED.fingerprint,
		   status = EXCLUDED.status,
		   processed_at = EXCLUDED.processed_at`,
		out.Batch, out.RunID, out.Fingerprint, string(out.Status), out.ProcessedAt.UTC(),
	); err != nil {
		return eris.Wrapf(err, "postgres: upsert batch %s", out.Batch)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM batch_addresses WHERE batch = $1`, out.Batch); err != nil {
		return eris.Wrapf(err, "postgres: clear batch partition %s", out.Batch)
	}

	for addr, cat := range out.Addresses {
		if _, err := tx.Exec(ctx,
			`INSERT INTO batch_addresses (batch, address, category) VALUES ($1, $2, $3)`,
			out.Batch, addr, string(cat),
		); err != nil {
			return eris.Wrapf(err, "postgres: insert address for %s", out.Batch)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit outcome")
}

func (s *PostgresStore) KnownAddresses(ctx context.Context) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.address, a.batch
		FROM batch_addresses a
		JOIN batches b ON b.name = a.batch
		ORDER BY b.processed_at ASC, a.address ASC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: known addresses")
	}
	defer rows.Close()

	known := make(map[string]string)
	for rows.Next() {
		var addr, batch string
		if err := rows.Scan(&addr, &batch); err != nil {
			return nil, eris.Wrap(err, "postgres: scan known address")
		}
		if _, ok := known[addr]; !ok {
			known[addr] = batch
		}
	}
	return known, eris.Wrap(rows.Err(), "postgres: iterate known addresses")
}

const enrichmentColumns = `address, org, phone, country, city, description, keywords, source_url, batch, first_seen, last_updated`

func (s *PostgresStore) GetEnrichment(ctx context.Context, address string) (*model.EnrichmentRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+enrichmentColumns+` FROM enrichment WHERE address = $1`, address)

	rec, err := scanEnrichment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get enrichment %s", address)
	}
	return rec, nil
}

func (s *PostgresStore) BatchEnrichment(ctx context.Context, addresses []string) (map[string]*model.EnrichmentRecord, error) {
	out := make(map[string]*model.EnrichmentRecord, len(addresses))
	if len(addresses) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+enrichmentColumns+` FROM enrichment WHERE address = ANY($1)`, addresses)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: batch enrichment")
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanEnrichment(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan enrichment")
		}
		out[rec.Address.String()] = rec
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate enrichment")
}

// UpsertEnrichment applies the non-empty-wins merge in SQL: a stored
// attribute survives unless it is empty, in which case the incoming value
// fills it.
func (s *PostgresStore) UpsertEnrichment(ctx context.Context, rec *model.Record) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO enrichment (`+enrichmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (address) DO UPDATE SET
		  org         = COALESCE(NULLIF(enrichment.org, ''), EXCLUDED.org),
		  phone       = COALESCE(NULLIF(enrichment.phone, ''), EXCLUDED.phone),
		  country     = COALESCE(NULLIF(enrichment.country, ''), EXCLUDED.country),
		  city        = COALESCE(NULLIF(enrichment.city, ''), EXCLUDED.city),
		  description = COALESCE(NULLIF(enrichment.description, ''), EXCLUDED.description),
		  keywords    = COALESCE(NULLIF(enrichment.keywords, ''), EXCLUDED.keywords),
		  source_url  = COALESCE(NULLIF(enrichment.source_url, ''), EXCLUDED.source_url),
		  batch       = COALESCE(NULLIF(enrichment.batch, ''), EXCLUDED.batch),
		  last_updated = EXCLUDED.last_updated`,
		rec.Address.String(), rec.Org, rec.Phone, rec.Country, rec.City,
		rec.Description, rec.Keywords, rec.SourceURL, rec.Batch, now,
	)
	return eris.Wrapf(err, "postgres: upsert enrichment %s", rec.Address.String())
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
