package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/curate-cli/internal/model"
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
CREATE TABLE IF NOT EXISTS batches (
	name         TEXT PRIMARY KEY,
	run_id       TEXT NOT NULL,
	fingerprint  TEXT NOT NULL,
	status       TEXT NOT NULL,
	processed_at DATETIME NOT NULL
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
	first_seen   DATETIME NOT NULL,
	last_updated DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_batch_addresses_address ON batch_addresses(address);
CREATE INDEX IF NOT EXISTS idx_batches_processed_at ON batches(processed_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetBatch(ctx context.Context, name string) (*model.BatchOutcome, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, run_id, fingerprint, status, processed_at FROM batches WHERE name = ?`,
		name,
	)

	var out model.BatchOutcome
	err := row.Scan(&out.Batch, &out.RunID, &out.Fingerprint, &out.Status, &out.ProcessedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get batch %s", name)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT address, category FROM batch_addresses WHERE batch = ?`, name)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get batch addresses %s", name)
	}
	defer rows.Close()

	out.Addresses = make(map[string]model.Category)
	for rows.Next() {
		var addr string
		var cat model.Category
		if err := rows.Scan(&addr, &cat); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan batch address")
		}
		out.Addresses[addr] = cat
	}
	return &out, eris.Wrap(rows.Err(), "sqlite: iterate batch addresses")
}

func (s *SQLiteStore) ListBatches(ctx context.Context) ([]model.BatchSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.name, b.run_id, b.fingerprint, b.status, b.processed_at,
		       (SELECT COUNT(*) FROM batch_addresses a WHERE a.batch = b.name)
		FROM batches b
		ORDER BY b.processed_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list batches")
	}
	defer rows.Close()

	var out []model.BatchSummary
	for rows.Next() {
		var bs model.BatchSummary
		if err := rows.Scan(&bs.Batch, &bs.RunID, &bs.Fingerprint, &bs.Status, &bs.ProcessedAt, &bs.Addresses); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan batch summary")
		}
		out = append(out, bs)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate batches")
}

// RecordOutcome replaces the batch's stored outcome in one transaction.
func (s *SQLiteStore) RecordOutcome(ctx context.Context, out *model.BatchOutcome) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin outcome tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO batches (name, run_id, fingerprint, status, processed_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   run_id = excluded.run_id,
		   fingerprint = excluded.fingerprint,
		   status = excluded.status,
		   processed_at = excluded.processed_at`,
		out.Batch, out.RunID, out.Fingerprint, string(out.Status), out.ProcessedAt.UTC(),
	); err != nil {
		return eris.Wrapf(err, "sqlite: upsert batch %s", out.Batch)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM batch_addresses WHERE batch = ?`, out.Batch); err != nil {
		return eris.Wrapf(err, "sqlite: clear batch partition %s", out.Batch)
	}

	for addr, cat := range out.Addresses {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO batch_addresses (batch, address, category) VALUES (?, ?, ?)`,
			out.Batch, addr, string(cat),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert address for %s", out.Batch)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit outcome")
}

func (s *SQLiteStore) KnownAddresses(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.address, a.batch
		FROM batch_addresses a
		JOIN batches b ON b.name = a.batch
		ORDER BY b.processed_at ASC, a.address ASC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: known addresses")
	}
	defer rows.Close()

	known := make(map[string]string)
	for rows.Next() {
		var addr, batch string
		if err := rows.Scan(&addr, &batch); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan known address")
		}
		// Earliest recording wins.
		if _, ok := known[addr]; !ok {
			known[addr] = batch
		}
	}
	return known, eris.Wrap(rows.Err(), "sqlite: iterate known addresses")
}

func (s *SQLiteStore) GetEnrichment(ctx context.Context, address string) (*model.EnrichmentRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT address, org, phone, country, city, description, keywords, source_url, batch, first_seen, last_updated
		FROM enrichment WHERE address = ?`, address)

	rec, err := scanEnrichment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get enrichment %s", address)
	}
	return rec, nil
}

func (s *SQLiteStore) BatchEnrichment(ctx context.Context, addresses []string) (map[string]*model.EnrichmentRecord, error) {
	out := make(map[string]*model.EnrichmentRecord, len(addresses))
	if len(addresses) == 0 {
		return out, nil
	}

	// Chunk the IN clause to stay under SQLite's parameter limit.
	const chunkSize = 500
	for start := 0; start < len(addresses); start += chunkSize {
		end := start + chunkSize
		if end > len(addresses) {
			end = len(addresses)
		}
		chunk := addresses[start:end]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		args := make([]any, len(chunk))
		for i, a := range chunk {
			args[i] = a
		}

		rows, err := s.db.QueryContext(ctx, `
			SELECT address, org, phone, country, city, description, keywords, source_url, batch, first_seen, last_updated
			FROM enrichment WHERE address IN (`+placeholders+`)`, args...)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: batch enrichment")
		}

		for rows.Next() {
			rec, err := scanEnrichment(rows)
			if err != nil {
				rows.Close()
				return nil, eris.Wrap(err, "sqlite: scan enrichment")
			}
			out[rec.Address.String()] = rec
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "sqlite: iterate enrichment")
		}
		rows.Close()
	}
	return out, nil
}

// UpsertEnrichment merges the record into the stored enrichment row with
// the non-empty-wins policy. first_seen is set once; last_updated advances
// on every upsert.
func (s *SQLiteStore) UpsertEnrichment(ctx context.Context, rec *model.Record) error {
	addr := rec.Address.String()
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin enrichment tx")
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT address, org, phone, country, city, description, keywords, source_url, batch, first_seen, last_updated
		FROM enrichment WHERE address = ?`, addr)

	existing, err := scanEnrichment(row)
	if err == sql.ErrNoRows {
		existing = &model.EnrichmentRecord{Address: rec.Address, FirstSeen: now}
	} else if err != nil {
		return eris.Wrapf(err, "sqlite: read enrichment %s", addr)
	}

	existing.Merge(rec)
	existing.LastUpdated = now

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO enrichment (address, org, phone, country, city, description, keywords, source_url, batch, first_seen, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
		  org = excluded.org, phone = excluded.phone, country = excluded.country,
		  city = excluded.city, description = excluded.description,
		  keywords = excluded.keywords, source_url = excluded.source_url,
		  batch = excluded.batch, last_updated = excluded.last_updated`,
		addr, existing.Org, existing.Phone, existing.Country, existing.City,
		existing.Description, existing.Keywords, existing.SourceURL, existing.Batch,
		existing.FirstSeen, existing.LastUpdated,
	); err != nil {
		return eris.Wrapf(err, "sqlite: upsert enrichment %s", addr)
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit enrichment")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanEnrichment(row scannable) (*model.EnrichmentRecord, error) {
	var rec model.EnrichmentRecord
	var addr string
	err := row.Scan(&addr, &rec.Org, &rec.Phone, &rec.Country, &rec.City,
		&rec.Description, &rec.Keywords, &rec.SourceURL, &rec.Batch,
		&rec.FirstSeen, &rec.LastUpdated)
	if err != nil {
		return nil, err
	}
	at := strings.IndexByte(addr, '@')
	if at > 0 {
		rec.Address = model.Address{Local: addr[:at], Domain: addr[at+1:]}
	}
	return &rec, nil
}
