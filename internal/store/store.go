// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists publication records, download outcomes, quality
// assessments, and the durable cache tier in a single SQLite database at
// DataDir/index/fulltext.db.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/fulltext-engine/internal/identify"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

const (
	indexDir = "index"
	rawDir   = "raw"
	dbFile   = "fulltext.db"
)

// Store manages the engine's SQLite database.
type Store struct {
	db      *sql.DB
	dataDir string
}

// Open opens or creates the database at cfg.DataDir/index/fulltext.db,
// creating the schema if it does not exist.
func Open(cfg types.StorageConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.DataDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(cfg.DataDir, rawDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating raw directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dataDir: cfg.DataDir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RawDir returns the directory downloaded PDFs are stored under.
func (s *Store) RawDir() string {
	return filepath.Join(s.dataDir, rawDir)
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS publications (
			key TEXT PRIMARY KEY,
			dataset_id TEXT NOT NULL,
			doi TEXT NOT NULL DEFAULT '',
			pmid TEXT NOT NULL DEFAULT '',
			pmcid TEXT NOT NULL DEFAULT '',
			preprint_id TEXT NOT NULL DEFAULT '',
			fingerprint TEXT NOT NULL DEFAULT '',
			title TEXT,
			authors TEXT,
			venue TEXT,
			year INTEGER,
			abstract TEXT,
			citation_count INTEGER,
			created_at TEXT,
			updated_at TEXT
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_pub_doi
			ON publications(dataset_id, doi) WHERE doi != ''`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_pub_pmid
			ON publications(dataset_id, pmid) WHERE pmid != ''`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_pub_pmcid
			ON publications(dataset_id, pmcid) WHERE pmcid != ''`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_pub_preprint
			ON publications(dataset_id, preprint_id) WHERE preprint_id != ''`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_pub_fingerprint
			ON publications(dataset_id, fingerprint) WHERE fingerprint != ''`,
		`CREATE TABLE IF NOT EXISTS rankings (
			record_key TEXT PRIMARY KEY,
			candidates TEXT NOT NULL,
			provider_errors TEXT,
			collected_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			acquisition_id TEXT PRIMARY KEY,
			record_key TEXT NOT NULL,
			status TEXT NOT NULL,
			url TEXT,
			provider TEXT,
			byte_size INTEGER,
			sha256 TEXT,
			pdf_path TEXT,
			trail TEXT,
			cached INTEGER,
			completed_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_record ON outcomes(record_key)`,
		`CREATE TABLE IF NOT EXISTS quality_assessments (
			record_key TEXT PRIMARY KEY,
			score REAL,
			level TEXT,
			issues TEXT,
			assessed_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS cache_entries (
			kind TEXT NOT NULL,
			key TEXT NOT NULL,
			payload BLOB,
			stored_at TEXT,
			ttl_ns INTEGER,
			PRIMARY KEY (kind, key)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// UpsertRecord inserts rec or merges it into the existing record any of
// its identifiers matches within the same dataset. Merging never
// downgrades identity: a record that gained a DOI keeps it even when a
// later input arrives without one. The stored, possibly re-keyed record
// is returned.
func (s *Store) UpsertRecord(ctx context.Context, rec *types.PublicationRecord) (*types.PublicationRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	existing, err := findMatch(ctx, tx, rec)
	if err != nil {
		return nil, err
	}

	stored := rec
	if existing != nil {
		oldKey := existing.Key()
		createdAt := existing.CreatedAt
		stored = identify.Merge(existing, rec)
		stored.CreatedAt = createdAt
		// Enrichment can promote the record to a stronger identifier;
		// the old row goes away with its old key.
		if oldKey != stored.Key() {
			if _, err := tx.ExecContext(ctx, `DELETE FROM publications WHERE key = ?`, oldKey); err != nil {
				return nil, fmt.Errorf("removing re-keyed record: %w", err)
			}
		}
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	authorsJSON, _ := json.Marshal(stored.Authors)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO publications
			(key, dataset_id, doi, pmid, pmcid, preprint_id, fingerprint,
			 title, authors, venue, year, abstract, citation_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			doi=excluded.doi, pmid=excluded.pmid, pmcid=excluded.pmcid,
			preprint_id=excluded.preprint_id, fingerprint=excluded.fingerprint,
			title=excluded.title, authors=excluded.authors, venue=excluded.venue,
			year=excluded.year, abstract=excluded.abstract,
			citation_count=excluded.citation_count, updated_at=excluded.updated_at`,
		stored.Key(), stored.DatasetID, stored.DOI, stored.PMID, stored.PMCID,
		stored.PreprintID, stored.Fingerprint, stored.Title, string(authorsJSON),
		stored.Venue, stored.Year, stored.Abstract, stored.CitationCount,
		stored.CreatedAt.Format(time.RFC3339Nano), stored.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("upserting publication: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing: %w", err)
	}
	return stored, nil
}

// findMatch locates an existing record sharing any identifier with rec,
// checked in precedence order so the strongest link wins.
func findMatch(ctx context.Context, tx *sql.Tx, rec *types.PublicationRecord) (*types.PublicationRecord, error) {
	clauses := []struct {
		column string
		value  string
	}{
		{"doi", rec.DOI},
		{"pmid", rec.PMID},
		{"pmcid", rec.PMCID},
		{"preprint_id", rec.PreprintID},
		{"fingerprint", rec.Fingerprint},
	}
	for _, c := range clauses {
		if c.value == "" {
			continue
		}
		query := fmt.Sprintf(
			`SELECT key, dataset_id, doi, pmid, pmcid, preprint_id, fingerprint,
				title, authors, venue, year, abstract, citation_count, created_at, updated_at
			 FROM publications WHERE dataset_id = ? AND %s = ?`, c.column)
		row := tx.QueryRowContext(ctx, query, rec.DatasetID, c.value)
		found, err := scanRecord(row)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("looking up by %s: %w", c.column, err)
		}
		return found, nil
	}
	return nil, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*types.PublicationRecord, error) {
	var rec types.PublicationRecord
	var key, authorsJSON, createdAt, updatedAt string
	if err := row.Scan(&key, &rec.DatasetID, &rec.DOI, &rec.PMID, &rec.PMCID,
		&rec.PreprintID, &rec.Fingerprint, &rec.Title, &authorsJSON, &rec.Venue,
		&rec.Year, &rec.Abstract, &rec.CitationCount, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if authorsJSON != "" {
		if err := json.Unmarshal([]byte(authorsJSON), &rec.Authors); err != nil {
			return nil, fmt.Errorf("decoding authors: %w", err)
		}
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &rec, nil
}

// GetRecord returns the record stored under key, or nil when absent.
func (s *Store) GetRecord(ctx context.Context, key string) (*types.PublicationRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT key, dataset_id, doi, pmid, pmcid, preprint_id, fingerprint,
			title, authors, venue, year, abstract, citation_count, created_at, updated_at
		 FROM publications WHERE key = ?`, key)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting record %s: %w", key, err)
	}
	return rec, nil
}

// ListRecords returns every record under datasetID, ordered by key.
func (s *Store) ListRecords(ctx context.Context, datasetID string) ([]*types.PublicationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, dataset_id, doi, pmid, pmcid, preprint_id, fingerprint,
			title, authors, venue, year, abstract, citation_count, created_at, updated_at
		 FROM publications WHERE dataset_id = ? ORDER BY key`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var out []*types.PublicationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountRecords returns the number of records under datasetID.
func (s *Store) CountRecords(ctx context.Context, datasetID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM publications WHERE dataset_id = ?`, datasetID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}
