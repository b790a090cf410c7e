package parser

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// StoredRecord is a persisted Record. The url column is the natural dedupe
// key: SaveBatch never inserts a url it has already seen, either in storage
// or earlier in the same batch.
type StoredRecord struct {
	ID    int64   `db:"id"`
	Title *string `db:"title"`
	URL   *string `db:"url"`
}

// RecordStore persists harvested records using SQLite.
type RecordStore struct {
	db *sqlx.DB
}

// NewRecordStore opens (or creates) the record database at the given DSN.
func NewRecordStore(dsn string) (*RecordStore, error) {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &RecordStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *RecordStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS parsed_articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT,
		url TEXT
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *RecordStore) Close() error {
	return s.db.Close()
}

// SaveBatch writes the batch, skipping every record whose url already exists
// in storage. Duplicate urls within the batch itself are collapsed to the
// first occurrence before the storage check. All staged inserts land in one
// transaction: either the whole remainder of the batch persists or none of
// it does. Returns the number of rows inserted.
func (s *RecordStore) SaveBatch(ctx context.Context, records []Record) (int, error) {
	seen := make(map[string]struct{}, len(records))
	var staged []Record
	for _, rec := range records {
		if rec.URL == nil {
			continue
		}
		if _, dup := seen[*rec.URL]; dup {
			continue
		}
		seen[*rec.URL] = struct{}{}

		exists, err := s.urlExists(ctx, *rec.URL)
		if err != nil {
			return 0, fmt.Errorf("failed to check url %q: %w", *rec.URL, err)
		}
		if exists {
			continue
		}
		staged = append(staged, rec)
	}

	if len(staged) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, rec := range staged {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO parsed_articles (title, url) VALUES (?, ?)",
			rec.Title, rec.URL,
		); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to insert record: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}

	return len(staged), nil
}

func (s *RecordStore) urlExists(ctx context.Context, url string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(1) FROM parsed_articles WHERE url = ?", url)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns every stored record in insertion order.
func (s *RecordStore) List(ctx context.Context) ([]StoredRecord, error) {
	var records []StoredRecord
	err := s.db.SelectContext(ctx, &records,
		"SELECT id, title, url FROM parsed_articles ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return records, nil
}
