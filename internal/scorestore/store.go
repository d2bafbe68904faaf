// Package scorestore builds and queries local pathogenicity score stores.
// A store is a single DuckDB file keyed by (chrom, pos, ref, alt), built
// once from a delimited score dataset and then opened for point lookups.
package scorestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/varscore/varscore/internal/variant"
)

// ErrExists is returned by Build when the target store file already exists.
// Stores are immutable once built; delete the file to rebuild.
var ErrExists = errors.New("score store already exists")

// Store provides score lookups against a built store file.
type Store struct {
	db       *sql.DB
	path     string
	lookupPS *sql.Stmt
}

// Open opens an existing score store. The file must have been produced
// by Build; opening a missing path is an error rather than an implicit
// empty store.
func Open(dbPath string) (*Store, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("score store %s: %w", dbPath, err)
	}

	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	// Prepared up front so concurrent lookups share one statement.
	ps, err := db.Prepare(
		"SELECT score FROM scores WHERE chrom=? AND pos=? AND ref=? AND alt=? LIMIT 1",
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare lookup: %w", err)
	}

	return &Store{db: db, path: dbPath, lookupPS: ps}, nil
}

// Lookup returns the score for a variant key. The second return value
// reports whether the key is present; a miss is not an error.
func (s *Store) Lookup(ctx context.Context, key variant.Key) (float64, bool, error) {
	var value float64
	err := s.lookupPS.QueryRowContext(ctx, key.Chrom, key.Pos, key.Ref, key.Alt).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup %s: %w", key, err)
	}
	return value, true, nil
}

// Count returns the number of score rows in the store.
func (s *Store) Count() (int64, error) {
	var count int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM scores").Scan(&count); err != nil {
		return 0, fmt.Errorf("count score rows: %w", err)
	}
	return count, nil
}

// Path returns the store file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.lookupPS != nil {
		s.lookupPS.Close()
	}
	return s.db.Close()
}
