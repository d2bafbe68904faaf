package scorestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/varscore/varscore/internal/variant"
)

const (
	// DefaultBatchSize is the number of rows committed per transaction.
	DefaultBatchSize = 100_000

	// insertChunk bounds the VALUES list of a single INSERT statement.
	insertChunk = 1000
)

// ChromFilter restricts a build to a single chromosome.
type ChromFilter struct {
	Chrom string

	// SortedInput stops the scan at the first row past the filtered
	// chromosome. Only safe when the source is grouped by chromosome.
	SortedInput bool
}

// Options configures a store build.
type Options struct {
	Delimiter string // field delimiter, default ","
	Columns   Columns
	BatchSize int // rows per transaction, default DefaultBatchSize
	Filter    *ChromFilter

	// Logger receives build progress. Nil means no-op.
	Logger *zap.Logger
}

// BuildSummary reports what a build did.
type BuildSummary struct {
	Loaded  int64 // rows inserted; duplicate keys keep the first row seen
	Skipped int64 // malformed rows
	Batches int   // committed transactions
}

// Build creates a new score store at dbPath from a delimited source
// dataset. Rows are committed in batches, each batch one transaction,
// so an aborted build never leaves a half-written store behind. The
// first row seen for a (chrom, pos, ref, alt) key wins; later
// duplicates are ignored. Build fails with ErrExists if dbPath already
// exists.
func Build(ctx context.Context, dbPath, sourcePath string, opts Options) (BuildSummary, error) {
	var summary BuildSummary

	if _, err := os.Stat(dbPath); err == nil {
		return summary, fmt.Errorf("%w: %s", ErrExists, dbPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return summary, fmt.Errorf("stat %s: %w", dbPath, err)
	}
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return summary, fmt.Errorf("create store directory: %w", err)
		}
	}

	if opts.Delimiter == "" {
		opts.Delimiter = ","
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	src, err := newSourceReader(sourcePath, opts.Delimiter, opts.Columns)
	if err != nil {
		return summary, err
	}
	defer src.Close()

	// Build into a temp file and rename into place, so a failed build
	// leaves no store at dbPath.
	tmpPath := dbPath + ".tmp"
	os.Remove(tmpPath)

	db, err := sql.Open("duckdb", tmpPath)
	if err != nil {
		return summary, fmt.Errorf("open duckdb: %w", err)
	}

	if err := load(ctx, db, src, opts, &summary); err != nil {
		db.Close()
		os.Remove(tmpPath)
		return summary, err
	}

	if err := db.Close(); err != nil {
		os.Remove(tmpPath)
		return summary, fmt.Errorf("close store: %w", err)
	}
	if err := os.Rename(tmpPath, dbPath); err != nil {
		os.Remove(tmpPath)
		return summary, fmt.Errorf("finalize store: %w", err)
	}

	opts.Logger.Info("score store built",
		zap.String("path", dbPath),
		zap.Int64("rows", summary.Loaded),
		zap.Int64("skipped", summary.Skipped),
		zap.Int("batches", summary.Batches))
	return summary, nil
}

func load(ctx context.Context, db *sql.DB, src *sourceReader, opts Options, summary *BuildSummary) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE scores (
		chrom VARCHAR,
		pos BIGINT,
		ref VARCHAR,
		alt VARCHAR,
		score DOUBLE,
		PRIMARY KEY (chrom, pos, ref, alt)
	)`); err != nil {
		return fmt.Errorf("create scores table: %w", err)
	}

	batch := make([]record, 0, opts.BatchSize)
	matched := false

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		inserted, err := insertBatch(ctx, db, batch)
		if err != nil {
			return err
		}
		summary.Loaded += inserted
		summary.Batches++
		opts.Logger.Debug("batch committed",
			zap.Int("batch", summary.Batches),
			zap.Int64("rows", summary.Loaded))
		batch = batch[:0]
		return nil
	}

scan:
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec, err := src.next()
		var malformed *rowError
		switch {
		case err == io.EOF:
			break scan
		case errors.As(err, &malformed):
			summary.Skipped++
			continue
		case err != nil:
			return err
		}

		if f := opts.Filter; f != nil {
			if rec.key.Chrom != f.Chrom {
				if f.SortedInput && matched {
					break scan
				}
				continue
			}
			matched = true
		}

		batch = append(batch, rec)
		if len(batch) >= opts.BatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	// Lookup indexes, created once after the bulk load.
	for _, stmt := range []string{
		"CREATE INDEX idx_scores_pos ON scores (pos)",
		"CREATE INDEX idx_scores_chrom_pos ON scores (chrom, pos)",
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}

// insertBatch writes one batch inside a single transaction and returns
// the number of rows actually inserted. Keys already present, from this
// batch or an earlier one, are ignored.
func insertBatch(ctx context.Context, db *sql.DB, batch []record) (int64, error) {
	// Deduplicate within the batch; the store's primary key handles
	// duplicates across batches.
	seen := make(map[variant.Key]bool, len(batch))
	deduped := make([]record, 0, len(batch))
	for _, rec := range batch {
		if !seen[rec.key] {
			seen[rec.key] = true
			deduped = append(deduped, rec)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin batch: %w", err)
	}

	var inserted int64
	for i := 0; i < len(deduped); i += insertChunk {
		end := i + insertChunk
		if end > len(deduped) {
			end = len(deduped)
		}
		chunk := deduped[i:end]

		var sb strings.Builder
		sb.WriteString("INSERT OR IGNORE INTO scores VALUES ")
		for j, rec := range chunk {
			if j > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(&sb, "('%s',%d,'%s','%s',%g)",
				rec.key.Chrom, rec.key.Pos, rec.key.Ref, rec.key.Alt, rec.score)
		}

		res, err := tx.ExecContext(ctx, sb.String())
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("insert batch rows: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("count inserted rows: %w", err)
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return inserted, nil
}
