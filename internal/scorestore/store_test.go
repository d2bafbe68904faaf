package scorestore

import (
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varscore/varscore/internal/variant"
)

var testColumns = Columns{
	Chrom: "chr",
	Pos:   "grch38_pos",
	Ref:   "ref",
	Alt:   "alt",
	Score: "REVEL",
}

const testHeader = "chr,grch38_pos,ref,alt,aaref,aaalt,REVEL"

// writeSource writes a small comma-delimited score dataset.
func writeSource(t *testing.T, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scores.csv")
	content := testHeader + "\n" + strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func buildStore(t *testing.T, sourcePath string, opts Options) (string, BuildSummary) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "scores.duckdb")
	summary, err := Build(context.Background(), dbPath, sourcePath, opts)
	require.NoError(t, err)
	return dbPath, summary
}

func openStore(t *testing.T, dbPath string) *Store {
	t.Helper()
	s, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBuildAndLookup(t *testing.T) {
	src := writeSource(t,
		"6,100,A,T,M,V,0.8",
		"6,200,G,C,R,H,0.3",
		"7,300,A,G,L,P,0.55",
	)
	dbPath, summary := buildStore(t, src, Options{Columns: testColumns})

	assert.Equal(t, int64(3), summary.Loaded)
	assert.Equal(t, int64(0), summary.Skipped)
	assert.Equal(t, 1, summary.Batches)

	s := openStore(t, dbPath)

	value, ok, err := s.Lookup(context.Background(), variant.Key{Chrom: "6", Pos: 100, Ref: "A", Alt: "T"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.8, value)

	_, ok, err = s.Lookup(context.Background(), variant.Key{Chrom: "6", Pos: 999, Ref: "A", Alt: "T"})
	require.NoError(t, err)
	assert.False(t, ok)

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestBuildFirstRowWins(t *testing.T) {
	src := writeSource(t,
		"6,100,A,T,M,V,0.8",
		"6,100,A,T,M,V,0.1",
		"6,200,G,C,R,H,0.3",
		"6,100,A,T,M,V,0.9",
	)
	// BatchSize 2 puts the duplicates in separate transactions.
	dbPath, summary := buildStore(t, src, Options{Columns: testColumns, BatchSize: 2})

	assert.Equal(t, int64(2), summary.Loaded)
	assert.Equal(t, 2, summary.Batches)

	s := openStore(t, dbPath)
	value, ok, err := s.Lookup(context.Background(), variant.Key{Chrom: "6", Pos: 100, Ref: "A", Alt: "T"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.8, value)
}

func TestBuildSkipsMalformedRows(t *testing.T) {
	src := writeSource(t,
		"6,100,A,T,M,V,0.8",
		"6,notanumber,A,T,M,V,0.5",
		"6,200,G,C,R,H,notascore",
		"6,300",
		"6,400,C,G,A,S,0.42",
	)
	dbPath, summary := buildStore(t, src, Options{Columns: testColumns})

	assert.Equal(t, int64(2), summary.Loaded)
	assert.Equal(t, int64(3), summary.Skipped)

	s := openStore(t, dbPath)
	value, ok, err := s.Lookup(context.Background(), variant.Key{Chrom: "6", Pos: 400, Ref: "C", Alt: "G"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.42, value)
}

func TestBuildRefusesExistingStore(t *testing.T) {
	src := writeSource(t, "6,100,A,T,M,V,0.8")
	dbPath := filepath.Join(t.TempDir(), "scores.duckdb")
	require.NoError(t, os.WriteFile(dbPath, []byte("placeholder"), 0644))

	_, err := Build(context.Background(), dbPath, src, Options{Columns: testColumns})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExists)
}

func TestBuildChromFilter(t *testing.T) {
	rows := []string{
		"5,50,A,T,M,V,0.1",
		"6,100,A,T,M,V,0.8",
		"6,200,G,C,R,H,0.3",
		"7,300,A,G,L,P,0.55",
		"garbage line",
	}

	t.Run("sorted input stops early", func(t *testing.T) {
		src := writeSource(t, rows...)
		dbPath, summary := buildStore(t, src, Options{
			Columns: testColumns,
			Filter:  &ChromFilter{Chrom: "6", SortedInput: true},
		})

		assert.Equal(t, int64(2), summary.Loaded)
		// The scan stopped at chromosome 7, before the garbage line.
		assert.Equal(t, int64(0), summary.Skipped)

		s := openStore(t, dbPath)
		_, ok, err := s.Lookup(context.Background(), variant.Key{Chrom: "7", Pos: 300, Ref: "A", Alt: "G"})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unsorted input scans everything", func(t *testing.T) {
		src := writeSource(t, rows...)
		_, summary := buildStore(t, src, Options{
			Columns: testColumns,
			Filter:  &ChromFilter{Chrom: "6"},
		})

		assert.Equal(t, int64(2), summary.Loaded)
		assert.Equal(t, int64(1), summary.Skipped)
	})
}

func TestBuildGzippedSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scores.csv.gz")

	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(testHeader + "\n6,100,A,T,M,V,0.8\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	dbPath, summary := buildStore(t, path, Options{Columns: testColumns})
	assert.Equal(t, int64(1), summary.Loaded)

	s := openStore(t, dbPath)
	value, ok, err := s.Lookup(context.Background(), variant.Key{Chrom: "6", Pos: 100, Ref: "A", Alt: "T"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.8, value)
}

func TestBuildNormalizesChromPrefix(t *testing.T) {
	src := writeSource(t, "chr6,100,A,T,M,V,0.8")
	dbPath, _ := buildStore(t, src, Options{Columns: testColumns})

	s := openStore(t, dbPath)
	value, ok, err := s.Lookup(context.Background(), variant.Key{Chrom: "6", Pos: 100, Ref: "A", Alt: "T"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.8, value)
}

func TestOpenMissingStore(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.duckdb"))
	require.Error(t, err)
}

func TestResolverOrderAndMisses(t *testing.T) {
	src := writeSource(t,
		"6,100,A,T,M,V,0.8",
		"6,200,G,C,R,H,0.3",
	)
	dbPath, _ := buildStore(t, src, Options{Columns: testColumns})
	s := openStore(t, dbPath)

	keys := []variant.Key{
		variant.Parse("6-100-A-T"),
		variant.Parse("6-200-G-C"),
		variant.Parse("7-300-A-G"),
		variant.Unknown,
	}

	scores, err := NewResolver(s, 2).Resolve(context.Background(), keys)
	require.NoError(t, err)
	require.Len(t, scores, 4)

	assert.Equal(t, "0.8", scores[0].Cell())
	assert.Equal(t, "0.3", scores[1].Cell())
	assert.Equal(t, "unavailable", scores[2].Cell())
	assert.Equal(t, "unavailable", scores[3].Cell())
}
