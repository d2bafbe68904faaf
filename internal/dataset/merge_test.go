package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	m, err := ParseMode("override")
	require.NoError(t, err)
	assert.Equal(t, Override, m)

	m, err = ParseMode("append")
	require.NoError(t, err)
	assert.Equal(t, Append, m)

	_, err = ParseMode("upsert")
	require.Error(t, err)
}

func TestMergeOverrideReplacesDestination(t *testing.T) {
	dest := writeDataset(t, "gene,REVEL\nOLD1,0.1\nOLD2,0.2\nOLD3,0.3\n")

	fresh := &Table{
		Header: []string{"gene", "REVEL"},
		Rows:   [][]string{{"BRCA1", "0.8"}},
	}
	require.NoError(t, Merge(dest, fresh, Override))

	got, err := Read(dest, 0)
	require.NoError(t, err)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, []string{"BRCA1", "0.8"}, got.Rows[0])
}

func TestMergeOverrideCreatesDestination(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "fresh.csv")

	fresh := &Table{
		Header: []string{"gene", "REVEL"},
		Rows:   [][]string{{"BRCA1", "0.8"}},
	}
	require.NoError(t, Merge(dest, fresh, Override))

	got, err := Read(dest, 0)
	require.NoError(t, err)
	assert.Len(t, got.Rows, 1)
}

func TestMergeAppendConcatenatesRows(t *testing.T) {
	dest := writeDataset(t, "gene,REVEL\nBRCA1,0.8\nTP53,0.3\n")

	fresh := &Table{
		Header: []string{"gene", "REVEL"},
		Rows: [][]string{
			{"MLH1", "0.55"},
			{"BRCA1", "0.8"}, // duplicates are kept as-is
		},
	}
	require.NoError(t, Merge(dest, fresh, Append))

	got, err := Read(dest, 0)
	require.NoError(t, err)
	require.Len(t, got.Rows, 4)
	assert.Equal(t, "BRCA1", got.Rows[0][0])
	assert.Equal(t, "TP53", got.Rows[1][0])
	assert.Equal(t, "MLH1", got.Rows[2][0])
	assert.Equal(t, "BRCA1", got.Rows[3][0])
}

func TestMergeAppendMissingDestination(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "new.csv")

	fresh := &Table{
		Header: []string{"gene", "REVEL"},
		Rows:   [][]string{{"BRCA1", "0.8"}},
	}
	require.NoError(t, Merge(dest, fresh, Append))

	got, err := Read(dest, 0)
	require.NoError(t, err)
	assert.Len(t, got.Rows, 1)
}

func TestMergeAppendHeaderMismatch(t *testing.T) {
	dest := writeDataset(t, "gene,PHRED_cadd\nBRCA1,23.1\n")

	fresh := &Table{
		Header: []string{"gene", "REVEL"},
		Rows:   [][]string{{"TP53", "0.3"}},
	}
	err := Merge(dest, fresh, Append)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMergeConflict)

	// Destination is untouched after a refused merge.
	got, readErr := Read(dest, 0)
	require.NoError(t, readErr)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "23.1", got.Rows[0][1])
}

func TestMergeUnknownMode(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "x.csv")
	err := Merge(dest, &Table{Header: []string{"a"}}, Mode("upsert"))
	require.Error(t, err)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}
