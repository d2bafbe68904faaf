// Package dataset reads, annotates, and merges the delimited variant
// datasets users keep in their workspace.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/varscore/varscore/internal/variant"
)

// identifierColumns are the dataset columns searched for a variant
// identifier, in priority order. Datasets assembled from different
// upstream exports carry different subsets of these.
var identifierColumns = []string{
	"hg38_gnomad_format",
	"variant_id_gnomad",
	"variant_id",
	"hg38_ID_clinvar",
}

// Table is a dataset held in memory: a header and its rows, all cells
// as strings. Row order is preserved through every operation.
type Table struct {
	Header []string
	Rows   [][]string

	delimiter rune
}

// Read loads a delimited dataset. A zero delimiter means comma.
func Read(path string, delimiter rune) (*Table, error) {
	if delimiter == 0 {
		delimiter = ','
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = delimiter

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset %s has no header", path)
	}

	return &Table{Header: records[0], Rows: records[1:], delimiter: delimiter}, nil
}

// Write stores the table at path. The file is written to a temp file
// and renamed into place, so readers never see a half-written dataset.
func (t *Table) Write(path string) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create dataset file: %w", err)
	}

	cw := csv.NewWriter(f)
	if t.delimiter != 0 {
		cw.Comma = t.delimiter
	}

	if err := cw.Write(t.Header); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write dataset header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write dataset rows: %w", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flush dataset: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close dataset file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace dataset: %w", err)
	}
	return nil
}

// columnIndex returns the position of a header column, or -1.
func (t *Table) columnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Keys extracts one variant key per row. For each row the identifier
// columns are checked in priority order and the first usable value is
// parsed; "?" marks an unknown identifier in upstream exports. Rows
// without a usable identifier yield variant.Unknown.
func (t *Table) Keys() []variant.Key {
	var candidates []int
	for _, name := range identifierColumns {
		if i := t.columnIndex(name); i >= 0 {
			candidates = append(candidates, i)
		}
	}

	keys := make([]variant.Key, len(t.Rows))
	for i, row := range t.Rows {
		keys[i] = variant.Unknown
		for _, c := range candidates {
			if c >= len(row) {
				continue
			}
			if v := row[c]; v != "" && v != "?" {
				keys[i] = variant.Parse(v)
				break
			}
		}
	}
	return keys
}

// SetColumn writes one cell per row under the named column, replacing
// the column if it already exists and appending it otherwise. The cell
// count must match the row count exactly.
func (t *Table) SetColumn(name string, cells []string) error {
	if len(cells) != len(t.Rows) {
		return fmt.Errorf("column %s: %d cells for %d rows", name, len(cells), len(t.Rows))
	}

	idx := t.columnIndex(name)
	if idx == -1 {
		t.Header = append(t.Header, name)
		for i := range t.Rows {
			t.Rows[i] = append(t.Rows[i], cells[i])
		}
		return nil
	}

	for i := range t.Rows {
		t.Rows[i][idx] = cells[i]
	}
	return nil
}
