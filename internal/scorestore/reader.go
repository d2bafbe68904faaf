package scorestore

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/varscore/varscore/internal/variant"
)

// Columns names the source columns that hold the variant key and score.
// All five are required in the source header.
type Columns struct {
	Chrom string
	Pos   string
	Ref   string
	Alt   string
	Score string
}

type columnIndices struct {
	chrom int
	pos   int
	ref   int
	alt   int
	score int
}

// record is one parsed source row.
type record struct {
	key   variant.Key
	score float64
}

// rowError marks a malformed source row. Build skips and counts these
// instead of aborting the load.
type rowError struct {
	line    int
	message string
}

func (e *rowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.line, e.message)
}

// sourceReader streams rows from a delimited score dataset.
// Supports both plain and gzipped files.
type sourceReader struct {
	file       *os.File
	gzipReader *gzip.Reader
	reader     *bufio.Reader
	delimiter  string
	columns    columnIndices
	lineNumber int
}

func newSourceReader(path, delimiter string, cols Columns) (*sourceReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source file: %w", err)
	}

	r := &sourceReader{file: file, delimiter: delimiter}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	_, err = file.Read(buf)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("read source header: %w", err)
	}

	if _, err := file.Seek(0, 0); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek source file: %w", err)
	}

	// Check for gzip magic number (0x1f, 0x8b)
	if buf[0] == 0x1f && buf[1] == 0x8b {
		r.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		r.reader = bufio.NewReader(r.gzipReader)
	} else {
		r.reader = bufio.NewReader(file)
	}

	if err := r.parseHeader(cols); err != nil {
		r.Close()
		return nil, err
	}

	return r, nil
}

// parseHeader reads the header line and resolves column indices by name.
func (r *sourceReader) parseHeader(cols Columns) error {
	for {
		line, err := r.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return fmt.Errorf("no header line found")
			}
			return fmt.Errorf("read header: %w", err)
		}
		r.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		return r.resolveColumns(line, cols)
	}
}

func (r *sourceReader) resolveColumns(headerLine string, cols Columns) error {
	r.columns = columnIndices{chrom: -1, pos: -1, ref: -1, alt: -1, score: -1}

	for i, name := range strings.Split(headerLine, r.delimiter) {
		switch name {
		case cols.Chrom:
			r.columns.chrom = i
		case cols.Pos:
			r.columns.pos = i
		case cols.Ref:
			r.columns.ref = i
		case cols.Alt:
			r.columns.alt = i
		case cols.Score:
			r.columns.score = i
		}
	}

	for _, c := range []struct {
		name  string
		index int
	}{
		{cols.Chrom, r.columns.chrom},
		{cols.Pos, r.columns.pos},
		{cols.Ref, r.columns.ref},
		{cols.Alt, r.columns.alt},
		{cols.Score, r.columns.score},
	} {
		if c.index == -1 {
			return fmt.Errorf("required column %q not found in header", c.name)
		}
	}

	return nil
}

// next returns the next parsed row. Malformed rows are reported as
// *rowError; io.EOF signals the end of the source.
func (r *sourceReader) next() (record, error) {
	for {
		line, err := r.reader.ReadString('\n')
		if err == io.EOF && line == "" {
			return record{}, io.EOF
		}
		if err != nil && err != io.EOF {
			return record{}, fmt.Errorf("read source line: %w", err)
		}
		r.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		return r.parseLine(line)
	}
}

func (r *sourceReader) parseLine(line string) (record, error) {
	fields := strings.Split(line, r.delimiter)

	minCols := max(r.columns.chrom, r.columns.pos, r.columns.ref, r.columns.alt, r.columns.score)
	if len(fields) <= minCols {
		return record{}, &rowError{
			line:    r.lineNumber,
			message: fmt.Sprintf("expected at least %d columns, found %d", minCols+1, len(fields)),
		}
	}

	for _, f := range []string{fields[r.columns.chrom], fields[r.columns.ref], fields[r.columns.alt]} {
		if strings.ContainsRune(f, '\'') {
			return record{}, &rowError{line: r.lineNumber, message: "unexpected quote character"}
		}
	}

	key, err := variant.FromFields(
		fields[r.columns.chrom],
		fields[r.columns.pos],
		fields[r.columns.ref],
		fields[r.columns.alt],
	)
	if err != nil {
		return record{}, &rowError{line: r.lineNumber, message: err.Error()}
	}

	value, err := strconv.ParseFloat(fields[r.columns.score], 64)
	if err != nil {
		return record{}, &rowError{
			line:    r.lineNumber,
			message: fmt.Sprintf("invalid score %q", fields[r.columns.score]),
		}
	}

	return record{key: key, score: value}, nil
}

func (r *sourceReader) Close() error {
	if r.gzipReader != nil {
		r.gzipReader.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
