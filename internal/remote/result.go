package remote

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/varscore/varscore/internal/score"
	"github.com/varscore/varscore/internal/variant"
)

// Result table layout: columns 0-3 carry the variant key, column 5 the
// phred-scaled score.
const (
	resultScoreColumn = 5
)

// ParseResult reads a scoring result table and joins the scores back
// onto the submitted keys, one score per key in input order. The table
// is tab-separated with "#" comment lines. Keys without a matching row
// resolve as unavailable; rows that cannot be parsed are skipped and
// counted, never fatal.
func ParseResult(r io.Reader, keys []variant.Key) ([]score.Score, int, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, 0, fmt.Errorf("open result gzip: %w", err)
		}
		defer gz.Close()
		br = bufio.NewReader(gz)
	}

	byKey := make(map[variant.Key]float64, len(keys))
	skipped := 0

	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) <= resultScoreColumn {
			skipped++
			continue
		}

		key, err := variant.FromFields(fields[0], fields[1], fields[2], fields[3])
		if err != nil {
			skipped++
			continue
		}
		value, err := strconv.ParseFloat(fields[resultScoreColumn], 64)
		if err != nil {
			skipped++
			continue
		}
		byKey[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("read result: %w", err)
	}

	scores := make([]score.Score, len(keys))
	for i, k := range keys {
		if v, ok := byKey[k]; ok {
			scores[i] = score.Available(v)
		} else {
			scores[i] = score.Unavailable()
		}
	}
	return scores, skipped, nil
}
