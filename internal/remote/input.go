package remote

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"os"

	"github.com/varscore/varscore/internal/variant"
)

// WriteInput writes a variant batch to path as a gzipped tab-separated
// listing, one "chrom pos . ref alt" line per key in batch order. The
// third column is an identifier slot the scoring service ignores.
// Unknown keys produce an all-dot line; they never match a result row
// and come back unavailable.
func WriteInput(path string, keys []variant.Key) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create input file: %w", err)
	}

	gz := gzip.NewWriter(f)
	bw := bufio.NewWriter(gz)

	for _, k := range keys {
		if _, err := fmt.Fprintf(bw, "%s\t%s\t.\t%s\t%s\n", k.Chrom, k.PosField(), k.Ref, k.Alt); err != nil {
			f.Close()
			return fmt.Errorf("write input row: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush input: %w", err)
	}
	if err := gz.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close gzip writer: %w", err)
	}
	return f.Close()
}
