// Package score defines pathogenicity score values and the resolver
// contract shared by local stores and remote scoring services.
package score

import (
	"context"
	"strconv"

	"github.com/varscore/varscore/internal/variant"
)

// UnavailableCell is the fixed output-cell text for variants without a score.
const UnavailableCell = "unavailable"

// Score is the outcome of resolving one variant. A score is either a
// numeric value or unavailable; there is no partial state.
type Score struct {
	Value     float64
	Available bool
}

// Available wraps a resolved numeric value.
func Available(value float64) Score {
	return Score{Value: value, Available: true}
}

// Unavailable is the miss outcome. Misses are ordinary results, not errors.
func Unavailable() Score {
	return Score{}
}

// Cell renders the score as an output-cell string.
func (s Score) Cell() string {
	if !s.Available {
		return UnavailableCell
	}
	return strconv.FormatFloat(s.Value, 'g', -1, 64)
}

// Resolver maps a batch of variant keys to scores. Implementations
// must return exactly one score per input key, in input order, with
// misses reported as unavailable scores rather than errors.
type Resolver interface {
	Resolve(ctx context.Context, keys []variant.Key) ([]Score, error)
}
