package scorestore

import (
	"context"

	"github.com/varscore/varscore/internal/score"
	"github.com/varscore/varscore/internal/variant"
)

// Resolver resolves variant keys against a local score store.
type Resolver struct {
	store   *Store
	workers int
}

// NewResolver wraps a store for batch resolution. workers caps
// concurrent lookups; 0 means one worker per CPU.
func NewResolver(store *Store, workers int) *Resolver {
	return &Resolver{store: store, workers: workers}
}

// Resolve returns one score per key, in input order. Keys absent from
// the store resolve as unavailable.
func (r *Resolver) Resolve(ctx context.Context, keys []variant.Key) ([]score.Score, error) {
	return score.ResolveEach(ctx, r.lookupOne, keys, r.workers)
}

func (r *Resolver) lookupOne(ctx context.Context, key variant.Key) (score.Score, error) {
	value, ok, err := r.store.Lookup(ctx, key)
	if err != nil {
		return score.Score{}, err
	}
	if !ok {
		return score.Unavailable(), nil
	}
	return score.Available(value), nil
}
