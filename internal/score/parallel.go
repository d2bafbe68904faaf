package score

import (
	"context"
	"runtime"
	"sync"

	"github.com/varscore/varscore/internal/variant"
)

// LookupFunc resolves a single variant key.
type LookupFunc func(ctx context.Context, key variant.Key) (Score, error)

type workItem struct {
	seq int
	key variant.Key
}

type workResult struct {
	seq   int
	score Score
	err   error
}

// ResolveEach resolves keys concurrently with a pool of workers and
// returns the scores in input order. The first lookup error aborts the
// batch. If workers is 0, runtime.NumCPU() is used.
func ResolveEach(ctx context.Context, fn LookupFunc, keys []variant.Key, workers int) ([]Score, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(keys) {
		workers = len(keys)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	items := make(chan workItem, workers)
	results := make(chan workResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for item := range items {
				s, err := fn(ctx, item.key)
				results <- workResult{seq: item.seq, score: s, err: err}
			}
		}()
	}

	go func() {
		for i, key := range keys {
			items <- workItem{seq: i, key: key}
		}
		close(items)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	scores := make([]Score, len(keys))
	var firstErr error
	for r := range results {
		if r.err != nil && firstErr == nil {
			firstErr = r.err
		}
		scores[r.seq] = r.score
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return scores, nil
}
