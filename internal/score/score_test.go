package score

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varscore/varscore/internal/variant"
)

func TestScoreCell(t *testing.T) {
	assert.Equal(t, "0.8", Available(0.8).Cell())
	assert.Equal(t, "23.1", Available(23.1).Cell())
	assert.Equal(t, "0", Available(0).Cell())
	assert.Equal(t, "unavailable", Unavailable().Cell())
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		name       string
		wantColumn string
		wantRemote bool
	}{
		{name: "revel", wantColumn: "REVEL", wantRemote: false},
		{name: "cadd", wantColumn: "PHRED_cadd", wantRemote: true},
		{name: "spliceai", wantColumn: "SpliceAI", wantRemote: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAlgorithm(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.wantColumn, a.Column())
			assert.Equal(t, tt.wantRemote, a.Remote())
		})
	}

	_, err := ParseAlgorithm("polyphen")
	require.Error(t, err)
}

func TestResolveEachPreservesOrder(t *testing.T) {
	keys := make([]variant.Key, 50)
	for i := range keys {
		keys[i] = variant.Key{Chrom: "1", Pos: int64(i + 1), Ref: "A", Alt: "T"}
	}

	fn := func(ctx context.Context, key variant.Key) (Score, error) {
		if key.Pos%3 == 0 {
			return Unavailable(), nil
		}
		return Available(float64(key.Pos)), nil
	}

	scores, err := ResolveEach(context.Background(), fn, keys, 8)
	require.NoError(t, err)
	require.Len(t, scores, len(keys))

	for i, s := range scores {
		pos := int64(i + 1)
		if pos%3 == 0 {
			assert.False(t, s.Available, "pos %d", pos)
		} else {
			assert.Equal(t, float64(pos), s.Value, "pos %d", pos)
		}
	}
}

func TestResolveEachPropagatesError(t *testing.T) {
	keys := []variant.Key{
		{Chrom: "1", Pos: 1, Ref: "A", Alt: "T"},
		{Chrom: "1", Pos: 2, Ref: "A", Alt: "T"},
	}

	wantErr := errors.New("lookup failed")
	fn := func(ctx context.Context, key variant.Key) (Score, error) {
		if key.Pos == 2 {
			return Score{}, fmt.Errorf("pos 2: %w", wantErr)
		}
		return Available(1), nil
	}

	_, err := ResolveEach(context.Background(), fn, keys, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}

func TestResolveEachEmpty(t *testing.T) {
	scores, err := ResolveEach(context.Background(), nil, nil, 4)
	require.NoError(t, err)
	assert.Empty(t, scores)
}
