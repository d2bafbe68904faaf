package remote

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varscore/varscore/internal/variant"
)

func TestWriteInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "variants.tsv.gz")

	keys := []variant.Key{
		variant.Parse("6-100-A-T"),
		variant.Parse("6-200-?"),
		variant.Unknown,
	}
	require.NoError(t, WriteInput(path, keys))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	content, err := io.ReadAll(gz)
	require.NoError(t, err)

	want := "6\t100\t.\tA\tT\n" +
		"6\t200\t.\t.\t.\n" +
		".\t.\t.\t.\t.\n"
	assert.Equal(t, want, string(content))
}
