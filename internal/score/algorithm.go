package score

import "fmt"

// Algorithm names a supported scoring algorithm.
type Algorithm string

const (
	REVEL    Algorithm = "revel"
	CADD     Algorithm = "cadd"
	SpliceAI Algorithm = "spliceai"
)

// algorithms maps each algorithm to its output column and resolution mode.
var algorithms = map[Algorithm]struct {
	column string
	remote bool
}{
	REVEL:    {column: "REVEL", remote: false},
	CADD:     {column: "PHRED_cadd", remote: true},
	SpliceAI: {column: "SpliceAI", remote: true},
}

// ParseAlgorithm validates a user-supplied algorithm name.
func ParseAlgorithm(name string) (Algorithm, error) {
	a := Algorithm(name)
	if _, ok := algorithms[a]; !ok {
		return "", fmt.Errorf("unknown algorithm %q", name)
	}
	return a, nil
}

// Column is the dataset column the algorithm's scores are written to.
func (a Algorithm) Column() string {
	return algorithms[a].column
}

// Remote reports whether scores come from a remote scoring service
// rather than a local store.
func (a Algorithm) Remote() bool {
	return algorithms[a].remote
}

func (a Algorithm) String() string {
	return string(a)
}
