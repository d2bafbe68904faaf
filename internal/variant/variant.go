// Package variant defines the canonical identity of a genomic variant.
package variant

import (
	"fmt"
	"strconv"
	"strings"
)

// Missing is the placeholder for an absent field (allele, position).
// Upstream datasets use "." rather than an empty string.
const Missing = "."

// Key identifies a genomic variant by coordinate and allele change.
// Keys are comparable and used directly as map and store lookup keys.
type Key struct {
	Chrom string // chromosome without "chr" prefix
	Pos   int64  // 1-based genomic position, 0 when unknown
	Ref   string // reference allele, "." when absent
	Alt   string // alternate allele, "." when absent
}

// Unknown is the sentinel key for rows that carry no usable variant
// identifier. It round-trips through lookups and remote scoring as a
// guaranteed miss instead of failing the row.
var Unknown = Key{Chrom: Missing, Pos: 0, Ref: Missing, Alt: Missing}

// Parse parses a hyphen-delimited variant identifier.
//
// Four-part identifiers ("6-100-A-T") yield the full key. Three-part
// identifiers ("6-100-?") carry no allele information and yield "."
// alleles. Every other shape, including the empty string and identifiers
// with a non-numeric position, yields Unknown.
func Parse(identifier string) Key {
	parts := strings.Split(identifier, "-")
	switch len(parts) {
	case 4:
		pos, ok := parsePos(parts[1])
		if !ok {
			return Unknown
		}
		return Key{
			Chrom: NormalizeChrom(parts[0]),
			Pos:   pos,
			Ref:   orMissing(parts[2]),
			Alt:   orMissing(parts[3]),
		}
	case 3:
		pos, ok := parsePos(parts[1])
		if !ok {
			return Unknown
		}
		return Key{
			Chrom: NormalizeChrom(parts[0]),
			Pos:   pos,
			Ref:   Missing,
			Alt:   Missing,
		}
	default:
		return Unknown
	}
}

// FromFields builds a Key from separate string fields, as found in
// tab-separated scoring results. Unlike Parse it reports an error so
// malformed rows can be counted by the caller.
func FromFields(chrom, pos, ref, alt string) (Key, error) {
	p, ok := parsePos(pos)
	if !ok {
		return Key{}, fmt.Errorf("invalid position %q", pos)
	}
	return Key{
		Chrom: NormalizeChrom(chrom),
		Pos:   p,
		Ref:   orMissing(ref),
		Alt:   orMissing(alt),
	}, nil
}

// IsUnknown returns true for the all-missing sentinel key.
func (k Key) IsUnknown() bool {
	return k == Unknown
}

// String renders the key in the hyphen-delimited identifier format.
func (k Key) String() string {
	return k.Chrom + "-" + k.PosField() + "-" + k.Ref + "-" + k.Alt
}

// PosField renders the position for serialization, "." when unknown.
func (k Key) PosField() string {
	if k.IsUnknown() {
		return Missing
	}
	return strconv.FormatInt(k.Pos, 10)
}

// NormalizeChrom returns the chromosome name without "chr" prefix.
func NormalizeChrom(chrom string) string {
	if len(chrom) > 3 && chrom[:3] == "chr" {
		return chrom[3:]
	}
	return chrom
}

func parsePos(s string) (int64, bool) {
	pos, err := strconv.ParseInt(s, 10, 64)
	if err != nil || pos < 0 {
		return 0, false
	}
	return pos, true
}

func orMissing(s string) string {
	if s == "" {
		return Missing
	}
	return s
}
