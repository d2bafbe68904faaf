package dataset

import (
	"errors"
	"fmt"
	"os"
	"slices"
)

// Mode selects how fresh annotation output lands in the destination.
type Mode string

const (
	// Override replaces the destination dataset with the fresh output.
	Override Mode = "override"

	// Append keeps the existing destination rows and adds the fresh
	// rows after them. Rows are never deduplicated.
	Append Mode = "append"
)

// ParseMode validates a user-supplied merge mode name.
func ParseMode(name string) (Mode, error) {
	switch Mode(name) {
	case Override, Append:
		return Mode(name), nil
	}
	return "", fmt.Errorf("unknown merge mode %q", name)
}

// ErrMergeConflict marks a destination dataset that cannot take an
// append because its columns differ from the fresh output.
var ErrMergeConflict = errors.New("dataset merge conflict")

// Merge lands a fresh table at destPath. Override discards whatever is
// there and writes the fresh table verbatim. Append requires matching
// headers and concatenates the fresh rows after the existing ones. An
// append onto a missing destination behaves like an override.
func Merge(destPath string, fresh *Table, mode Mode) error {
	switch mode {
	case Override:
		if err := os.Remove(destPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove destination: %w", err)
		}
		return fresh.Write(destPath)

	case Append:
		existing, err := Read(destPath, fresh.delimiter)
		if errors.Is(err, os.ErrNotExist) {
			return fresh.Write(destPath)
		}
		if err != nil {
			return err
		}
		if !slices.Equal(existing.Header, fresh.Header) {
			return fmt.Errorf("%w: destination columns %v, fresh columns %v",
				ErrMergeConflict, existing.Header, fresh.Header)
		}
		merged := &Table{
			Header:    existing.Header,
			Rows:      append(existing.Rows, fresh.Rows...),
			delimiter: fresh.delimiter,
		}
		return merged.Write(destPath)
	}

	return fmt.Errorf("unknown merge mode %q", mode)
}
