/*
Package performance defines the three-level performance category shared by
the catalog, the classifier boundary, and the ranking pipeline.

The category set is a fixed enumeration Low < Medium < High. Ordinals are
pinned in declaration order so that a classifier trained against this codec
reads and writes the same numbers on every run, regardless of the order in
which labels happen to appear in a dataset.
*/
package performance

import (
	"errors"
	"fmt"
	"strings"
)

// Category is a coarse bucket of a video's daily view rate.
type Category int

const (
	// Low is views-per-day below 1000.
	Low Category = iota
	// Medium is views-per-day in [1000, 5000).
	Medium
	// High is views-per-day of 5000 or more.
	High
)

// Bucket thresholds on views-per-day. A value equal to a threshold belongs to
// the upper bucket.
const (
	MediumThreshold = 1000.0
	HighThreshold   = 5000.0
)

var (
	// ErrUnknownOrdinal is returned when a classifier emits an ordinal outside
	// the codec's domain.
	ErrUnknownOrdinal = errors.New("unknown performance ordinal")

	// ErrUnknownLabel is returned when a label is not Low, Medium or High.
	ErrUnknownLabel = errors.New("unknown performance label")
)

// All lists the categories in ordinal order.
var All = []Category{Low, Medium, High}

// String returns the display label.
func (c Category) String() string {
	switch c {
	case Low:
		return "Low"
	case Medium:
		return "Medium"
	case High:
		return "High"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Valid reports whether c is one of the three labels.
func (c Category) Valid() bool {
	return c >= Low && c <= High
}

// RankWeight is the business rank used for ordering and scoring:
// Low=1, Medium=2, High=3. It is unrelated to the codec ordinal.
func (c Category) RankWeight() int {
	switch c {
	case Low:
		return 1
	case Medium:
		return 2
	case High:
		return 3
	default:
		return 1
	}
}

// MarshalText implements encoding.TextMarshaler so categories serialize as labels.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOrdinal, int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Parse converts a label to a Category. Matching ignores case and
// surrounding whitespace.
func Parse(label string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "low":
		return Low, nil
	case "medium":
		return Medium, nil
	case "high":
		return High, nil
	default:
		return Low, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
}

// Bucket derives the category from a views-per-day rate.
func Bucket(viewsPerDay float64) Category {
	switch {
	case viewsPerDay < MediumThreshold:
		return Low
	case viewsPerDay < HighThreshold:
		return Medium
	default:
		return High
	}
}

// Encode returns the classifier ordinal for c.
func Encode(c Category) int {
	return int(c)
}

// Decode maps a classifier ordinal back to a Category.
func Decode(ordinal int) (Category, error) {
	c := Category(ordinal)
	if !c.Valid() {
		return Low, fmt.Errorf("%w: %d", ErrUnknownOrdinal, ordinal)
	}
	return c, nil
}
