package catalog

import (
	"errors"
	"fmt"
)

// ErrDegenerateCatalog means the catalog has no records, so there are no
// maxima to score against and no queries can be served.
var ErrDegenerateCatalog = errors.New("catalog is empty")

// MissingFeatureError reports a record whose required numeric field is
// absent or not a valid number.
type MissingFeatureError struct {
	Row     int    // 1-based data row, header excluded
	Title   string // may be empty if the title itself is unreadable
	Feature string // normalized column name
	Value   string // raw cell content
}

func (e *MissingFeatureError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("row %d (%q): missing required feature %s", e.Row, e.Title, e.Feature)
	}
	return fmt.Sprintf("row %d (%q): invalid value %q for feature %s", e.Row, e.Title, e.Value, e.Feature)
}

// MissingColumnError reports a required column absent from the header row.
type MissingColumnError struct {
	Column string
	Hint   string
}

func (e *MissingColumnError) Error() string {
	msg := fmt.Sprintf("catalog source is missing required column %q", e.Column)
	if e.Hint != "" {
		msg += "\n💡 " + e.Hint
	}
	return msg
}
