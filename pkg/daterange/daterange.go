// Package daterange parses user-supplied dates and filters timestamps
// against an inclusive calendar-day range.
package daterange

import (
	"fmt"
	"strings"
	"time"
)

// Layouts are the accepted input formats, tried in order
var Layouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
}

// Parse parses a date in one of the accepted layouts as UTC midnight
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range Layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD, YYYY/MM/DD, DD-MM-YYYY or DD/MM/YYYY", s)
}

// Range is an inclusive date range. A nil bound is open.
type Range struct {
	Start *time.Time
	End   *time.Time
}

// New builds a range from optional bounds, swapping them when reversed.
// The returned bool reports whether a swap happened.
func New(start, end *time.Time) (Range, bool) {
	if start != nil && end != nil && start.After(*end) {
		return Range{Start: end, End: start}, true
	}
	return Range{Start: start, End: end}, false
}

// ParseRange parses optional start and end strings; empty strings leave
// the bound open
func ParseRange(start, end string) (Range, bool, error) {
	var s, e *time.Time
	if strings.TrimSpace(start) != "" {
		t, err := Parse(start)
		if err != nil {
			return Range{}, false, fmt.Errorf("start date: %w", err)
		}
		s = &t
	}
	if strings.TrimSpace(end) != "" {
		t, err := Parse(end)
		if err != nil {
			return Range{}, false, fmt.Errorf("end date: %w", err)
		}
		e = &t
	}
	r, swapped := New(s, e)
	return r, swapped, nil
}

// IsZero reports whether the range filters nothing
func (r Range) IsZero() bool {
	return r.Start == nil && r.End == nil
}

// Contains reports whether t falls inside the range. Both bounds are
// inclusive and the end bound covers its whole calendar day.
func (r Range) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && !t.Before(r.End.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// String renders the range for logs and prompts
func (r Range) String() string {
	return fmt.Sprintf("%s to %s", formatBound(r.Start), formatBound(r.End))
}

// Bounds returns the bounds as YYYY-MM-DD strings, nil when open
func (r Range) Bounds() (start, end *string) {
	if r.Start != nil {
		s := r.Start.Format(time.DateOnly)
		start = &s
	}
	if r.End != nil {
		e := r.End.Format(time.DateOnly)
		end = &e
	}
	return start, end
}

func formatBound(t *time.Time) string {
	if t == nil {
		return "any"
	}
	return t.Format(time.DateOnly)
}
