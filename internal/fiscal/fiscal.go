// Package fiscal implements fiscal-year arithmetic. A fiscal year runs from
// April 1 to March 31 and is written "YYYY-YY", e.g. "2024-25".
package fiscal

import (
	"fmt"
	"strconv"
	"time"

	"tax-harvest-go/internal/models"
)

// Year is a parsed fiscal year identified by its starting calendar year.
type Year int

// Parse parses a "YYYY-YY" string. The suffix must be the two-digit successor year.
func Parse(s string) (Year, error) {
	if len(s) != 7 || s[4] != '-' {
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidFiscalYear, s)
	}
	start, err := strconv.Atoi(s[:4])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidFiscalYear, s)
	}
	end, err := strconv.Atoi(s[5:])
	if err != nil || end != (start+1)%100 {
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidFiscalYear, s)
	}
	return Year(start), nil
}

// Of returns the fiscal year containing t.
func Of(t time.Time) Year {
	if t.Month() < time.April {
		return Year(t.Year() - 1)
	}
	return Year(t.Year())
}

// Current returns the fiscal year containing now.
func Current() Year {
	return Of(time.Now().UTC())
}

// String formats y as "YYYY-YY".
func (y Year) String() string {
	return fmt.Sprintf("%04d-%02d", int(y), (int(y)+1)%100)
}

// Next returns the following fiscal year.
func (y Year) Next() Year { return y + 1 }

// Start is April 1 00:00 UTC of the starting year.
func (y Year) Start() time.Time {
	return time.Date(int(y), time.April, 1, 0, 0, 0, 0, time.UTC)
}

// End is the last instant of March 31 of the following year.
func (y Year) End() time.Time {
	return y.Next().Start().Add(-time.Nanosecond)
}

// Deadline is March 31 of the year's end, the last day to realize a loss in y.
func (y Year) Deadline() time.Time {
	return time.Date(int(y)+1, time.March, 31, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether t falls inside y.
func (y Year) Contains(t time.Time) bool {
	return Of(t.UTC()) == y
}

// DaysBetween counts whole calendar days from a to b in UTC; negative when b is before a.
func DaysBetween(a, b time.Time) int {
	da := truncateDay(a)
	db := truncateDay(b)
	return int(db.Sub(da).Hours() / 24)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
