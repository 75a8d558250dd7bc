package leave

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// DATE - Calendar day, time-of-day ignored
// =============================================================================

const (
	dateLayout    = "2006-01-02"
	secondsPerDay = 24 * 60 * 60
)

// Date is a calendar day stored as midnight UTC. Comparisons never look at
// time-of-day.
type Date struct {
	t time.Time
}

// NewDate builds a Date from its calendar components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf keeps only the calendar day of t as seen in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc != nil {
		t = t.In(loc)
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate accepts YYYY-MM-DD or RFC3339. RFC3339 input is reduced to its
// calendar day in loc.
func ParseDate(s string, loc *time.Location) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return NewDate(t.Year(), t.Month(), t.Day()), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t, loc), nil
}

// MustParseDate is ParseDate for literals in tests and seed data.
func MustParseDate(s string) Date {
	d, err := ParseDate(s, time.UTC)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) Time() time.Time       { return d.t }
func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) Before(o Date) bool    { return d.t.Before(o.t) }
func (d Date) After(o Date) bool     { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool     { return d.t.Equal(o.t) }
func (d Date) AddDays(n int) Date    { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(dateLayout)
}

// DaysInclusive counts calendar days from start through end. A same-day
// range is 1. Callers validate end >= start first. Both dates are midnight
// UTC, so the Unix difference is an exact multiple of a day.
func DaysInclusive(start, end Date) int {
	return int((end.t.Unix()-start.t.Unix())/secondsPerDay) + 1
}

// =============================================================================
// MONTH - Reporting window
// =============================================================================

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing d.
func MonthOf(d Date) Month { return Month{Year: d.Year(), Month: d.Month()} }

// ParseMonth reads YYYY-MM. Anything malformed or empty falls back to the
// month containing today.
func ParseMonth(s string, today Date) Month {
	fallback := MonthOf(today)
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return fallback
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil || y < 1 || y > 9999 {
		return fallback
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 1 || m > 12 {
		return fallback
	}
	return Month{Year: y, Month: time.Month(m)}
}

// First is the first day of the month.
func (m Month) First() Date { return NewDate(m.Year, m.Month, 1) }

// Last is the last day of the month.
func (m Month) Last() Date { return NewDate(m.Year, m.Month+1, 1).AddDays(-1) }

func (m Month) String() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }
