package calendar

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the canonical wire form of a calendar date.
const Layout = "2006-01-02"

// ErrInvalidDate indicates a value is not a canonical YYYY-MM-DD calendar date.
var ErrInvalidDate = errors.New("calendar: invalid date")

// Date is a civil calendar date without a time of day or zone.
//
// The value is backed by midnight UTC so that day arithmetic never observes
// daylight-saving transitions. The zero Date is invalid and reports IsZero;
// 0001-01-01 is a real date and does not.
type Date struct {
	t     time.Time
	valid bool
}

// New returns the date for the given year, month and day. Out of range values
// normalise the same way time.Date does.
func New(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), valid: true}
}

// Parse reads a canonical YYYY-MM-DD string. Times, offsets and non-existent
// days such as 2025-02-30 are rejected.
func Parse(value string) (Date, error) {
	if len(value) != len(Layout) {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	t, err := time.ParseInLocation(Layout, value, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return Date{t: t, valid: true}, nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(value string) Date {
	d, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return d
}

// FromTime returns the wall-clock date of t observed in loc. A nil loc uses
// the location already attached to t.
func FromTime(t time.Time, loc *time.Location) Date {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return New(y, m, d)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return !d.valid }

// Year returns the calendar year.
func (d Date) Year() int { return d.t.Year() }

// Month returns the calendar month.
func (d Date) Month() time.Month { return d.t.Month() }

// Day returns the day of the month.
func (d Date) Day() int { return d.t.Day() }

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

// AddDays returns the date n days after d; n may be negative.
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n), valid: d.valid}
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

// After reports whether d is later than other.
func (d Date) After(other Date) bool { return d.t.After(other.t) }

// Equal reports whether both values name the same calendar day.
func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

// Compare returns -1, 0 or +1 ordering d against other.
func (d Date) Compare(other Date) int { return d.t.Compare(other.t) }

// DaysUntil returns the signed number of days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.t.Sub(d.t).Hours() / 24)
}

// String returns the canonical YYYY-MM-DD form, or "" for the zero Date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(Layout)
}

// Format renders the date with a time package layout.
func (d Date) Format(layout string) string {
	return d.t.Format(layout)
}

// Time returns midnight UTC on d.
func (d Date) Time() time.Time { return d.t }

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input yields
// the zero Date.
func (d *Date) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysIn returns the number of days in the month.
func DaysIn(year int, month time.Month) int {
	return New(year, month+1, 0).Day()
}
