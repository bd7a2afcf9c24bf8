package calendar

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidArrivalDay indicates an arrival day outside before/primary/after.
var ErrInvalidArrivalDay = errors.New("calendar: invalid arrival day")

// Position identifies where a date falls inside a session window.
type Position string

const (
	// PositionNone is reported when a date lies outside the window.
	PositionNone Position = ""
	// PositionStart is the day before the primary date.
	PositionStart Position = "start"
	// PositionPrimary is the primary date itself.
	PositionPrimary Position = "primary"
	// PositionEnd is the day after the primary date.
	PositionEnd Position = "end"
)

// ArrivalDay selects which window member an assignee arrives on.
type ArrivalDay string

const (
	ArrivalBefore  ArrivalDay = "before"
	ArrivalPrimary ArrivalDay = "primary"
	ArrivalAfter   ArrivalDay = "after"
)

// ParseArrivalDay normalises and validates an arrival day value.
func ParseArrivalDay(value string) (ArrivalDay, error) {
	switch ArrivalDay(strings.ToLower(strings.TrimSpace(value))) {
	case ArrivalBefore:
		return ArrivalBefore, nil
	case ArrivalPrimary:
		return ArrivalPrimary, nil
	case ArrivalAfter:
		return ArrivalAfter, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidArrivalDay, value)
}

// Window is the three consecutive days a session occupies.
type Window struct {
	Before  Date
	Primary Date
	After   Date
}

// WindowFor returns the window centred on primary.
func WindowFor(primary Date) Window {
	return Window{
		Before:  primary.AddDays(-1),
		Primary: primary,
		After:   primary.AddDays(1),
	}
}

// Dates returns the window members in chronological order.
func (w Window) Dates() [3]Date {
	return [3]Date{w.Before, w.Primary, w.After}
}

// Contains reports the position of d inside the window. Comparison is by
// canonical date string.
func (w Window) Contains(d Date) (Position, bool) {
	key := d.String()
	switch key {
	case "":
		return PositionNone, false
	case w.Before.String():
		return PositionStart, true
	case w.Primary.String():
		return PositionPrimary, true
	case w.After.String():
		return PositionEnd, true
	}
	return PositionNone, false
}

// Overlaps reports whether two windows share at least one day.
func (w Window) Overlaps(other Window) bool {
	return !w.After.Before(other.Before) && !other.After.Before(w.Before)
}

// ArrivalDate maps an arrival day onto a concrete date. Unknown values fall
// back to the primary date.
func (w Window) ArrivalDate(day ArrivalDay) Date {
	switch day {
	case ArrivalBefore:
		return w.Before
	case ArrivalAfter:
		return w.After
	default:
		return w.Primary
	}
}

// String renders the window as "before/primary/after".
func (w Window) String() string {
	return w.Before.String() + "/" + w.Primary.String() + "/" + w.After.String()
}
