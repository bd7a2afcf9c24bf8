package recurrence

import (
	"errors"
	"time"

	"github.com/example/mowing-roster/internal/calendar"
)

// MaxOccurrences bounds a single expansion.
const MaxOccurrences = 366

// Frequency represents supported recurrence intervals.
type Frequency int

const (
	// FrequencyUnspecified indicates the rule frequency is not set.
	FrequencyUnspecified Frequency = iota
	// FrequencyDaily generates a date every Interval days.
	FrequencyDaily
	// FrequencyWeekly generates the selected weekdays every Interval weeks.
	FrequencyWeekly
)

// Rule describes a series of session primary dates.
type Rule struct {
	Frequency Frequency
	// Interval is the step between occurrences in days or weeks. Zero means 1.
	Interval int
	// Weekdays applies to weekly rules. Empty selects the weekday of StartsOn.
	Weekdays []time.Weekday
	StartsOn calendar.Date
	EndsOn   calendar.Date
}

// GenerateOptions clips the expansion to a sub-range.
type GenerateOptions struct {
	RangeStart *calendar.Date
	RangeEnd   *calendar.Date
}

var (
	// ErrInvalidFrequency indicates the recurrence frequency is not supported.
	ErrInvalidFrequency = errors.New("recurrence: invalid frequency")
	// ErrInvalidWindow indicates the generation window is unbounded or inverted.
	ErrInvalidWindow = errors.New("recurrence: generation window requires a start before its end")
	// ErrInvalidInterval indicates a negative step.
	ErrInvalidInterval = errors.New("recurrence: interval must be positive")
	// ErrTooManyOccurrences indicates the rule expands beyond MaxOccurrences.
	ErrTooManyOccurrences = errors.New("recurrence: too many occurrences")
)

// GenerateDates expands rule into ascending primary dates, inclusive of both
// bounds.
func GenerateDates(rule Rule, opts GenerateOptions) ([]calendar.Date, error) {
	if rule.StartsOn.IsZero() || rule.EndsOn.IsZero() || rule.EndsOn.Before(rule.StartsOn) {
		return nil, ErrInvalidWindow
	}
	interval := rule.Interval
	if interval < 0 {
		return nil, ErrInvalidInterval
	}
	if interval == 0 {
		interval = 1
	}

	lower, upper := rule.StartsOn, rule.EndsOn
	if opts.RangeStart != nil && opts.RangeStart.After(lower) {
		lower = *opts.RangeStart
	}
	if opts.RangeEnd != nil && opts.RangeEnd.Before(upper) {
		upper = *opts.RangeEnd
	}

	var step func(calendar.Date) bool
	switch rule.Frequency {
	case FrequencyDaily:
		step = func(d calendar.Date) bool {
			return rule.StartsOn.DaysUntil(d)%interval == 0
		}
	case FrequencyWeekly:
		weekdays := make(map[time.Weekday]struct{}, len(rule.Weekdays))
		for _, wd := range rule.Weekdays {
			weekdays[wd] = struct{}{}
		}
		if len(weekdays) == 0 {
			weekdays[rule.StartsOn.Weekday()] = struct{}{}
		}
		anchor := weekStart(rule.StartsOn)
		step = func(d calendar.Date) bool {
			if _, ok := weekdays[d.Weekday()]; !ok {
				return false
			}
			return (anchor.DaysUntil(weekStart(d))/7)%interval == 0
		}
	default:
		return nil, ErrInvalidFrequency
	}

	var dates []calendar.Date
	for d := lower; !d.After(upper); d = d.AddDays(1) {
		if !step(d) {
			continue
		}
		if len(dates) == MaxOccurrences {
			return nil, ErrTooManyOccurrences
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// weekStart returns the Sunday beginning the week containing d.
func weekStart(d calendar.Date) calendar.Date {
	return d.AddDays(-int(d.Weekday()))
}
