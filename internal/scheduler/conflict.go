package scheduler

import "github.com/example/mowing-roster/internal/calendar"

// Overlap details two sessions whose windows share at least one day.
type Overlap struct {
	First      Session
	Second     Session
	SharedDays []calendar.Date
}

// DetectOverlaps reports every pair of sessions with intersecting windows,
// ordered by the earlier session.
func DetectOverlaps(sessions []Session) []Overlap {
	ordered := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		if !s.Date.IsZero() {
			ordered = append(ordered, s)
		}
	}
	SortSessions(ordered)

	var overlaps []Overlap
	for i := range ordered {
		for j := i + 1; j < len(ordered); j++ {
			// Windows are three days wide, so primaries more than two days apart never meet.
			if ordered[i].Date.DaysUntil(ordered[j].Date) > 2 {
				break
			}
			overlaps = append(overlaps, newOverlap(ordered[i], ordered[j]))
		}
	}
	return overlaps
}

// OverlapsWith reports which existing sessions a candidate would collide with.
// A session with the candidate's own ID is ignored.
func OverlapsWith(existing []Session, candidate Session) []Overlap {
	if candidate.Date.IsZero() {
		return nil
	}
	cw := candidate.Window()

	var overlaps []Overlap
	ordered := append([]Session(nil), existing...)
	SortSessions(ordered)
	for _, s := range ordered {
		if s.ID == candidate.ID || s.Date.IsZero() {
			continue
		}
		if s.Window().Overlaps(cw) {
			overlaps = append(overlaps, newOverlap(s, candidate))
		}
	}
	return overlaps
}

func newOverlap(a, b Session) Overlap {
	if sessionLess(b, a) {
		a, b = b, a
	}
	bw := b.Window()
	var shared []calendar.Date
	for _, d := range a.Window().Dates() {
		if _, ok := bw.Contains(d); ok {
			shared = append(shared, d)
		}
	}
	return Overlap{First: a, Second: b, SharedDays: shared}
}
