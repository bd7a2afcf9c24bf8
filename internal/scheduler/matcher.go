package scheduler

import (
	"fmt"
	"sort"

	"github.com/example/mowing-roster/internal/calendar"
)

// Match describes the session whose window covers a queried date.
type Match struct {
	Found          bool
	Session        Session
	Position       calendar.Position
	Assignee       *User
	UnresolvedUser bool
	// Overlapping lists sessions that also cover the date but lost the tie-break.
	Overlapping []string
}

// Status returns the matched session status, or "" when nothing matched.
func (m Match) Status() Status {
	if !m.Found {
		return ""
	}
	return m.Session.Status()
}

// Label is the text a calendar cell shows for the match.
func (m Match) Label() string {
	switch {
	case !m.Found:
		return ""
	case m.Session.UserID == "":
		return "Unassigned"
	case m.UnresolvedUser || m.Assignee == nil:
		return "Unknown user"
	case m.Position == calendar.PositionPrimary:
		return m.Assignee.Name + " (Primary)"
	default:
		return m.Assignee.Name
	}
}

// MatchDate finds the session whose window contains date.
//
// When several windows cover the date the earliest primary date wins, and
// equal primary dates fall back to the smallest ID. Losing sessions are
// reported in Overlapping. The input slice is never modified.
func MatchDate(sessions []Session, date calendar.Date, users UserLookup) Match {
	if date.IsZero() {
		return Match{}
	}

	var candidates []candidate
	for _, s := range sessions {
		if s.Date.IsZero() {
			continue
		}
		if pos, ok := s.Window().Contains(date); ok {
			candidates = append(candidates, candidate{session: s, position: pos})
		}
	}
	if len(candidates) == 0 {
		return Match{}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return sessionLess(candidates[i].session, candidates[j].session)
	})

	winner := candidates[0]
	result := Match{
		Found:    true,
		Session:  winner.session,
		Position: winner.position,
	}
	for _, c := range candidates[1:] {
		result.Overlapping = append(result.Overlapping, c.session.ID)
	}

	if uid := winner.session.UserID; uid != "" {
		if users != nil {
			if u, ok := users.LookupUser(uid); ok {
				assignee := u
				result.Assignee = &assignee
			}
		}
		result.UnresolvedUser = result.Assignee == nil
	}

	return result
}

// MatchString parses value before matching. Malformed input is reported as
// calendar.ErrInvalidDate.
func MatchString(sessions []Session, value string, users UserLookup) (Match, error) {
	date, err := calendar.Parse(value)
	if err != nil {
		return Match{}, fmt.Errorf("match %q: %w", value, err)
	}
	return MatchDate(sessions, date, users), nil
}

type candidate struct {
	session  Session
	position calendar.Position
}

func sessionLess(a, b Session) bool {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c < 0
	}
	return a.ID < b.ID
}

// SortSessions orders sessions by primary date then ID, in place.
func SortSessions(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessionLess(sessions[i], sessions[j])
	})
}
