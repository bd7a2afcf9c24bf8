// Package seed holds the initial users and session schedule loaded into an
// empty database.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/example/mowing-roster/internal/calendar"
)

//go:embed default.json
var defaultPlan []byte

// User is a seeded account.
type User struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

// Session is a seeded session. Assignee matches a user by email or name and
// may be empty.
type Session struct {
	Date      string `json:"date"`
	Assignee  string `json:"assignee,omitempty"`
	Confirmed bool   `json:"confirmed,omitempty"`
}

// Plan is the full seed.
type Plan struct {
	Users    []User    `json:"users"`
	Sessions []Session `json:"sessions"`
}

// Default returns the embedded plan.
func Default() Plan {
	plan, err := Parse(defaultPlan)
	if err != nil {
		panic(fmt.Sprintf("seed: embedded plan is invalid: %v", err))
	}
	return plan
}

// LoadFile reads and validates a plan from path.
func LoadFile(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("seed: read %s: %w", path, err)
	}
	plan, err := Parse(data)
	if err != nil {
		return Plan{}, fmt.Errorf("seed: %s: %w", path, err)
	}
	return plan, nil
}

// Parse decodes and validates a JSON plan.
func Parse(data []byte) (Plan, error) {
	var plan Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return Plan{}, fmt.Errorf("decode plan: %w", err)
	}
	if err := plan.Validate(); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// Validate checks names, dates and assignee references.
func (p Plan) Validate() error {
	known := make(map[string]struct{}, len(p.Users)*2)
	for i, u := range p.Users {
		name := strings.TrimSpace(u.Name)
		if name == "" {
			return fmt.Errorf("user %d: name is required", i)
		}
		if _, dup := known[name]; dup {
			return fmt.Errorf("user %d: duplicate name %q", i, name)
		}
		known[name] = struct{}{}
		if email := strings.TrimSpace(u.Email); email != "" {
			known[strings.ToLower(email)] = struct{}{}
		}
	}

	dates := make(map[string]struct{}, len(p.Sessions))
	for i, s := range p.Sessions {
		d, err := calendar.Parse(s.Date)
		if err != nil {
			return fmt.Errorf("session %d: %w", i, err)
		}
		if _, dup := dates[d.String()]; dup {
			return fmt.Errorf("session %d: duplicate date %s", i, d)
		}
		dates[d.String()] = struct{}{}
		if s.Assignee == "" {
			if s.Confirmed {
				return fmt.Errorf("session %d: confirmed session needs an assignee", i)
			}
			continue
		}
		if !p.hasAssignee(s.Assignee, known) {
			return fmt.Errorf("session %d: unknown assignee %q", i, s.Assignee)
		}
	}
	return nil
}

func (p Plan) hasAssignee(ref string, known map[string]struct{}) bool {
	ref = strings.TrimSpace(ref)
	if _, ok := known[ref]; ok {
		return true
	}
	_, ok := known[strings.ToLower(ref)]
	return ok
}
