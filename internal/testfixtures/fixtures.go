package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/mowing-roster/internal/application"
	"github.com/example/mowing-roster/internal/calendar"
	"github.com/example/mowing-roster/internal/persistence"
)

var (
	userCounter    uint64
	sessionCounter uint64
)

var referenceTime = time.Date(2025, time.November, 5, 10, 0, 0, 0, time.UTC)

// firstSaturday anchors generated session dates.
var firstSaturday = calendar.MustParse("2025-11-01")

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// UserFixture represents a deterministic roster member that can be
// materialised for application or persistence tests.
type UserFixture struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	IsAdmin   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:        id,
		Name:      fmt.Sprintf("Member %03d", idx),
		Email:     fmt.Sprintf("%s@example.org", id),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithUserID(id string) UserOption {
	return func(f *UserFixture) { f.ID = id }
}

func WithUserName(name string) UserOption {
	return func(f *UserFixture) { f.Name = name }
}

func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) { f.Email = email }
}

func WithUserPhone(phone string) UserOption {
	return func(f *UserFixture) { f.Phone = phone }
}

func WithUserAdmin(isAdmin bool) UserOption {
	return func(f *UserFixture) { f.IsAdmin = isAdmin }
}

// WithUserTimestamps sets both created and updated timestamps on the fixture.
func WithUserTimestamps(created, updated time.Time) UserOption {
	return func(f *UserFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:        f.ID,
		Name:      f.Name,
		Email:     f.Email,
		Phone:     f.Phone,
		IsAdmin:   f.IsAdmin,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:        f.ID,
		Name:      f.Name,
		Email:     f.Email,
		Phone:     f.Phone,
		IsAdmin:   f.IsAdmin,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, IsAdmin: f.IsAdmin}
}

// Input returns the fixture as an application.UserInput.
func (f UserFixture) Input() application.UserInput {
	isAdmin := f.IsAdmin
	return application.UserInput{
		Name:    f.Name,
		Email:   f.Email,
		Phone:   f.Phone,
		IsAdmin: &isAdmin,
	}
}

// SessionFixture represents a deterministic mowing session. Generated
// fixtures fall on consecutive Saturdays so their windows never overlap.
type SessionFixture struct {
	ID              string
	Date            calendar.Date
	UserID          string
	Confirmed       bool
	NeedsAssistance bool
	ArrivalDay      calendar.ArrivalDay
	ArrivalTime     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns an open session fixture with optional overrides.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		Date:      firstSaturday.AddDays(7 * int(idx-1)),
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithSessionID(id string) SessionOption {
	return func(f *SessionFixture) { f.ID = id }
}

// WithSessionDate sets the primary date from YYYY-MM-DD and panics on bad input.
func WithSessionDate(date string) SessionOption {
	return func(f *SessionFixture) { f.Date = calendar.MustParse(date) }
}

func WithSessionAssignee(userID string) SessionOption {
	return func(f *SessionFixture) { f.UserID = userID }
}

// WithSessionConfirmed marks the fixture confirmed. A non-empty arrivalTime
// records an assistance request arriving on day.
func WithSessionConfirmed(day calendar.ArrivalDay, arrivalTime string) SessionOption {
	return func(f *SessionFixture) {
		f.Confirmed = true
		if arrivalTime == "" {
			return
		}
		f.NeedsAssistance = true
		f.ArrivalDay = day
		f.ArrivalTime = arrivalTime
	}
}

// Application returns the fixture as an application.Session value.
func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:              f.ID,
		Date:            f.Date,
		UserID:          f.UserID,
		Confirmed:       f.Confirmed,
		ArrivalDay:      f.ArrivalDay,
		ArrivalTime:     f.ArrivalTime,
		NeedsAssistance: f.NeedsAssistance,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Session row with unset
// optional columns left nil.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:              f.ID,
		Date:            f.Date.String(),
		UserID:          optionalString(f.UserID),
		Confirmed:       f.Confirmed,
		ArrivalDay:      optionalString(string(f.ArrivalDay)),
		ArrivalTime:     optionalString(f.ArrivalTime),
		NeedsAssistance: f.NeedsAssistance,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
