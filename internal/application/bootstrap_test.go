package application

import (
	"context"
	"testing"

	"github.com/example/mowing-roster/internal/seed"
)

func TestBootstrapper_SeedsEmptyTablesOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	users := newUserRepoStub()
	sessions := newSessionRepoStub()
	b := NewBootstrapper(users, sessions, (&sequenceIDs{}).Next, fixedNow(referenceNow), nil)

	plan := seed.Plan{
		Users: []seed.User{
			{Name: "Admin", Email: "admin@example.org", IsAdmin: true},
			{Name: " Alex ", Email: "Alex@Example.org"},
		},
		Sessions: []seed.Session{
			{Date: "2025-11-08", Assignee: "alex@example.org", Confirmed: true},
			{Date: "2025-11-15", Assignee: "Admin"},
			{Date: "2025-11-22"},
		},
	}

	report, err := b.Bootstrap(ctx, plan)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if report.UsersCreated != 2 || report.SessionsCreated != 3 {
		t.Fatalf("unexpected report %+v", report)
	}

	alex, err := users.GetUserByName(ctx, "Alex")
	if err != nil {
		t.Fatalf("seeded name must be trimmed: %v", err)
	}
	if alex.Email != "alex@example.org" {
		t.Fatalf("seeded email must be lowercased, got %q", alex.Email)
	}

	first, err := sessions.GetSessionByDate(ctx, day("2025-11-08"))
	if err != nil {
		t.Fatalf("GetSessionByDate: %v", err)
	}
	if first.UserID != alex.ID || !first.Confirmed {
		t.Fatalf("unexpected seeded session %+v", first)
	}
	open, _ := sessions.GetSessionByDate(ctx, day("2025-11-22"))
	if open.UserID != "" || open.Confirmed {
		t.Fatalf("unassigned seed session must stay open, got %+v", open)
	}

	again, err := b.Bootstrap(ctx, plan)
	if err != nil {
		t.Fatalf("second Bootstrap: %v", err)
	}
	if again != (BootstrapReport{}) {
		t.Fatalf("second run must be a no-op, got %+v", again)
	}
}

func TestBootstrapper_UnknownAssigneeLeavesSessionOpen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// Users already exist, so the seeded names are never created.
	users := newUserRepoStub(rosterUsers()...)
	sessions := newSessionRepoStub()
	b := NewBootstrapper(users, sessions, (&sequenceIDs{}).Next, fixedNow(referenceNow), nil)

	plan := seed.Plan{
		Users:    []seed.User{{Name: "Quinn", Email: "quinn@example.org"}},
		Sessions: []seed.Session{{Date: "2025-11-08", Assignee: "Quinn", Confirmed: true}},
	}
	report, err := b.Bootstrap(ctx, plan)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if report.UsersCreated != 0 || report.SessionsCreated != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	s, _ := sessions.GetSessionByDate(ctx, day("2025-11-08"))
	if s.UserID != "" || s.Confirmed {
		t.Fatalf("unknown assignee must leave the session open, got %+v", s)
	}
}

func TestBootstrapper_DefaultPlan(t *testing.T) {
	t.Parallel()

	users := newUserRepoStub()
	sessions := newSessionRepoStub()
	b := NewBootstrapper(users, sessions, (&sequenceIDs{}).Next, fixedNow(referenceNow), nil)

	plan := seed.Default()
	report, err := b.Bootstrap(context.Background(), plan)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if report.UsersCreated != len(plan.Users) || report.SessionsCreated != len(plan.Sessions) {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestBootstrapper_RejectsInvalidPlan(t *testing.T) {
	t.Parallel()

	b := NewBootstrapper(newUserRepoStub(), newSessionRepoStub(), nil, nil, nil)
	_, err := b.Bootstrap(context.Background(), seed.Plan{Sessions: []seed.Session{{Date: "08/11/2025"}}})
	if err == nil {
		t.Fatalf("expected invalid plan to be rejected")
	}
}
