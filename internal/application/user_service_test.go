package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

func boolPtr(v bool) *bool { return &v }

func newUserHarness() (*UserService, *userRepoStub, *CalendarCache) {
	repo := newUserRepoStub(rosterUsers()...)
	cache := NewCalendarCache(time.Minute, 4, fixedNow(referenceNow))
	svc := NewUserService(repo, (&sequenceIDs{}).Next, fixedNow(referenceNow)).WithCalendarCache(cache)
	return svc, repo, cache
}

func TestUserService_ListUsers(t *testing.T) {
	t.Parallel()

	svc, _, _ := newUserHarness()
	if _, err := svc.ListUsers(context.Background(), Principal{}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	users, err := svc.ListUsers(context.Background(), alexPrincipal)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	want := []string{"Admin", "Alex", "Blair", "casey"}
	if len(users) != len(want) {
		t.Fatalf("expected %d users, got %d", len(want), len(users))
	}
	for i, name := range want {
		if users[i].Name != name {
			t.Fatalf("users[%d] = %q, want %q", i, users[i].Name, name)
		}
	}
}

func TestUserService_CreateUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("administrator creates a normalized user", func(t *testing.T) {
		t.Parallel()
		svc, repo, cache := newUserHarness()
		cache.Store("k", CalendarView{})

		user, err := svc.CreateUser(ctx, CreateUserParams{
			Principal: adminPrincipal,
			Input:     UserInput{Name: "  Devon ", Email: " Devon@Example.org ", Phone: " 0400 000 000 "},
		})
		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		if user.Name != "Devon" || user.Email != "devon@example.org" || user.Phone != "0400 000 000" || user.IsAdmin {
			t.Fatalf("unexpected user %+v", user)
		}
		if user.ID == "" || !user.CreatedAt.Equal(referenceNow) {
			t.Fatalf("expected generated id and timestamps, got %+v", user)
		}
		if _, err := repo.GetUser(ctx, user.ID); err != nil {
			t.Fatalf("user not persisted: %v", err)
		}
		if cache.Len() != 0 {
			t.Fatalf("user creation must invalidate the calendar cache")
		}
	})

	t.Run("non administrators are rejected", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newUserHarness()
		_, err := svc.CreateUser(ctx, CreateUserParams{Principal: alexPrincipal, Input: UserInput{Name: "Devon", Email: "d@example.org"}})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newUserHarness()
		_, err := svc.CreateUser(ctx, CreateUserParams{Principal: adminPrincipal, Input: UserInput{Name: " ", Email: "not-an-email"}})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if vErr.FieldErrors["name"] == "" || vErr.FieldErrors["email"] == "" {
			t.Fatalf("expected name and email errors, got %v", vErr.FieldErrors)
		}
	})

	t.Run("duplicate name", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newUserHarness()
		_, err := svc.CreateUser(ctx, CreateUserParams{Principal: adminPrincipal, Input: UserInput{Name: " Alex", Email: "other@example.org"}})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestUserService_UpdateUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("users edit themselves", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newUserHarness()
		user, err := svc.UpdateUser(ctx, UpdateUserParams{
			Principal: alexPrincipal,
			UserID:    "alex",
			Input:     UserInput{Name: "Alexis", Email: "alexis@example.org"},
		})
		if err != nil {
			t.Fatalf("UpdateUser: %v", err)
		}
		if user.Name != "Alexis" || user.Email != "alexis@example.org" || !user.UpdatedAt.Equal(referenceNow) {
			t.Fatalf("unexpected user %+v", user)
		}
	})

	t.Run("users cannot edit others or promote themselves", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newUserHarness()
		_, err := svc.UpdateUser(ctx, UpdateUserParams{Principal: alexPrincipal, UserID: "blair", Input: UserInput{Name: "Blair", Email: "blair@example.org"}})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		_, err = svc.UpdateUser(ctx, UpdateUserParams{Principal: alexPrincipal, UserID: "alex", Input: UserInput{Name: "Alex", Email: "alex@example.org", IsAdmin: boolPtr(true)}})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("administrator promotes and renames", func(t *testing.T) {
		t.Parallel()
		svc, repo, _ := newUserHarness()
		user, err := svc.UpdateUser(ctx, UpdateUserParams{Principal: adminPrincipal, UserID: "casey", Input: UserInput{Name: "Casey", Email: "casey@example.org", IsAdmin: boolPtr(true)}})
		if err != nil {
			t.Fatalf("UpdateUser: %v", err)
		}
		if !user.IsAdmin || user.Name != "Casey" {
			t.Fatalf("unexpected user %+v", user)
		}
		stored, _ := repo.GetUser(ctx, "casey")
		if !stored.IsAdmin {
			t.Fatalf("promotion not persisted")
		}
	})

	t.Run("admin flag cannot be revoked", func(t *testing.T) {
		t.Parallel()
		svc, repo, _ := newUserHarness()
		_, err := svc.UpdateUser(ctx, UpdateUserParams{Principal: adminPrincipal, UserID: "admin", Input: UserInput{Name: "Admin", Email: "admin@example.org", IsAdmin: boolPtr(false)}})
		if !errors.Is(err, ErrProtectedUser) {
			t.Fatalf("expected ErrProtectedUser, got %v", err)
		}
		stored, err := repo.GetUser(ctx, "admin")
		if err != nil || !stored.IsAdmin {
			t.Fatalf("admin flag must survive, got %+v err=%v", stored, err)
		}
		if err := svc.DeleteUser(ctx, adminPrincipal, "admin"); !errors.Is(err, ErrProtectedUser) {
			t.Fatalf("expected admin to stay undeletable, got %v", err)
		}
		if _, err := repo.GetUser(ctx, "admin"); err != nil {
			t.Fatalf("admin must still be stored: %v", err)
		}
	})

	t.Run("rename onto an existing name", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newUserHarness()
		_, err := svc.UpdateUser(ctx, UpdateUserParams{Principal: adminPrincipal, UserID: "casey", Input: UserInput{Name: "Blair", Email: "casey@example.org"}})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newUserHarness()
		_, err := svc.UpdateUser(ctx, UpdateUserParams{Principal: adminPrincipal, UserID: "ghost", Input: UserInput{Name: "Ghost", Email: "ghost@example.org"}})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, repo, _ := newUserHarness()
	if err := svc.DeleteUser(ctx, alexPrincipal, "blair"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := svc.DeleteUser(ctx, adminPrincipal, "admin"); !errors.Is(err, ErrProtectedUser) {
		t.Fatalf("expected ErrProtectedUser, got %v", err)
	}
	if err := svc.DeleteUser(ctx, adminPrincipal, "blair"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := repo.GetUser(ctx, "blair"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected blair to be removed, got %v", err)
	}
	if err := svc.DeleteUser(ctx, adminPrincipal, "blair"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserService_CreateUserWithoutRepository(t *testing.T) {
	t.Parallel()

	svc := NewUserService(nil, (&sequenceIDs{}).Next, fixedNow(referenceNow))
	_, err := svc.CreateUser(context.Background(), CreateUserParams{Principal: adminPrincipal, Input: UserInput{Name: "Devon", Email: "devon@example.org"}})
	if !errors.Is(err, errUserRepoMissing) {
		t.Fatalf("expected errUserRepoMissing, got %v", err)
	}
}

func TestUserService_NilReceiver(t *testing.T) {
	t.Parallel()

	var svc *UserService
	if _, err := svc.ListUsers(context.Background(), adminPrincipal); err == nil {
		t.Fatalf("expected error from nil service")
	}
}
