package application

import (
	"errors"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a user name or session date is taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when a login cannot be matched to an account.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a login token is past its expiry.
	ErrSessionExpired = errors.New("application: login session expired")
	// ErrProtectedUser is returned when deleting or demoting an administrator account.
	ErrProtectedUser = errors.New("application: admin user is protected")
	// ErrInvalidTransition is returned when a session is not in a state that allows the operation.
	ErrInvalidTransition = errors.New("application: invalid session state transition")
	// ErrNotificationFailed is returned when a coverage email could not be delivered.
	ErrNotificationFailed = errors.New("application: notification failed")
)

// ValidationError maps request fields to the reason each was rejected.
type ValidationError struct {
	FieldErrors map[string]string
}

func (v *ValidationError) Error() string {
	if !v.HasErrors() {
		return "validation failed"
	}
	fields := slices.Sorted(maps.Keys(v.FieldErrors))
	return "validation failed: " + strings.Join(fields, ", ")
}

func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// Add records message against field. The first message for a field is kept.
func (v *ValidationError) Add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}

func fieldError(field, message string) *ValidationError {
	vErr := &ValidationError{}
	vErr.Add(field, message)
	return vErr
}
