package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrUnauthenticated   = errors.New("not authenticated")
	ErrIncorrectPassword = errors.New("incorrect password")
)

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

type OwnerOnlyError struct {
	CallerID string
	OwnerID  string
	EntityID string
}

func (e OwnerOnlyError) Error() string {
	// Keep this generic; callers can wrap with more specific phrasing.
	return "owner-only"
}

func (e OwnerOnlyError) Is(target error) bool { return target == ErrUnauthorized }
