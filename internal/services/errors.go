package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// ValidationError reports bad input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PersistenceError wraps a storage failure during Op.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ConflictError reports a request that clashes with current state.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ForbiddenError reports an actor acting on something they do not own.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// ErrInvalidCredentials is returned by login for unknown users and bad passwords alike.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrUserDisabled is returned when an inactive user tries to log in.
var ErrUserDisabled = errors.New("user is disabled")

func notFound(resource string, id uint) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// lookupErr maps gorm.ErrRecordNotFound to a NotFoundError and wraps the rest.
func lookupErr(resource string, id uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(resource, id)
	}
	return persistence("load "+resource, err)
}
