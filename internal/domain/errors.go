package domain

import (
	"errors"
	"fmt"
)

// DomainError keeps backward compatibility for generic codes.
type DomainError struct {
	Code string
	Err  error
}

func (e DomainError) Error() string {
	if e.Err == nil {
		return e.Code
	}
	if e.Code == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e DomainError) Unwrap() error {
	return e.Err
}

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

// PersistenceError wraps a failed ledger read or write. Op names the ledger
// operation (load, save, append, update, clear, archive).
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("ledger %s failed", e.Op)
	}
	return fmt.Sprintf("ledger %s failed: %v", e.Op, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }

// NotificationError is produced by the mail path and never reaches the user.
type NotificationError struct {
	Kind string
	Err  error
}

func (e NotificationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("notification %s failed", e.Kind)
	}
	return fmt.Sprintf("notification %s failed: %v", e.Kind, e.Err)
}

func (e NotificationError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsPersistence(err error) bool {
	var target PersistenceError
	return errors.As(err, &target)
}

func IsNotification(err error) bool {
	var target NotificationError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}
