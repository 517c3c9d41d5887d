// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios. For example, ErrForbidden indicates that the current
// account is not authorized to act on a resource owned by someone
// else, while ErrConflict signals that an operation cannot proceed
// due to existing dependent records (e.g. deleting a venue that
// still has sectors).
package repository

import (
    "errors"
    "strings"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as attempting to
// delete an event that still has tickets. Handlers should
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when account creation collides with an
// existing email address.
var ErrEmailExists = errors.New("email already exists")

// IsDuplicateKey reports whether err is a MySQL duplicate-key error
// (error number 1062). Several repositories use this to translate
// unique-index violations into domain errors without importing the
// driver's error types everywhere.
func IsDuplicateKey(err error) bool {
    if err == nil {
        return false
    }
    return strings.Contains(err.Error(), "1062")
}

// IsDeadlock reports whether err is a MySQL deadlock (error number
// 1213). InnoDB rolls the losing transaction back, so callers may
// safely rerun the whole unit of work.
func IsDeadlock(err error) bool {
    if err == nil {
        return false
    }
    return strings.Contains(err.Error(), "1213")
}
