// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services to distinguish between different failure scenarios without
// inspecting driver errors.
package repository

import (
	"errors"
	"strings"

	"github.com/iliyamo/ecofinds-marketplace/internal/database"
)

// ErrNotFound is returned when a lookup by key matches no row.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot be performed because of
// conflicting state, such as deleting a product that orders reference.
var ErrConflict = errors.New("conflict")

// ErrEmailExists and ErrUsernameExists report which unique user column a
// write collided with.
var (
	ErrEmailExists    = errors.New("email already exists")
	ErrUsernameExists = errors.New("username already exists")
)

// classifyUserUnique maps a unique-key violation on the users table to the
// matching sentinel.  Both drivers name the offending key in the message
// ("users.email" for SQLite, "for key 'users.email'" for MySQL).
func classifyUserUnique(err error) error {
	if !database.IsUniqueViolation(err) {
		return err
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "email"):
		return ErrEmailExists
	case strings.Contains(msg, "username"):
		return ErrUsernameExists
	}
	return ErrConflict
}
