package datastore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when an identifier does not resolve to a row.
	// It wraps sql.ErrNoRows so callers checking either sentinel agree.
	ErrNotFound = fmt.Errorf("record not found: %w", sql.ErrNoRows)

	// ErrConstraintViolation is returned when a write breaks a unique,
	// foreign-key, not-null, check or length constraint.
	ErrConstraintViolation = errors.New("constraint violation")
)

// PostgreSQL SQLSTATE codes we translate.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqNotNullViolation    = "23502"
	pqCheckViolation      = "23514"
	pqStringTooLong       = "22001"
)

// ConstraintError preserves the driver's diagnostics alongside ErrConstraintViolation.
type ConstraintError struct {
	Code       string
	Constraint string
	Column     string
	cause      error
}

func (e *ConstraintError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("%s (%s on %q): %v", ErrConstraintViolation, e.Code, e.Constraint, e.cause)
	}
	return fmt.Sprintf("%s (%s): %v", ErrConstraintViolation, e.Code, e.cause)
}

func (e *ConstraintError) Is(target error) bool { return target == ErrConstraintViolation }
func (e *ConstraintError) Unwrap() error        { return e.cause }

// mapError translates driver errors into this package's sentinels.
// Errors it does not recognise are returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case pqUniqueViolation, pqForeignKeyViolation, pqNotNullViolation, pqCheckViolation, pqStringTooLong:
		return &ConstraintError{
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Column:     pqErr.Column,
			cause:      err,
		}
	}
	return err
}
