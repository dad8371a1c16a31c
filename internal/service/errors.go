package service

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrItineraryItemNotFound     = errors.New("itinerary item not found")
	ErrItineraryActivityNotFound = errors.New("itinerary activity not found")
	ErrItineraryValidation       = errors.New("itinerary validation failed")
	ErrUnknownReferences         = errors.New("referenced records do not exist")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// UnknownReferencesError lists catalog ids that a request referenced but that
// do not exist. It matches ErrUnknownReferences under errors.Is.
type UnknownReferencesError struct {
	Hotels      []uuid.UUID
	Attractions []uuid.UUID
	Activities  []uuid.UUID
}

func (e *UnknownReferencesError) Error() string {
	parts := make([]string, 0, 3)
	if len(e.Hotels) > 0 {
		parts = append(parts, "hotels "+joinIDs(e.Hotels))
	}
	if len(e.Attractions) > 0 {
		parts = append(parts, "attractions "+joinIDs(e.Attractions))
	}
	if len(e.Activities) > 0 {
		parts = append(parts, "activities "+joinIDs(e.Activities))
	}
	if len(parts) == 0 {
		return ErrUnknownReferences.Error()
	}
	return fmt.Sprintf("%s: %s", ErrUnknownReferences.Error(), strings.Join(parts, "; "))
}

func (e *UnknownReferencesError) Unwrap() error {
	return ErrUnknownReferences
}

func (e *UnknownReferencesError) empty() bool {
	return len(e.Hotels) == 0 && len(e.Attractions) == 0 && len(e.Activities) == 0
}

func joinIDs(ids []uuid.UUID) string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return strings.Join(out, ", ")
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrItineraryValidation, fmt.Sprintf(format, args...))
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgCheckViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

// classifyWriteError maps storage integrity failures onto the service error
// kinds. Anything unrecognised is returned unchanged.
func classifyWriteError(err error) error {
	switch {
	case err == nil:
		return nil
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: check referenced ids", ErrUnknownReferences)
	case isUniqueViolation(err):
		return fmt.Errorf("%w: duplicate record", ErrItineraryValidation)
	case isCheckViolation(err):
		return fmt.Errorf("%w: %s", ErrItineraryValidation, checkViolationDetail(err))
	default:
		return err
	}
}

func checkViolationDetail(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName == "itinerary_activity_meal_pair" {
		return "meal_type must be set exactly when is_meal is true"
	}
	return "value out of range"
}
