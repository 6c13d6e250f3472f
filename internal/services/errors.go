package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a referenced deal/partner/payout/rule does not
// resolve; computation never proceeds past it.
var ErrNotFound = errors.New("not found")

// ErrInvalidInput is returned for rejected inputs (non-positive amounts,
// malformed rules, unknown enum values); nothing is partially applied.
var ErrInvalidInput = errors.New("invalid input")

// notFoundf wraps gorm's record-not-found into the service error taxonomy,
// passing other database errors through untouched.
func notFoundf(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
	}
	return err
}

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
