package services

import (
	"errors"
	"fmt"

	"findplayer/models"
)

var (
	// ErrForbidden is returned when the caller's role does not allow the action.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound covers missing users, challenges, submissions and ownership mismatches.
	ErrNotFound = errors.New("not found")
	// ErrReviewConflict means the submission already has the requested status or
	// changed between read and review write.
	ErrReviewConflict = errors.New("submission review conflict")
	// ErrStreakContention means the streak row kept changing under the compare-and-swap.
	ErrStreakContention = errors.New("streak update contention")
)

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

func validationErr(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

type QuotaExceededError struct {
	Quota Quota
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s: %d/%d", e.Quota.Action, e.Quota.Current, e.Quota.Max)
}

// ConflictError carries the submission that already exists for the pair.
type ConflictError struct {
	Existing *models.Submission
}

func (e *ConflictError) Error() string {
	return "submission already exists for this challenge"
}

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}
