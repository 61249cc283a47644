package domain

import "fmt"

// DomainError distinguishes domain-level rejections from infrastructure
// failures. These surface synchronously to the caller and never reach the
// sync pipeline.
type DomainError string

func (e DomainError) Error() string {
	return string(e)
}

// Friendship state errors.
var (
	ErrAlreadyFriends     = DomainError("users are already friends")
	ErrRequestAlreadySent = DomainError("friend request already sent")
	ErrBlocked            = DomainError("relationship is blocked")
	ErrInvalidState       = DomainError("invalid relationship state for this operation")
)

// ValidationError rejects a malformed entity before it reaches sync or
// persistence.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
