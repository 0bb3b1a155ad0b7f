package ledger

import (
	"errors"
	"fmt"
)

// Sentinel errors for the conditions callers branch on. Wrapped values keep
// the sentinel in the chain, so errors.Is works across layers.
var (
	// ErrValidation covers bad input: empty required fields, nil users.
	ErrValidation = errors.New("invalid input")

	// ErrDuplicateID is returned when adding a record whose identity
	// already exists in the category.
	ErrDuplicateID = errors.New("duplicate identity")

	// ErrAlreadyBorrowed is returned when borrowing an unavailable record.
	ErrAlreadyBorrowed = errors.New("already borrowed")

	// ErrNotFound is returned when no record matches the identifier.
	ErrNotFound = errors.New("not found")

	// ErrIneligible is returned when the borrower has unpaid fines or an
	// overdue holding in the category.
	ErrIneligible = errors.New("borrower not eligible")

	// ErrInvalidAmount is returned for non-positive payments or payments
	// exceeding the fine balance.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrUnauthorized is returned when a session lacks the role an
	// admin-only operation requires.
	ErrUnauthorized = errors.New("unauthorized")
)

// StorageError marks a failed read or write of a backing file. It is fatal
// for the current operation; the prior on-disk state is left intact.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorage reports whether err stems from backing-file I/O.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
