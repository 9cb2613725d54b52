package repositories

import (
	"errors"
	"fmt"
)

// DuplicateKeyError reports that a generated identifier collided with one
// already claimed in the backing store.
type DuplicateKeyError struct {
	Collection string
	Key        string
	Err        error
}

// Error implements the error interface.
func (e *DuplicateKeyError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("duplicate key %q in %s", e.Key, e.Collection)
}

// Unwrap exposes the underlying error, if any.
func (e *DuplicateKeyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsUniqueViolation marks the error as retryable by number generation.
func (e *DuplicateKeyError) IsUniqueViolation() bool {
	return e != nil
}

// NewDuplicateKeyError constructs a typed duplicate key error.
func NewDuplicateKeyError(collection string, key string, err error) *DuplicateKeyError {
	return &DuplicateKeyError{Collection: collection, Key: key, Err: err}
}

type uniqueViolator interface {
	IsUniqueViolation() bool
}

type alreadyExister interface {
	IsAlreadyExists() bool
}

// IsUniqueViolation reports whether err stems from a unique-constraint
// collision, either a typed DuplicateKeyError or a storage-level create of a
// document that already exists.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var dup uniqueViolator
	if errors.As(err, &dup) && dup.IsUniqueViolation() {
		return true
	}
	var exists alreadyExister
	return errors.As(err, &exists) && exists.IsAlreadyExists()
}
