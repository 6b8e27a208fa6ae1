package store

import "errors"

var (
	// Lifecycle errors
	ErrStoreClosed = errors.New("store closed")
	ErrStoreFailed = errors.New("store failed")

	// Dispatch errors
	ErrCancelled = errors.New("dispatch cancelled")

	// Reducer composition errors
	ErrUnhandledVariant = errors.New("no reducer case for action variant")
	ErrUnknownVariant   = errors.New("reducer case for undeclared action variant")
	ErrDuplicateCase    = errors.New("duplicate reducer case")
	ErrNilVariant       = errors.New("nil action variant")
)
