package entity

import "errors"

var (
	ErrIDIsRequired    = errors.New("id is required")
	ErrStoreIsRequired = errors.New("store id is required")
	ErrUserIsRequired  = errors.New("user id is required")
	ErrInvalidLocation = errors.New("invalid location")
	ErrInvalidStatus   = errors.New("invalid status")

	// ErrNotFound is returned by repositories when the requested record does
	// not exist.
	ErrNotFound = errors.New("record not found")

	// ErrStalePrecondition is returned by conditional writes whose guard
	// (version or status) no longer held at write time. Callers treat it as a
	// benign race, never as a failure to retry.
	ErrStalePrecondition = errors.New("stale precondition")
)
