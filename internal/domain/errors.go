package domain

import "errors"

var (
	// ErrRecordNotFound is returned when a record id does not exist in the
	// current store snapshot.
	ErrRecordNotFound = errors.New("job record not found")
)
