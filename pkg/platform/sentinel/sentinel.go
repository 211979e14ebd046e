// Package sentinel holds the storage and infrastructure facts that services
// translate into domain errors. Input problems belong in pkg/domain-errors.
package sentinel

import "errors"

var (
	// ErrNotFound: the store has no such row or slot.
	ErrNotFound = errors.New("not found")
	// ErrConflict: another writer changed the row since it was read
	// (version or status precondition failed).
	ErrConflict = errors.New("conflict")
	// ErrUnavailable: a backing service could not be reached.
	ErrUnavailable = errors.New("unavailable")
)
