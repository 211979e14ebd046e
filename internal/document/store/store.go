// Package store persists document records. At most one record is active per
// (profile, category); Replace swaps it atomically.
package store

import "vitrine/pkg/platform/sentinel"

var (
	ErrNotFound = sentinel.ErrNotFound
	ErrConflict = sentinel.ErrConflict
)
