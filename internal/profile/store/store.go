// Package store persists profiles. Save writes every section of a profile in
// one statement and rejects stale versions.
package store

import "vitrine/pkg/platform/sentinel"

var (
	ErrNotFound = sentinel.ErrNotFound
	ErrConflict = sentinel.ErrConflict
)
