// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "vitrine/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a UserID where a ProfileID is expected.
type (
	UserID     uuid.UUID
	ProfileID  uuid.UUID
	DocumentID uuid.UUID
)

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseUserID(s string) (UserID, error) {
	id, err := parseUUID(s, "user ID")
	return UserID(id), err
}

func ParseProfileID(s string) (ProfileID, error) {
	id, err := parseUUID(s, "profile ID")
	return ProfileID(id), err
}

func ParseDocumentID(s string) (DocumentID, error) {
	id, err := parseUUID(s, "document ID")
	return DocumentID(id), err
}

// New constructors - for server-generated identifiers.

func NewProfileID() ProfileID   { return ProfileID(uuid.New()) }
func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }

// String methods - for logging and debugging.

func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id ProfileID) String() string  { return uuid.UUID(id).String() }
func (id DocumentID) String() string { return uuid.UUID(id).String() }

// IsNil checks - used for service-layer validation.

func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ProfileID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Text marshaling - IDs render as canonical UUID strings in JSON and logs.

func (id UserID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id ProfileID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id DocumentID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *ProfileID) UnmarshalText(b []byte) error {
	parsed, err := ParseProfileID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *DocumentID) UnmarshalText(b []byte) error {
	parsed, err := ParseDocumentID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ProfileIDForUser derives the profile owned by a user. Each user owns exactly
// one profile and the mapping is stable across restarts.
func ProfileIDForUser(userID UserID) ProfileID {
	return ProfileID(uuid.NewSHA1(profileNamespace, []byte(userID.String())))
}

var profileNamespace = uuid.MustParse("6f1c0c6e-6b7a-4a52-9e0e-2f5b8d6f7a10")

// parseUUID is the shared validation logic. Nil UUIDs are rejected: no entity
// in this system is ever addressed by the zero identifier.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return id, nil
}
