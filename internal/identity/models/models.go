// Package models defines identity claims and the verification result state machine.
package models

import (
	"errors"
	"strings"
	"time"

	pkgstrings "vitrine/pkg/platform/strings"
)

// State is the verification state of the current identity claim.
type State string

const (
	StateNotAttempted State = "not-attempted"
	StateValidating   State = "validating"
	StateValid        State = "valid"
	StateInvalid      State = "invalid"
	StateRateLimited  State = "rate-limited"
	StateError        State = "error"
)

func (s State) String() string { return string(s) }

// IsTerminal reports whether the state is the outcome of a finished attempt.
func (s State) IsTerminal() bool {
	switch s {
	case StateValid, StateInvalid, StateRateLimited, StateError:
		return true
	}
	return false
}

// GenericFailureMessage is shown for any transport-level failure. Details
// are logged, never surfaced.
const GenericFailureMessage = "We could not verify your tax ID right now. Please try again in a few minutes."

var (
	ErrMissingFields        = errors.New("full name, tax ID and birth date are required")
	ErrVerificationInFlight = errors.New("a verification for a different claim is in progress")
)

// Claim is the identity data sent to the registry.
type Claim struct {
	FullName  string `json:"full_name"`
	TaxID     string `json:"tax_id"`
	BirthDate string `json:"birth_date"`
}

// Normalized trims whitespace and strips tax ID punctuation so that
// "123.456.789-09" and "12345678909" compare equal.
func (c Claim) Normalized() Claim {
	return Claim{
		FullName:  strings.Join(strings.Fields(c.FullName), " "),
		TaxID:     pkgstrings.DigitsOnly(c.TaxID),
		BirthDate: strings.TrimSpace(c.BirthDate),
	}
}

// Complete reports whether every field has a non-blank value.
func (c Claim) Complete() bool {
	n := c.Normalized()
	return n.FullName != "" && n.TaxID != "" && n.BirthDate != ""
}

// Equal compares normalized claims.
func (c Claim) Equal(other Claim) bool {
	return c.Normalized() == other.Normalized()
}

func (c Claim) IsZero() bool {
	return c.Normalized() == Claim{}
}

// Result is the outcome of the latest verification attempt for a profile.
type Result struct {
	State       State      `json:"state"`
	Message     string     `json:"message,omitempty"`
	AttemptedAt *time.Time `json:"attempted_at,omitempty"`
}

// NotAttempted is the initial result for any claim.
func NotAttempted() Result {
	return Result{State: StateNotAttempted}
}
