// Package completeness scores how much of a profile has been filled in.
// Compute is pure: the same snapshot always yields the same state.
package completeness

import (
	"math"
	"strings"

	docmodels "vitrine/internal/document/models"
)

// BadgeThreshold is the minimum percentage for the verified badge.
const BadgeThreshold = 80

// Snapshot is the read-only view of a profile the score is computed from.
type Snapshot struct {
	Name         string
	Email        string
	Phone        string
	PhotoURL     string
	CompanyName  string
	Segment      string
	Street       string
	ContactCount int
	ServiceCount int
	Documents    []*docmodels.Record
}

// Check is one line of the checklist.
type Check struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	Satisfied bool   `json:"satisfied"`
}

// State is the derived completeness of a profile. It is never stored.
type State struct {
	Percentage               int                  `json:"percentage"`
	VerifiedBadge            bool                 `json:"verified_badge"`
	Checks                   []Check              `json:"checks"`
	MissingRequiredDocuments []docmodels.Category `json:"missing_required_documents"`
}

type criterion struct {
	key   string
	label string
	test  func(Snapshot) bool
}

var checklist = []criterion{
	{"name", "Name", func(s Snapshot) bool { return present(s.Name) }},
	{"email", "Email", func(s Snapshot) bool { return present(s.Email) }},
	{"phone", "Phone", func(s Snapshot) bool { return present(s.Phone) }},
	{"photo", "Profile photo", func(s Snapshot) bool { return present(s.PhotoURL) }},
	{"company_name", "Company name", func(s Snapshot) bool { return present(s.CompanyName) }},
	{"segment", "Business segment", func(s Snapshot) bool { return present(s.Segment) }},
	{"street", "Address street", func(s Snapshot) bool { return present(s.Street) }},
	{"contacts", "At least one contact", func(s Snapshot) bool { return s.ContactCount > 0 }},
	{"services", "At least one service", func(s Snapshot) bool { return s.ServiceCount > 0 }},
	{"documents", "At least one document submitted", hasSubmittedDocument},
}

// Compute derives the completeness state. It never fails.
func Compute(s Snapshot) State {
	checks := make([]Check, 0, len(checklist))
	satisfied := 0
	for _, c := range checklist {
		ok := c.test(s)
		if ok {
			satisfied++
		}
		checks = append(checks, Check{Key: c.key, Label: c.label, Satisfied: ok})
	}
	pct := roundHalfUp(100 * float64(satisfied) / float64(len(checklist)))
	missing := docmodels.MissingRequired(s.Documents)
	if missing == nil {
		missing = []docmodels.Category{}
	}
	return State{
		Percentage:               pct,
		VerifiedBadge:            pct >= BadgeThreshold,
		Checks:                   checks,
		MissingRequiredDocuments: missing,
	}
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}

func hasSubmittedDocument(s Snapshot) bool {
	for _, d := range s.Documents {
		if d != nil && d.Status.CountsAsSubmitted() {
			return true
		}
	}
	return false
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
