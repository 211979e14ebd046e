// Package models defines the profile aggregate and its editable sections.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	idmodels "vitrine/internal/identity/models"
	id "vitrine/pkg/domain"
	dErrors "vitrine/pkg/domain-errors"
)

// Section names an independently editable part of a profile.
type Section string

const (
	SectionBasic    Section = "basic"
	SectionPhoto    Section = "photo"
	SectionCompany  Section = "company"
	SectionAddress  Section = "address"
	SectionContacts Section = "contacts"
	SectionServices Section = "services"
	SectionIdentity Section = "identity"
)

var sections = []Section{
	SectionBasic, SectionPhoto, SectionCompany, SectionAddress,
	SectionContacts, SectionServices, SectionIdentity,
}

// Sections returns all sections in display order.
func Sections() []Section {
	out := make([]Section, len(sections))
	copy(out, sections)
	return out
}

func (s Section) IsValid() bool {
	for _, known := range sections {
		if s == known {
			return true
		}
	}
	return false
}

func (s Section) String() string { return string(s) }

var ErrUnknownSection = errors.New("unknown profile section")

func ParseSection(raw string) (Section, error) {
	s := Section(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", dErrors.Wrap(ErrUnknownSection, dErrors.CodeInvalidInput, fmt.Sprintf("unknown profile section %q", raw))
	}
	return s, nil
}

// Mode is whether a section is being edited.
type Mode string

const (
	ModeViewing Mode = "viewing"
	ModeEditing Mode = "editing"
)

// Status is the account lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
)

type Basic struct {
	Name  string `json:"name" validate:"notblank,max=120"`
	Email string `json:"email" validate:"required,email,max=254"`
	Phone string `json:"phone" validate:"omitempty,phone"`
}

type Photo struct {
	PhotoURL string `json:"photo_url" validate:"omitempty,max=2048"`
}

type Company struct {
	CompanyName string `json:"company_name" validate:"max=200"`
	Segment     string `json:"segment" validate:"max=80"`
}

type Address struct {
	PostalCode   string `json:"postal_code" validate:"omitempty,postalcode"`
	Street       string `json:"street" validate:"max=200"`
	Number       string `json:"number" validate:"max=20"`
	Complement   string `json:"complement" validate:"max=120"`
	Neighborhood string `json:"neighborhood" validate:"max=120"`
	City         string `json:"city" validate:"max=120"`
	State        string `json:"state" validate:"omitempty,uf"`
}

type Contact struct {
	Name  string `json:"name" validate:"notblank,max=120"`
	Role  string `json:"role,omitempty" validate:"max=80"`
	Email string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Phone string `json:"phone,omitempty" validate:"omitempty,phone"`
}

type Identity struct {
	FullName  string `json:"full_name" validate:"max=200"`
	TaxID     string `json:"tax_id" validate:"omitempty,taxid"`
	BirthDate string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
}

// Claim returns the identity fields as a verification claim.
func (i Identity) Claim() idmodels.Claim {
	return idmodels.Claim{FullName: i.FullName, TaxID: i.TaxID, BirthDate: i.BirthDate}
}

// Profile is the persisted profile aggregate. Sections are saved together
// so a single write never leaves the profile half-updated.
type Profile struct {
	ID          id.ProfileID `json:"id"`
	UserID      id.UserID    `json:"user_id"`
	Basic       Basic        `json:"basic"`
	Photo       Photo        `json:"photo"`
	Company     Company      `json:"company"`
	Address     Address      `json:"address"`
	Contacts    []Contact    `json:"contacts"`
	Services    []string     `json:"services"`
	Identity    Identity     `json:"identity"`
	Status      Status       `json:"status"`
	SubmittedAt *time.Time   `json:"submitted_at,omitempty"`
	Version     int          `json:"version"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// New returns an empty draft profile for a user.
func New(userID id.UserID, now time.Time) *Profile {
	return &Profile{
		ID:        id.ProfileIDForUser(userID),
		UserID:    userID,
		Contacts:  []Contact{},
		Services:  []string{},
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Contacts = append([]Contact{}, p.Contacts...)
	c.Services = append([]string{}, p.Services...)
	if p.SubmittedAt != nil {
		t := *p.SubmittedAt
		c.SubmittedAt = &t
	}
	return &c
}
