package models

import (
	"encoding/json"
	"fmt"
	"strings"

	dErrors "vitrine/pkg/domain-errors"
	pkgstrings "vitrine/pkg/platform/strings"
	"vitrine/pkg/validation"
)

// Draft is the in-progress edit of one section.
type Draft interface {
	Section() Section
	Normalize()
	Validate() error
	// ApplyTo writes the draft into p.
	ApplyTo(p *Profile)
}

type BasicDraft struct{ Basic }
type PhotoDraft struct{ Photo }
type CompanyDraft struct{ Company }
type AddressDraft struct{ Address }
type IdentityDraft struct{ Identity }

type ContactsDraft struct {
	Contacts []Contact `json:"contacts" validate:"max=20,dive"`
}

type ServicesDraft struct {
	Services []string `json:"services" validate:"max=50,dive,notblank,max=80"`
}

func (BasicDraft) Section() Section    { return SectionBasic }
func (PhotoDraft) Section() Section    { return SectionPhoto }
func (CompanyDraft) Section() Section  { return SectionCompany }
func (AddressDraft) Section() Section  { return SectionAddress }
func (ContactsDraft) Section() Section { return SectionContacts }
func (ServicesDraft) Section() Section { return SectionServices }
func (IdentityDraft) Section() Section { return SectionIdentity }

func (d *BasicDraft) Normalize() {
	d.Name = collapse(d.Name)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Phone = strings.TrimSpace(d.Phone)
}

func (d *PhotoDraft) Normalize() {
	d.PhotoURL = strings.TrimSpace(d.PhotoURL)
}

func (d *CompanyDraft) Normalize() {
	d.CompanyName = collapse(d.CompanyName)
	d.Segment = strings.ToLower(strings.TrimSpace(d.Segment))
}

func (d *AddressDraft) Normalize() {
	if digits := pkgstrings.DigitsOnly(d.PostalCode); digits != "" {
		d.PostalCode = digits
	} else {
		d.PostalCode = strings.TrimSpace(d.PostalCode)
	}
	d.Street = collapse(d.Street)
	d.Number = strings.TrimSpace(d.Number)
	d.Complement = collapse(d.Complement)
	d.Neighborhood = collapse(d.Neighborhood)
	d.City = collapse(d.City)
	d.State = strings.ToUpper(strings.TrimSpace(d.State))
}

func (d *ContactsDraft) Normalize() {
	for i := range d.Contacts {
		c := &d.Contacts[i]
		c.Name = collapse(c.Name)
		c.Role = collapse(c.Role)
		c.Email = strings.ToLower(strings.TrimSpace(c.Email))
		c.Phone = strings.TrimSpace(c.Phone)
	}
	if d.Contacts == nil {
		d.Contacts = []Contact{}
	}
}

func (d *ServicesDraft) Normalize() {
	d.Services = pkgstrings.DedupeAndTrim(d.Services)
	if d.Services == nil {
		d.Services = []string{}
	}
}

func (d *IdentityDraft) Normalize() {
	d.FullName = collapse(d.FullName)
	d.TaxID = pkgstrings.DigitsOnly(d.TaxID)
	d.BirthDate = strings.TrimSpace(d.BirthDate)
}

func (d *BasicDraft) Validate() error    { return validation.Validate(d) }
func (d *PhotoDraft) Validate() error    { return validation.Validate(d) }
func (d *CompanyDraft) Validate() error  { return validation.Validate(d) }
func (d *AddressDraft) Validate() error  { return validation.Validate(d) }
func (d *ContactsDraft) Validate() error { return validation.Validate(d) }
func (d *ServicesDraft) Validate() error { return validation.Validate(d) }
func (d *IdentityDraft) Validate() error { return validation.Validate(d) }

func (d *BasicDraft) ApplyTo(p *Profile)    { p.Basic = d.Basic }
func (d *PhotoDraft) ApplyTo(p *Profile)    { p.Photo = d.Photo }
func (d *CompanyDraft) ApplyTo(p *Profile)  { p.Company = d.Company }
func (d *AddressDraft) ApplyTo(p *Profile)  { p.Address = d.Address }
func (d *IdentityDraft) ApplyTo(p *Profile) { p.Identity = d.Identity }

func (d *ContactsDraft) ApplyTo(p *Profile) {
	p.Contacts = append([]Contact{}, d.Contacts...)
}

func (d *ServicesDraft) ApplyTo(p *Profile) {
	p.Services = append([]string{}, d.Services...)
}

// DraftFrom seeds a draft from the saved profile.
func DraftFrom(p *Profile, s Section) Draft {
	switch s {
	case SectionBasic:
		return &BasicDraft{p.Basic}
	case SectionPhoto:
		return &PhotoDraft{p.Photo}
	case SectionCompany:
		return &CompanyDraft{p.Company}
	case SectionAddress:
		return &AddressDraft{p.Address}
	case SectionContacts:
		return &ContactsDraft{Contacts: append([]Contact{}, p.Contacts...)}
	case SectionServices:
		return &ServicesDraft{Services: append([]string{}, p.Services...)}
	case SectionIdentity:
		return &IdentityDraft{p.Identity}
	}
	return nil
}

// DecodeDraft parses a JSON body into the draft type for s.
func DecodeDraft(s Section, raw []byte) (Draft, error) {
	var d Draft
	switch s {
	case SectionBasic:
		d = &BasicDraft{}
	case SectionPhoto:
		d = &PhotoDraft{}
	case SectionCompany:
		d = &CompanyDraft{}
	case SectionAddress:
		d = &AddressDraft{}
	case SectionContacts:
		d = &ContactsDraft{}
	case SectionServices:
		d = &ServicesDraft{}
	case SectionIdentity:
		d = &IdentityDraft{}
	default:
		return nil, dErrors.Wrap(ErrUnknownSection, dErrors.CodeInvalidInput, fmt.Sprintf("unknown profile section %q", s))
	}
	if err := json.Unmarshal(raw, d); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return d, nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
