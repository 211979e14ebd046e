// Package models defines the document lifecycle: the closed category catalog,
// record statuses and the reviewer transition.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	id "vitrine/pkg/domain"
	dErrors "vitrine/pkg/domain-errors"
)

// Category is the closed set of document kinds a profile can submit.
type Category string

const (
	CategoryTaxRegistration         Category = "tax-registration"
	CategoryArticlesOfIncorporation Category = "articles-of-incorporation"
	CategoryProofOfAddress          Category = "proof-of-address"
	CategoryTradeReferences         Category = "trade-references"
	CategoryOther                   Category = "other"
)

// CategoryInfo describes a category for display and requirement checks.
type CategoryInfo struct {
	Category Category `json:"category"`
	Label    string   `json:"label"`
	Required bool     `json:"required"`
}

// catalog is ordered for display; each category appears exactly once.
var catalog = []CategoryInfo{
	{Category: CategoryTaxRegistration, Label: "Tax registration certificate", Required: true},
	{Category: CategoryArticlesOfIncorporation, Label: "Articles of incorporation", Required: true},
	{Category: CategoryProofOfAddress, Label: "Proof of address", Required: true},
	{Category: CategoryTradeReferences, Label: "Trade references", Required: false},
	{Category: CategoryOther, Label: "Other documents", Required: false},
}

var ErrUnknownCategory = errors.New("unknown document category")

// Categories returns the catalog in display order.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, len(catalog))
	copy(out, catalog)
	return out
}

func (c Category) info() (CategoryInfo, bool) {
	for _, info := range catalog {
		if info.Category == c {
			return info, true
		}
	}
	return CategoryInfo{}, false
}

func (c Category) IsValid() bool {
	_, ok := c.info()
	return ok
}

func (c Category) Required() bool {
	info, _ := c.info()
	return info.Required
}

func (c Category) Label() string {
	info, _ := c.info()
	return info.Label
}

func (c Category) String() string { return string(c) }

// ParseCategory validates a category at a trust boundary.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(strings.ToLower(s)))
	if !c.IsValid() {
		return "", dErrors.Wrap(ErrUnknownCategory, dErrors.CodeInvalidInput, fmt.Sprintf("unknown document category %q", s))
	}
	return c, nil
}

// Status is the review state of a document slot.
type Status string

const (
	StatusPending     Status = "pending"
	StatusUnderReview Status = "under-review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
)

// CountsAsSubmitted reports whether a document in this status satisfies the
// "at least one document" completeness check.
func (s Status) CountsAsSubmitted() bool {
	return s == StatusUnderReview || s == StatusApproved
}

func (s Status) String() string { return string(s) }

var ErrInvalidTransition = errors.New("invalid document status transition")

// Record is the single active document for a (profile, category) pair.
// Upload metadata never changes after creation; a new upload produces a new Record.
type Record struct {
	ID              id.DocumentID `json:"id"`
	ProfileID       id.ProfileID  `json:"profile_id"`
	Category        Category      `json:"category"`
	Status          Status        `json:"status"`
	FileName        string        `json:"file_name"`
	SizeBytes       int64         `json:"size_bytes"`
	MimeType        string        `json:"mime_type"`
	UploadedAt      time.Time     `json:"uploaded_at"`
	StorageURL      string        `json:"storage_url,omitempty"`
	UploadedFrom    string        `json:"uploaded_from,omitempty"`
	ReviewedAt      *time.Time    `json:"reviewed_at,omitempty"`
	ReviewedBy      string        `json:"reviewed_by,omitempty"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
}

// Action is a reviewer's verdict.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Decision is the reviewer input for a status transition.
type Decision struct {
	Action   Action
	Reason   string
	Reviewer string
}

// Validate checks the decision shape before any store access.
func (d Decision) Validate() error {
	switch d.Action {
	case ActionApprove:
		return nil
	case ActionReject:
		if strings.TrimSpace(d.Reason) == "" {
			return dErrors.New(dErrors.CodeValidation, "rejection reason is required")
		}
		return nil
	default:
		return dErrors.New(dErrors.CodeValidation, "action must be one of [approve reject]")
	}
}

// ApplyReview moves an under-review record to approved or rejected.
// Any other starting status is rejected with ErrInvalidTransition.
func (r *Record) ApplyReview(d Decision, now time.Time) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if r.Status != StatusUnderReview {
		return dErrors.Wrap(ErrInvalidTransition, dErrors.CodeInvalidState,
			fmt.Sprintf("document is %s, only under-review documents can be reviewed", r.Status))
	}
	reviewedAt := now
	r.ReviewedAt = &reviewedAt
	r.ReviewedBy = d.Reviewer
	if d.Action == ActionApprove {
		r.Status = StatusApproved
		r.RejectionReason = ""
	} else {
		r.Status = StatusRejected
		r.RejectionReason = strings.TrimSpace(d.Reason)
	}
	return nil
}

// Slot is one catalog entry joined with its active record, if any.
type Slot struct {
	CategoryInfo
	Status Status  `json:"status"`
	Record *Record `json:"record,omitempty"`
}

// Slots lays the catalog over the given records; categories without a record
// are reported as pending. Nil records are skipped.
func Slots(records []*Record) []Slot {
	byCategory := make(map[Category]*Record, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		byCategory[r.Category] = r
	}
	slots := make([]Slot, 0, len(catalog))
	for _, info := range catalog {
		slot := Slot{CategoryInfo: info, Status: StatusPending}
		if r, ok := byCategory[info.Category]; ok {
			slot.Status = r.Status
			slot.Record = r
		}
		slots = append(slots, slot)
	}
	return slots
}

// MissingRequired lists required categories without an under-review or
// approved record, in catalog order.
func MissingRequired(records []*Record) []Category {
	var missing []Category
	for _, slot := range Slots(records) {
		if slot.Required && !slot.Status.CountsAsSubmitted() {
			missing = append(missing, slot.Category)
		}
	}
	return missing
}
