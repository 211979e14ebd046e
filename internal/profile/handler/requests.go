package handler

import (
	"strings"

	docmodels "vitrine/internal/document/models"
	dErrors "vitrine/pkg/domain-errors"
)

type ReviewRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

func (r *ReviewRequest) Normalize() {
	r.Action = strings.ToLower(strings.TrimSpace(r.Action))
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *ReviewRequest) Validate() error {
	return r.Decision("").Validate()
}

func (r *ReviewRequest) Decision(reviewer string) docmodels.Decision {
	return docmodels.Decision{
		Action:   docmodels.Action(r.Action),
		Reason:   r.Reason,
		Reviewer: reviewer,
	}
}

type PostalCodeRequest struct {
	PostalCode string `json:"postal_code"`
}

func (r *PostalCodeRequest) Validate() error {
	if len(r.PostalCode) > 16 {
		return dErrors.New(dErrors.CodeValidation, "postal_code must be at most 16 characters")
	}
	return nil
}
