package service

import (
	"context"
	"errors"

	"vitrine/internal/address/assistant"
	"vitrine/internal/address/lookup"
	"vitrine/internal/profile/models"
	id "vitrine/pkg/domain"
	pkgstrings "vitrine/pkg/platform/strings"
	"vitrine/pkg/requestcontext"
)

// PostalCodeInput records a change to the address draft's postal code and
// lets the session's assistant debounce a lookup.
func (s *Service) PostalCodeInput(ctx context.Context, userID id.UserID, raw string) (*View, error) {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.setDraftPostalCode(sess, raw); err != nil {
		return nil, err
	}
	sess.assistant.Input(raw)
	return s.view(sess), nil
}

// ResolvePostalCode looks the code up immediately. Lookup failures are
// reported through the view's address notice, never as an error.
func (s *Service) ResolvePostalCode(ctx context.Context, userID id.UserID, code string) (*View, error) {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.setDraftPostalCode(sess, code); err != nil {
		return nil, err
	}
	if _, err := sess.assistant.Resolve(ctx, code); err != nil && !errors.Is(err, assistant.ErrSuperseded) {
		s.logger.InfoContext(ctx, "postal code not resolved",
			"request_id", requestcontext.RequestID(ctx),
			"profile_id", sess.profileID.String(),
			"error", err,
		)
	}
	return s.view(sess), nil
}

// LookupPostalCode resolves a code without touching any session.
func (s *Service) LookupPostalCode(ctx context.Context, code string) (*lookup.Address, error) {
	normalized, err := lookup.NormalizePostalCode(code)
	if err != nil {
		return nil, err
	}
	return s.lookup.Lookup(ctx, normalized)
}

func (s *Service) setDraftPostalCode(sess *session, raw string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	d, ok := sess.drafts[models.SectionAddress].(*models.AddressDraft)
	if !ok {
		return notEditing(models.SectionAddress)
	}
	d.PostalCode = postalCodeField(raw)
	sess.addressNotice = ""
	return nil
}

// resolutionSink applies assistant results to the session's address draft.
// It runs under the assistant's lock, then takes the session lock. A result
// for a code that no longer matches the draft is dropped.
func (s *Service) resolutionSink(sess *session) assistant.Sink {
	return func(ctx context.Context, r assistant.Resolution) {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		d, ok := sess.drafts[models.SectionAddress].(*models.AddressDraft)
		if !ok || pkgstrings.DigitsOnly(d.PostalCode) != r.PostalCode {
			return
		}
		if r.Address == nil {
			sess.addressNotice = r.Message
			return
		}
		d.Street = r.Address.Street
		d.Neighborhood = r.Address.Neighborhood
		d.City = r.Address.City
		d.State = r.Address.State
		sess.addressNotice = ""
		s.recomputeLocked(sess)
	}
}

func postalCodeField(raw string) string {
	if digits := pkgstrings.DigitsOnly(raw); digits != "" {
		return digits
	}
	return raw
}
