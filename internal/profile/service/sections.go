package service

import (
	"context"
	"errors"

	"vitrine/internal/events"
	"vitrine/internal/profile/models"
	id "vitrine/pkg/domain"
	dErrors "vitrine/pkg/domain-errors"
	"vitrine/pkg/platform/sentinel"
	"vitrine/pkg/requestcontext"
)

// Edit puts a section into editing mode with a draft seeded from the saved
// profile. Editing a section that is already open keeps its draft.
func (s *Service) Edit(ctx context.Context, userID id.UserID, section models.Section) (*View, error) {
	if !section.IsValid() {
		return nil, unknownSection(section)
	}
	sess, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	if _, ok := sess.drafts[section]; !ok {
		sess.drafts[section] = models.DraftFrom(sess.saved, section)
		if section == models.SectionAddress {
			sess.addressNotice = ""
		}
	}
	s.recomputeLocked(sess)
	sess.mu.Unlock()
	return s.view(sess), nil
}

// UpdateDraft replaces the open draft of a section. Nothing is validated or
// persisted until Save.
func (s *Service) UpdateDraft(ctx context.Context, userID id.UserID, draft models.Draft) (*View, error) {
	if draft == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "draft is required")
	}
	section := draft.Section()
	sess, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}
	draft.Normalize()

	if section == models.SectionIdentity {
		sess.claimMu.Lock()
		defer sess.claimMu.Unlock()
	}
	sess.mu.Lock()
	if _, ok := sess.drafts[section]; !ok {
		sess.mu.Unlock()
		return nil, notEditing(section)
	}
	sess.drafts[section] = draft
	s.recomputeLocked(sess)
	sess.mu.Unlock()

	if d, ok := draft.(*models.IdentityDraft); ok {
		s.verifier.ObserveClaim(sess.profileID, d.Identity.Claim())
	}
	return s.view(sess), nil
}

// Save validates the section draft and persists the whole profile. A
// validation or storage failure leaves the section in editing mode with its
// draft intact.
func (s *Service) Save(ctx context.Context, userID id.UserID, section models.Section) (*View, error) {
	if !section.IsValid() {
		return nil, unknownSection(section)
	}
	sess, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}
	if section == models.SectionIdentity {
		sess.claimMu.Lock()
		defer sess.claimMu.Unlock()
	}

	sess.mu.Lock()
	draft, ok := sess.drafts[section]
	if !ok {
		sess.mu.Unlock()
		return nil, notEditing(section)
	}
	if err := draft.Validate(); err != nil {
		sess.mu.Unlock()
		s.countSave(section, "invalid")
		return nil, err
	}
	next := sess.saved.Clone()
	draft.ApplyTo(next)
	next.Version++
	next.UpdatedAt = s.timestamp(ctx)
	if err := s.store.Save(ctx, next); err != nil {
		sess.mu.Unlock()
		s.countSave(section, "error")
		return nil, saveError(err)
	}
	sess.saved = next
	delete(sess.drafts, section)
	s.recomputeLocked(sess)
	percentage := sess.completeness.Percentage
	claim := next.Identity.Claim()
	sess.mu.Unlock()

	if section == models.SectionIdentity {
		s.verifier.ObserveClaim(sess.profileID, claim)
	}
	s.countSave(section, "saved")
	if s.metrics != nil {
		s.metrics.ObserveCompleteness(percentage)
	}
	s.logger.InfoContext(ctx, "profile section saved",
		"request_id", requestcontext.RequestID(ctx),
		"profile_id", sess.profileID.String(),
		"section", string(section),
		"version", next.Version,
		"completeness", percentage,
	)
	s.publish(ctx, events.TypeSectionSaved, sess.profileID, map[string]any{
		"section":      string(section),
		"version":      next.Version,
		"completeness": percentage,
	})
	return s.view(sess), nil
}

// Cancel discards the section draft, reverting it to the saved profile.
// Other sections are untouched.
func (s *Service) Cancel(ctx context.Context, userID id.UserID, section models.Section) (*View, error) {
	if !section.IsValid() {
		return nil, unknownSection(section)
	}
	sess, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}
	if section == models.SectionIdentity {
		sess.claimMu.Lock()
		defer sess.claimMu.Unlock()
	}
	sess.mu.Lock()
	if _, ok := sess.drafts[section]; !ok {
		sess.mu.Unlock()
		return nil, notEditing(section)
	}
	delete(sess.drafts, section)
	if section == models.SectionAddress {
		sess.addressNotice = ""
	}
	s.recomputeLocked(sess)
	claim := sess.saved.Identity.Claim()
	sess.mu.Unlock()

	if section == models.SectionIdentity {
		s.verifier.ObserveClaim(sess.profileID, claim)
	}
	return s.view(sess), nil
}

func (s *Service) countSave(section models.Section, outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementSectionSave(string(section), outcome)
	}
}

func saveError(err error) error {
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.Wrap(err, dErrors.CodeConflict, "profile was changed by another session, reload and try again")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save profile")
}

func unknownSection(section models.Section) error {
	return dErrors.Wrap(models.ErrUnknownSection, dErrors.CodeInvalidInput, "unknown profile section "+string(section))
}
