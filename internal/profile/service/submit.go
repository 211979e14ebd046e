package service

import (
	"context"

	"vitrine/internal/events"
	idmodels "vitrine/internal/identity/models"
	"vitrine/internal/profile/models"
	id "vitrine/pkg/domain"
	dErrors "vitrine/pkg/domain-errors"
	"vitrine/pkg/requestcontext"
)

// SubmitAccount marks the profile submitted. The identity claim must have
// been verified as valid and no section may be open for editing. claimMu is
// held from the identity check to the commit so no claim change lands in
// between.
func (s *Service) SubmitAccount(ctx context.Context, userID id.UserID) (*View, error) {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}
	sess.claimMu.Lock()
	defer sess.claimMu.Unlock()
	identity := s.verifier.Result(sess.profileID)

	sess.mu.Lock()
	switch {
	case sess.saved.Status == models.StatusSubmitted:
		sess.mu.Unlock()
		return nil, dErrors.New(dErrors.CodeInvalidState, "account already submitted")
	case len(sess.drafts) > 0:
		sess.mu.Unlock()
		return nil, dErrors.New(dErrors.CodeInvalidState, "save or cancel the sections being edited before submitting")
	case identity.State != idmodels.StateValid:
		sess.mu.Unlock()
		s.countSubmission("blocked")
		s.logger.InfoContext(ctx, "account submission blocked",
			"request_id", requestcontext.RequestID(ctx),
			"profile_id", sess.profileID.String(),
			"identity_state", string(identity.State),
		)
		return nil, dErrors.New(dErrors.CodePolicyViolation, "identity must be verified before submitting the account")
	}

	now := s.timestamp(ctx)
	next := sess.saved.Clone()
	next.Status = models.StatusSubmitted
	next.SubmittedAt = &now
	next.UpdatedAt = now
	next.Version++
	if err := s.store.Save(ctx, next); err != nil {
		sess.mu.Unlock()
		s.countSubmission("error")
		return nil, saveError(err)
	}
	sess.saved = next
	s.recomputeLocked(sess)
	state := sess.completeness
	sess.mu.Unlock()

	s.countSubmission("submitted")
	s.logger.InfoContext(ctx, "account submitted",
		"request_id", requestcontext.RequestID(ctx),
		"profile_id", sess.profileID.String(),
		"completeness", state.Percentage,
	)
	s.publish(ctx, events.TypeAccountSubmitted, sess.profileID, map[string]any{
		"completeness":   state.Percentage,
		"verified_badge": state.VerifiedBadge,
	})
	return s.view(sess), nil
}

func (s *Service) countSubmission(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementSubmission(outcome)
	}
}
