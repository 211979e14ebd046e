package service

import (
	"context"
	"errors"

	"vitrine/internal/events"
	idmodels "vitrine/internal/identity/models"
	"vitrine/internal/identity/verifier"
	"vitrine/internal/profile/models"
	id "vitrine/pkg/domain"
	"vitrine/pkg/requestcontext"
)

// VerifyIdentity checks the current identity claim: the open draft if the
// identity section is being edited, the saved section otherwise. A result
// discarded because the claim changed mid-flight is not an error; the view
// shows the reset state instead.
func (s *Service) VerifyIdentity(ctx context.Context, userID id.UserID) (*View, error) {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	claim := sess.saved.Identity.Claim()
	if d, ok := sess.drafts[models.SectionIdentity].(*models.IdentityDraft); ok {
		claim = d.Identity.Claim()
	}
	sess.mu.Unlock()

	result, err := s.verifier.Verify(ctx, sess.profileID, claim)
	switch {
	case errors.Is(err, verifier.ErrResultDiscarded):
		s.logger.InfoContext(ctx, "identity result discarded after claim change",
			"request_id", requestcontext.RequestID(ctx),
			"profile_id", sess.profileID.String(),
		)
	case err != nil:
		return nil, err
	default:
		s.publish(ctx, events.TypeIdentityVerified, sess.profileID, map[string]any{
			"state": string(result.State),
		})
	}

	sess.mu.Lock()
	s.recomputeLocked(sess)
	sess.mu.Unlock()
	return s.view(sess), nil
}

// IdentityResult returns the current verification result for the user.
func (s *Service) IdentityResult(ctx context.Context, userID id.UserID) (idmodels.Result, error) {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return idmodels.Result{}, err
	}
	return s.verifier.Result(sess.profileID), nil
}
