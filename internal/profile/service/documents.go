package service

import (
	"context"
	"errors"

	docmodels "vitrine/internal/document/models"
	"vitrine/internal/document/gate"
	id "vitrine/pkg/domain"
	dErrors "vitrine/pkg/domain-errors"
	"vitrine/pkg/requestcontext"
)

// UploadDocument hands the file to the upload gate and refreshes the
// session's documents. An upload overtaken by a newer one for the same
// category is dropped without an error.
func (s *Service) UploadDocument(ctx context.Context, userID id.UserID, category docmodels.Category, file gate.FileCandidate) (*View, error) {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.gate.Submit(ctx, sess.profileID, file, category); err != nil {
		if !errors.Is(err, gate.ErrSuperseded) {
			return nil, err
		}
		s.logger.DebugContext(ctx, "superseded upload dropped",
			"request_id", requestcontext.RequestID(ctx),
			"profile_id", sess.profileID.String(),
			"category", string(category),
		)
	}
	if err := s.refreshDocuments(ctx, sess); err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

// ReviewDocument applies a reviewer decision. The profile's session, if one
// is loaded, picks up the new status.
func (s *Service) ReviewDocument(ctx context.Context, profileID id.ProfileID, category docmodels.Category, decision docmodels.Decision) (*docmodels.Record, error) {
	record, err := s.gate.Review(ctx, profileID, category, decision)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	sess, ok := s.byProfile[profileID]
	s.mu.Unlock()
	if ok {
		if err := s.refreshDocuments(ctx, sess); err != nil {
			s.logger.WarnContext(ctx, "failed to refresh documents after review",
				"request_id", requestcontext.RequestID(ctx),
				"profile_id", profileID.String(),
				"error", err,
			)
		}
	}
	return record, nil
}

// refreshDocuments rereads the profile's records. Reads race with each
// other, so only the most recently issued one is applied.
func (s *Service) refreshDocuments(ctx context.Context, sess *session) error {
	sess.mu.Lock()
	sess.docsSeq++
	seq := sess.docsSeq
	sess.mu.Unlock()

	records, err := s.gate.Records(ctx, sess.profileID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load documents")
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if seq != sess.docsSeq {
		return nil
	}
	sess.documents = records
	s.recomputeLocked(sess)
	return nil
}
