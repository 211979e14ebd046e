package testutil

import (
	"net/http"

	id "vitrine/pkg/domain"
	"vitrine/pkg/requestcontext"
)

// WithUserID adds a user ID to the request context.
// This simulates what the auth middleware would do for authenticated requests.
// If the userID is not a valid UUID, it will not be added to the context.
func WithUserID(req *http.Request, userID string) *http.Request {
	if parsedUserID, err := id.ParseUserID(userID); err == nil {
		return req.WithContext(requestcontext.WithUserID(req.Context(), parsedUserID))
	}
	return req
}

// WithReviewer adds a user ID and the reviewer role to the request context.
func WithReviewer(req *http.Request, userID string) *http.Request {
	req = WithUserID(req, userID)
	return req.WithContext(requestcontext.WithRoles(req.Context(), []string{requestcontext.RoleReviewer}))
}
