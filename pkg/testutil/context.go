package testutil

import (
	"net/http"

	"github.com/google/uuid"

	"permitflow/pkg/requestcontext"
)

// AsCitizen attaches a citizen identity to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func AsCitizen(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), userID, requestcontext.RoleCitizen))
}

// AsAdmin attaches an administrator identity to the request context.
func AsAdmin(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), userID, requestcontext.RoleAdmin))
}
