package testutil

import (
	"context"
	"net/http"

	id "synapse/pkg/domain"
	"synapse/pkg/requestcontext"
)

// WithCaller adds the authenticated caller to the request context.
// This simulates what the auth middleware would do for signed requests.
// Blank accounts are ignored.
func WithCaller(req *http.Request, account string) *http.Request {
	caller, err := id.ParseAccountID(account)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
