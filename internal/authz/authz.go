// Package authz answers one question for the marketplace: did the account a
// mutation acts for actually sign the request?
package authz

import (
	"context"

	id "synapse/pkg/domain"
	dErrors "synapse/pkg/domain-errors"
	"synapse/pkg/requestcontext"
)

// Authorizer proves that the current caller is the given account.
type Authorizer interface {
	RequireCaller(ctx context.Context, account id.AccountID) error
}

// ContextAuthorizer trusts the caller placed in the context by the auth
// middleware after it verified the bearer token.
type ContextAuthorizer struct{}

func NewContextAuthorizer() ContextAuthorizer {
	return ContextAuthorizer{}
}

func (ContextAuthorizer) RequireCaller(ctx context.Context, account id.AccountID) error {
	caller := requestcontext.Caller(ctx)
	if caller.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "request is not signed")
	}
	if account.IsNil() || caller != account {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not "+account.String())
	}
	return nil
}

// Func adapts a function to Authorizer.
type Func func(ctx context.Context, account id.AccountID) error

func (f Func) RequireCaller(ctx context.Context, account id.AccountID) error {
	return f(ctx, account)
}

// AllowAll approves every request. Intended for tests and local tooling.
var AllowAll Authorizer = Func(func(context.Context, id.AccountID) error { return nil })
