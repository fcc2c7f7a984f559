package authz

//go:generate mockgen -source=authz.go -destination=mocks/mocks.go -package=mocks Authorizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "synapse/pkg/domain-errors"
	"synapse/pkg/requestcontext"
	"synapse/pkg/testutil"
)

func TestContextAuthorizer(t *testing.T) {
	a := NewContextAuthorizer()

	testutil.Given(t, "an anonymous request", func(t *testing.T) {
		err := a.RequireCaller(context.Background(), "GALICE")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	testutil.Given(t, "a request signed by alice", func(t *testing.T) {
		ctx := requestcontext.WithCaller(context.Background(), "GALICE")

		testutil.When(t, "acting for alice", func(t *testing.T) {
			testutil.Then(t, "it is allowed", func(t *testing.T) {
				assert.NoError(t, a.RequireCaller(ctx, "GALICE"))
			})
		})

		testutil.When(t, "acting for bob", func(t *testing.T) {
			testutil.Then(t, "it is rejected", func(t *testing.T) {
				err := a.RequireCaller(ctx, "GBOB")
				assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
			})
		})

		testutil.When(t, "acting for nobody", func(t *testing.T) {
			testutil.Then(t, "it is rejected", func(t *testing.T) {
				err := a.RequireCaller(ctx, "")
				assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
			})
		})
	})
}
