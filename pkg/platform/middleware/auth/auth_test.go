package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	id "synapse/pkg/domain"
	"synapse/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (*JWTClaims, error) { return s.claims, s.err }

type stubRevocations struct {
	revoked bool
	err     error
}

func (s stubRevocations) IsTokenRevoked(context.Context, string) (bool, error) { return s.revoked, s.err }

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	valid := stubValidator{claims: &JWTClaims{Account: "GALICE", JTI: "jti-1"}}

	var caller id.AccountID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller = requestcontext.Caller(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	cases := []struct {
		name       string
		header     string
		validator  JWTValidator
		revocation TokenRevocationChecker
		status     int
		caller     id.AccountID
	}{
		{"valid token sets caller", "Bearer good", valid, nil, http.StatusOK, "GALICE"},
		{"missing header", "", valid, nil, http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", valid, nil, http.StatusUnauthorized, ""},
		{"invalid token", "Bearer bad", stubValidator{err: errors.New("bad")}, nil, http.StatusUnauthorized, ""},
		{"revoked token", "Bearer good", valid, stubRevocations{revoked: true}, http.StatusUnauthorized, ""},
		{"revocation lookup fails", "Bearer good", valid, stubRevocations{err: errors.New("redis down")}, http.StatusInternalServerError, ""},
		{"not revoked", "Bearer good", valid, stubRevocations{}, http.StatusOK, "GALICE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			caller = ""
			req := httptest.NewRequest(http.MethodPost, "/plans", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			RequireAuth(tc.validator, tc.revocation, logger)(next).ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.caller, caller)
		})
	}
}
