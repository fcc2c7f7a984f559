package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Issuer,Revoker

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"synapse/internal/tokens/handler/mocks"
	id "synapse/pkg/domain"
	dErrors "synapse/pkg/domain-errors"
	"synapse/pkg/testutil"
)

type TokensHandlerSuite struct {
	suite.Suite
	issuer  *mocks.MockIssuer
	revoker *mocks.MockRevoker
	router  chi.Router
}

func TestTokensHandlerSuite(t *testing.T) {
	suite.Run(t, new(TokensHandlerSuite))
}

func (s *TokensHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.issuer = mocks.NewMockIssuer(ctrl)
	s.revoker = mocks.NewMockRevoker(ctrl)
	s.router = chi.NewRouter()
	New(s.issuer, s.revoker, slog.New(slog.NewTextHandler(io.Discard, nil))).RegisterBootstrap(s.router)
}

func (s *TokensHandlerSuite) TestIssue() {
	s.Run("defaults to a one hour token", func() {
		s.issuer.EXPECT().GenerateAccessToken(id.AccountID("GCONTRIB"), time.Hour).Return("signed", nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/tokens",
			map[string]any{"account": " GCONTRIB "}))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		resp := testutil.UnmarshalResponse[IssueResponse](s.T(), rr)
		s.Equal("signed", resp.AccessToken)
		s.Equal("Bearer", resp.TokenType)
		s.Equal(int64(3600), resp.ExpiresIn)
	})

	s.Run("honors an explicit ttl", func() {
		s.issuer.EXPECT().GenerateAccessToken(id.AccountID("GBUYER"), 5*time.Minute).Return("short", nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/tokens",
			map[string]any{"account": "GBUYER", "ttl_seconds": 300}))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		testutil.AssertJSONContains(s.T(), rr, "expires_in", float64(300))
	})

	s.Run("rejects a missing account", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/tokens",
			map[string]any{}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	s.Run("rejects a ttl beyond one day", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/tokens",
			map[string]any{"account": "GBUYER", "ttl_seconds": 86401}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})
}

func (s *TokensHandlerSuite) TestRevoke() {
	s.Run("revokes the jti", func() {
		s.revoker.EXPECT().RevokeToken(gomock.Any(), "jti-1", 2*time.Hour).Return(nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/tokens/revoke",
			map[string]any{"jti": "jti-1", "ttl_seconds": 7200}))

		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("requires a jti", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/tokens/revoke",
			map[string]any{"jti": "  "}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("surfaces store failures", func() {
		s.revoker.EXPECT().RevokeToken(gomock.Any(), "jti-2", time.Hour).Return(errors.New("redis down"))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/tokens/revoke",
			map[string]any{"jti": "jti-2"}))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
	})
}
