package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	jwttoken "synapse/internal/jwt_token"
	"synapse/internal/platform/config"
	tokenshandler "synapse/internal/tokens/handler"
	adminmw "synapse/pkg/platform/middleware/admin"
	"synapse/pkg/testutil"
)

const (
	adminToken = "test-bootstrap-token"
	hashA      = "1111111111111111111111111111111111111111111111111111111111111111"
	hashB      = "2222222222222222222222222222222222222222222222222222222222222222"
)

// MarketplaceFlowSuite drives the in-memory deployment through its HTTP API.
type MarketplaceFlowSuite struct {
	suite.Suite
	app    *app
	logger *slog.Logger
	cfg    config.Server
}

func TestMarketplaceFlowSuite(t *testing.T) {
	suite.Run(t, new(MarketplaceFlowSuite))
}

func (s *MarketplaceFlowSuite) SetupSuite() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.cfg = config.Server{
		AdminAPIToken: adminToken,
		JWT:           config.JWTConfig{SigningKey: "test-key", Issuer: "synapse", Audience: "synapse-api"},
		Marketplace: config.MarketplaceConfig{
			Admin:        "GADMIN",
			Operator:     "GOPERATOR",
			SharePct:     70,
			PaymentAsset: "USDC",
		},
	}
	a, err := newApp(context.Background(), s.cfg, s.logger, newServiceMetrics())
	s.Require().NoError(err)
	s.app = a
	s.Require().NoError(s.app.bootstrapMarketplace(context.Background(), s.cfg.Marketplace, s.logger))
}

func (s *MarketplaceFlowSuite) TearDownSuite() {
	s.app.Close()
}

func (s *MarketplaceFlowSuite) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.app.handler, req)
}

func (s *MarketplaceFlowSuite) admin(method, path string, body any) *httptest.ResponseRecorder {
	req := testutil.NewJSONRequest(s.T(), method, path, body)
	req.Header.Set(adminmw.HeaderAdminToken, adminToken)
	return s.do(req)
}

func (s *MarketplaceFlowSuite) token(account string) string {
	rr := s.admin(http.MethodPost, "/admin/tokens", map[string]any{"account": account})
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	return testutil.UnmarshalResponse[tokenshandler.IssueResponse](s.T(), rr).AccessToken
}

func (s *MarketplaceFlowSuite) signed(token, method, path string, body any) *httptest.ResponseRecorder {
	req := testutil.NewJSONRequest(s.T(), method, path, body)
	req.Header.Set("Authorization", "Bearer "+token)
	return s.do(req)
}

func (s *MarketplaceFlowSuite) TestBootstrapIsIdempotent() {
	s.Require().NoError(s.app.bootstrapMarketplace(context.Background(), s.cfg.Marketplace, s.logger))

	rr := s.admin(http.MethodPost, "/admin/initialize", map[string]any{
		"admin": "GOTHER", "operator": "GOTHER", "contributor_share_pct": 10, "payment_asset": "USDC",
	})
	testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "already_initialized")

	rr = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/config"))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "admin", "GADMIN")
	testutil.AssertJSONContains(s.T(), rr, "contributor_share_pct", float64(70))
}

func (s *MarketplaceFlowSuite) TestPublishPurchaseAndSplit() {
	contributor := s.token("GFLOWCONTRIB")
	buyer := s.token("GFLOWBUYER")
	planID := uuid.NewString()

	rr := s.signed(contributor, http.MethodPost, "/plans", map[string]any{
		"id":           planID,
		"title":        "Outbox relay with backpressure",
		"content_hash": hashA,
		"tags":         []string{"go", "kafka"},
	})
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	testutil.AssertJSONContains(s.T(), rr, "contributor", "GFLOWCONTRIB")

	rr = s.signed(contributor, http.MethodPost, "/plans", map[string]any{
		"id": uuid.NewString(), "title": "Same content again", "content_hash": hashA,
	})
	testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "duplicate_content")

	rr = s.admin(http.MethodPost, "/admin/balances/mint", map[string]any{
		"asset": "USDC", "account": "GFLOWBUYER", "amount": "10000000",
	})
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)

	rr = s.signed(buyer, http.MethodPost, "/plans/"+planID+"/purchases", map[string]any{"amount": "10000000"})
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	testutil.AssertJSONContains(s.T(), rr, "contributor_share", "7000000")
	testutil.AssertJSONContains(s.T(), rr, "operator_share", "3000000")

	for account, want := range map[string]string{"GFLOWBUYER": "0", "GFLOWCONTRIB": "7000000"} {
		rr = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/balances/USDC/"+account))
		testutil.AssertJSONContains(s.T(), rr, "amount", want)
	}

	rr = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/plans/"+planID))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "purchase_count", float64(1))
	testutil.AssertJSONContains(s.T(), rr, "tier", "hot")

	rr = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/content/"+hashA))
	testutil.AssertJSONContains(s.T(), rr, "exists", true)

	rr = s.signed(buyer, http.MethodPost, "/plans/"+planID+"/purchases", map[string]any{"amount": "1"})
	testutil.AssertStatusAndError(s.T(), rr, http.StatusPaymentRequired, "transfer_failed")
}

func (s *MarketplaceFlowSuite) TestRetierIsAdminOrContributorOnly() {
	contributor := s.token("GRETIERCONTRIB")
	stranger := s.token("GSTRANGER")
	planID := uuid.NewString()

	rr := s.signed(contributor, http.MethodPost, "/plans", map[string]any{
		"id": planID, "title": "Bulkhead isolation", "content_hash": hashB,
	})
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)

	rr = s.signed(stranger, http.MethodPut, "/plans/"+planID+"/tier", map[string]any{"tier": "archive"})
	testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "unauthorized")

	rr = s.signed(contributor, http.MethodPut, "/plans/"+planID+"/tier", map[string]any{"tier": "cold"})
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "tier", "cold")

	rr = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/contributors/GRETIERCONTRIB/plans"))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "plan_ids", []any{planID})
}

func (s *MarketplaceFlowSuite) TestRevokedTokenIsRejected() {
	token := s.token("GREVOKED")
	claims, err := newJWTForTest(s.cfg).ValidateToken(token)
	s.Require().NoError(err)

	rr := s.admin(http.MethodPost, "/admin/tokens/revoke", map[string]any{"jti": claims.ID})
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)

	rr = s.signed(token, http.MethodPost, "/plans", map[string]any{
		"id": uuid.NewString(), "title": "never stored", "content_hash": hashB,
	})
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthenticated")
}

func newJWTForTest(cfg config.Server) *jwttoken.JWTService {
	return jwttoken.NewJWTService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)
}
