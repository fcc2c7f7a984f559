package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"synapse/internal/settings/handler/mocks"
	"synapse/internal/settings/models"
	id "synapse/pkg/domain"
	dErrors "synapse/pkg/domain-errors"
	"synapse/pkg/testutil"
)

type SettingsHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestSettingsHandlerSuite(t *testing.T) {
	suite.Run(t, new(SettingsHandlerSuite))
}

func (s *SettingsHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	h.RegisterBootstrap(s.router)
	h.RegisterAuthenticated(s.router)
	h.RegisterPublic(s.router)
}

func (s *SettingsHandlerSuite) TestInitialize() {
	s.Run("creates configuration", func() {
		cfg := &models.Configuration{Admin: "GADMIN", Operator: "GOP", ContributorSharePct: 70, PaymentAsset: "USDC"}
		s.service.EXPECT().
			Initialize(gomock.Any(), id.AccountID("GADMIN"), id.AccountID("GOP"), uint32(70), id.AssetRef("USDC")).
			Return(cfg, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/initialize", map[string]any{
			"admin": " GADMIN ", "operator": "GOP", "contributor_share_pct": 70, "payment_asset": "USDC",
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		testutil.AssertJSONContains(s.T(), rr, "contributor_share_pct", float64(70))
	})

	s.Run("missing operator is a validation error", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/initialize", map[string]any{
			"admin": "GADMIN", "payment_asset": "USDC",
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("second initialize conflicts", func() {
		s.service.EXPECT().Initialize(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeAlreadyInitialized, "marketplace is already initialized"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/initialize", map[string]any{
			"admin": "GADMIN", "operator": "GOP", "contributor_share_pct": 70, "payment_asset": "USDC",
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "already_initialized")
	})
}

func (s *SettingsHandlerSuite) TestSetOperator() {
	s.Run("non-admin is forbidden", func() {
		s.service.EXPECT().SetOperator(gomock.Any(), id.AccountID("GNEW")).
			Return(dErrors.New(dErrors.CodeUnauthorized, "caller is not GADMIN"))

		req := testutil.WithCaller(testutil.NewJSONRequest(s.T(), http.MethodPut, "/admin/operator", map[string]string{"operator": "GNEW"}), "GMALLORY")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "unauthorized")
	})

	s.Run("admin replaces operator", func() {
		s.service.EXPECT().SetOperator(gomock.Any(), id.AccountID("GNEW")).Return(nil)
		s.service.EXPECT().Configuration(gomock.Any()).
			Return(&models.Configuration{Admin: "GADMIN", Operator: "GNEW"}, nil)

		req := testutil.WithCaller(testutil.NewJSONRequest(s.T(), http.MethodPut, "/admin/operator", map[string]string{"operator": "GNEW"}), "GADMIN")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "operator", "GNEW")
	})
}

func (s *SettingsHandlerSuite) TestReads() {
	s.Run("stats", func() {
		s.service.EXPECT().Stats(gomock.Any()).Return(models.Stats{TotalPlans: 3, TotalPurchases: 5}, nil)
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/stats"))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "total_purchases", float64(5))
	})

	s.Run("config before initialize", func() {
		s.service.EXPECT().Configuration(gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeNotInitialized, "marketplace is not initialized"))
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/config"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, "not_initialized")
	})
}
