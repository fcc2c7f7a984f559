package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"synapse/internal/transfer"
	dErrors "synapse/pkg/domain-errors"
	txcontext "synapse/pkg/platform/tx"
	"synapse/pkg/testutil"
)

type TransferHandlerSuite struct {
	suite.Suite
	router chi.Router
}

func TestTransferHandlerSuite(t *testing.T) {
	suite.Run(t, new(TransferHandlerSuite))
}

func (s *TransferHandlerSuite) SetupTest() {
	h := New(transfer.NewInMemoryBook(), txcontext.NewMemoryRunner(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	h.RegisterBootstrap(s.router)
	h.RegisterPublic(s.router)
}

func (s *TransferHandlerSuite) mint(body map[string]any) int {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/balances/mint", body))
	return rr.Code
}

func (s *TransferHandlerSuite) TestMintAccumulates() {
	s.Equal(http.StatusCreated, s.mint(map[string]any{"asset": "USDC", "account": "GBUYER", "amount": "600"}))
	s.Equal(http.StatusCreated, s.mint(map[string]any{"asset": "USDC", "account": "GBUYER", "amount": "400"}))

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/balances/USDC/GBUYER"))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "amount", "1000")
}

func (s *TransferHandlerSuite) TestUnknownAccountHasZeroBalance() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/balances/USDC/GNOBODY"))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "amount", "0")
}

func (s *TransferHandlerSuite) TestMintRejectsBadInput() {
	cases := []struct {
		name string
		body map[string]any
		code dErrors.Code
	}{
		{"missing asset", map[string]any{"account": "GBUYER", "amount": "1"}, dErrors.CodeValidation},
		{"missing account", map[string]any{"asset": "USDC", "amount": "1"}, dErrors.CodeBadRequest},
		{"zero amount", map[string]any{"asset": "USDC", "account": "GBUYER", "amount": "0"}, dErrors.CodeInvalidAmount},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/balances/mint", tc.body))
			testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(tc.code))
		})
	}
}
