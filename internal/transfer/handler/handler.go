package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/filecoin-project/go-state-types/big"
	"github.com/go-chi/chi/v5"

	ledgermodels "synapse/internal/ledger/models"
	id "synapse/pkg/domain"
	dErrors "synapse/pkg/domain-errors"
	"synapse/pkg/platform/httputil"
	txcontext "synapse/pkg/platform/tx"
	"synapse/pkg/requestcontext"
)

// Book is the balance side of the transfer backend.
type Book interface {
	Mint(ctx context.Context, asset id.AssetRef, account id.AccountID, amount big.Int) error
	Balance(ctx context.Context, asset id.AssetRef, account id.AccountID) (big.Int, error)
}

type Handler struct {
	book   Book
	tx     txcontext.Runner
	logger *slog.Logger
}

// New builds the handler. Mints and balance reads go through tx so they never
// interleave with a running purchase.
func New(book Book, tx txcontext.Runner, logger *slog.Logger) *Handler {
	return &Handler{book: book, tx: tx, logger: logger}
}

// RegisterBootstrap mounts funding for local and staging deployments.
func (h *Handler) RegisterBootstrap(r chi.Router) {
	r.Post("/admin/balances/mint", h.HandleMint)
}

func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/balances/{asset}/{account}", h.HandleBalance)
}

func (h *Handler) RegisterAuthenticated(chi.Router) {}

type MintRequest struct {
	Asset   string `json:"asset"`
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type BalanceResponse struct {
	Asset   id.AssetRef  `json:"asset"`
	Account id.AccountID `json:"account"`
	Amount  big.Int      `json:"amount"`
}

type mintRequest struct {
	MintRequest
	asset   id.AssetRef
	account id.AccountID
	amount  big.Int
}

func (r *mintRequest) Validate() error {
	r.asset = id.AssetRef(strings.TrimSpace(r.Asset))
	if r.asset.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "asset is required")
	}
	account, err := id.ParseAccountID(r.Account)
	if err != nil {
		return err
	}
	amount, err := ledgermodels.ParseAmount(r.Amount)
	if err != nil {
		return err
	}
	if err := ledgermodels.ValidateAmount(amount); err != nil {
		return err
	}
	r.account, r.amount = account, amount
	return nil
}

func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[mintRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	err := h.tx.RunInTx(ctx, func(ctx context.Context) error {
		return h.book.Mint(ctx, req.asset, req.account, req.amount)
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "mint failed", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "balance minted",
		"request_id", requestID,
		"event", "balance_minted",
		"log_type", "audit",
		"asset", req.asset,
		"account", req.account,
		"amount", req.amount.String(),
	)
	h.writeBalance(w, r, req.asset, req.account, http.StatusCreated)
}

func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	asset := id.AssetRef(strings.TrimSpace(chi.URLParam(r, "asset")))
	if asset.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "asset is required"))
		return
	}
	account, err := id.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeBalance(w, r, asset, account, http.StatusOK)
}

func (h *Handler) writeBalance(w http.ResponseWriter, r *http.Request, asset id.AssetRef, account id.AccountID, status int) {
	var amount big.Int
	err := h.tx.View(r.Context(), func(ctx context.Context) error {
		var err error
		amount, err = h.book.Balance(ctx, asset, account)
		return err
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, status, BalanceResponse{Asset: asset, Account: account, Amount: amount})
}
