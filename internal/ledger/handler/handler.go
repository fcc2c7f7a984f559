package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/filecoin-project/go-state-types/big"
	"github.com/go-chi/chi/v5"

	"synapse/internal/ledger/models"
	id "synapse/pkg/domain"
	"synapse/pkg/platform/httputil"
	"synapse/pkg/requestcontext"
)

// Service defines the purchase operations exposed over HTTP.
type Service interface {
	ExecutePurchase(ctx context.Context, buyer id.AccountID, planID id.PlanID, amount big.Int) (*models.PurchaseRecord, error)
	PurchasesFor(ctx context.Context, planID id.PlanID) ([]models.PurchaseRecord, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/plans/{planID}/purchases", h.HandlePurchase)
}

func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/plans/{planID}/purchases", h.HandleListPurchases)
}

type purchaseRequest struct {
	models.PurchaseRequest
	buyer  id.AccountID
	amount big.Int
}

func (r *purchaseRequest) Validate() error {
	amount, err := models.ParseAmount(r.Amount)
	if err != nil {
		return err
	}
	if err := models.ValidateAmount(amount); err != nil {
		return err
	}
	r.amount = amount
	if r.Buyer != "" {
		if r.buyer, err = id.ParseAccountID(r.Buyer); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	planID, err := id.ParsePlanID(chi.URLParam(r, "planID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[purchaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	buyer := req.buyer
	if buyer.IsNil() {
		buyer = requestcontext.Caller(ctx)
	}

	record, err := h.service.ExecutePurchase(ctx, buyer, planID, req.amount)
	if err != nil {
		h.logger.WarnContext(ctx, "purchase failed",
			"request_id", requestID,
			"plan_id", planID,
			"buyer", buyer,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, record)
}

func (h *Handler) HandleListPurchases(w http.ResponseWriter, r *http.Request) {
	planID, err := id.ParsePlanID(chi.URLParam(r, "planID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	records, err := h.service.PurchasesFor(r.Context(), planID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.PurchasesResponse{PlanID: planID, Purchases: records})
}
