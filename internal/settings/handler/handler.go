package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"synapse/internal/settings/models"
	id "synapse/pkg/domain"
	dErrors "synapse/pkg/domain-errors"
	"synapse/pkg/platform/httputil"
	"synapse/pkg/requestcontext"
)

// Service defines the settings operations exposed over HTTP.
type Service interface {
	Initialize(ctx context.Context, admin, operator id.AccountID, sharePct uint32, asset id.AssetRef) (*models.Configuration, error)
	SetOperator(ctx context.Context, operator id.AccountID) error
	Configuration(ctx context.Context) (*models.Configuration, error)
	Stats(ctx context.Context) (models.Stats, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterBootstrap mounts the deployment bootstrap endpoint. Callers guard
// the router with the admin token middleware.
func (h *Handler) RegisterBootstrap(r chi.Router) {
	r.Post("/admin/initialize", h.HandleInitialize)
}

// RegisterAuthenticated mounts endpoints that need a signed caller.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Put("/admin/operator", h.HandleSetOperator)
}

// RegisterPublic mounts read-only endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/config", h.HandleGetConfig)
	r.Get("/stats", h.HandleGetStats)
}

type initializeRequest struct {
	models.InitializeRequest
	admin    id.AccountID
	operator id.AccountID
	asset    id.AssetRef
}

func (r *initializeRequest) Validate() error {
	var err error
	if r.admin, err = id.ParseAccountID(r.Admin); err != nil {
		return dErrors.New(dErrors.CodeValidation, "admin account is required")
	}
	if r.operator, err = id.ParseAccountID(r.Operator); err != nil {
		return dErrors.New(dErrors.CodeValidation, "operator account is required")
	}
	r.asset = id.AssetRef(strings.TrimSpace(r.PaymentAsset))
	if r.asset.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "payment asset is required")
	}
	return nil
}

func (h *Handler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[initializeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	cfg, err := h.service.Initialize(ctx, req.admin, req.operator, req.ContributorSharePct, req.asset)
	if err != nil {
		h.logger.WarnContext(ctx, "initialize failed", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, cfg)
}

type setOperatorRequest struct {
	models.SetOperatorRequest
	operator id.AccountID
}

func (r *setOperatorRequest) Validate() error {
	operator, err := id.ParseAccountID(r.Operator)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "operator account is required")
	}
	r.operator = operator
	return nil
}

func (h *Handler) HandleSetOperator(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[setOperatorRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.SetOperator(ctx, req.operator); err != nil {
		h.logger.WarnContext(ctx, "set operator failed",
			"request_id", requestID,
			"caller", requestcontext.Caller(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	cfg, err := h.service.Configuration(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

func (h *Handler) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.Configuration(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}
