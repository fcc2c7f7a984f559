package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"synapse/internal/registry/models"
	id "synapse/pkg/domain"
	dErrors "synapse/pkg/domain-errors"
	"synapse/pkg/platform/httputil"
	"synapse/pkg/requestcontext"
)

// Service defines the registry operations exposed over HTTP.
type Service interface {
	Publish(ctx context.Context, contributor id.AccountID, in models.PublishInput) (*models.Plan, error)
	Get(ctx context.Context, planID id.PlanID) (*models.Plan, bool, error)
	ContentExists(ctx context.Context, hash id.ContentHash) (bool, error)
	ContributorPlans(ctx context.Context, contributor id.AccountID) ([]id.PlanID, error)
	Retier(ctx context.Context, caller id.AccountID, planID id.PlanID, tier id.Tier) (*models.Plan, error)
	RefreshRetention(ctx context.Context, planID id.PlanID) (*models.Plan, time.Time, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAuthenticated mounts the write endpoints. Callers guard the router
// with the bearer-token middleware.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/plans", h.HandlePublish)
	r.Put("/plans/{planID}/tier", h.HandleRetier)
	r.Post("/plans/{planID}/retention", h.HandleRefreshRetention)
}

// RegisterPublic mounts the read endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/plans/{planID}", h.HandleGetPlan)
	r.Get("/content/{hash}", h.HandleContentExists)
	r.Get("/contributors/{account}/plans", h.HandleContributorPlans)
}

type publishRequest struct {
	models.PublishRequest
	contributor id.AccountID
	input       models.PublishInput
}

func (r *publishRequest) Validate() error {
	planID, err := id.ParsePlanID(r.ID)
	if err != nil {
		return err
	}
	hash, err := id.ParseContentHash(r.ContentHash)
	if err != nil {
		return err
	}
	if r.PublishRequest.Contributor != "" {
		if r.contributor, err = id.ParseAccountID(r.PublishRequest.Contributor); err != nil {
			return err
		}
	}
	r.input = models.PublishInput{
		ID:             planID,
		Title:          r.Title,
		Description:    r.Description,
		ContentHash:    hash,
		ContentLocator: r.ContentLocator,
		Tags:           r.Tags,
		Domain:         r.Domain,
		Language:       r.Language,
		Framework:      r.Framework,
		QualityScore:   r.QualityScore,
	}
	return r.input.Validate()
}

func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[publishRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	contributor := req.contributor
	if contributor.IsNil() {
		contributor = requestcontext.Caller(ctx)
	}

	plan, err := h.service.Publish(ctx, contributor, req.input)
	if err != nil {
		h.logger.WarnContext(ctx, "publish plan failed",
			"request_id", requestID,
			"plan_id", req.input.ID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, plan)
}

func (h *Handler) HandleGetPlan(w http.ResponseWriter, r *http.Request) {
	planID, err := id.ParsePlanID(chi.URLParam(r, "planID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	plan, ok, err := h.service.Get(r.Context(), planID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodePlanNotFound, "plan not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, plan)
}

type retierRequest struct {
	models.RetierRequest
	tier id.Tier
}

func (r *retierRequest) Validate() error {
	tier, err := id.ParseTier(r.Tier)
	if err != nil {
		return err
	}
	r.tier = tier
	return nil
}

func (h *Handler) HandleRetier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	planID, err := id.ParsePlanID(chi.URLParam(r, "planID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[retierRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	caller := requestcontext.Caller(ctx)
	plan, err := h.service.Retier(ctx, caller, planID, req.tier)
	if err != nil {
		h.logger.WarnContext(ctx, "retier failed",
			"request_id", requestID,
			"plan_id", planID,
			"caller", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, plan)
}

func (h *Handler) HandleRefreshRetention(w http.ResponseWriter, r *http.Request) {
	planID, err := id.ParsePlanID(chi.URLParam(r, "planID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	plan, expires, err := h.service.RefreshRetention(r.Context(), planID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.RetentionResponse{
		PlanID:    plan.ID,
		Tier:      plan.Tier,
		ExpiresAt: expires,
	})
}

func (h *Handler) HandleContentExists(w http.ResponseWriter, r *http.Request) {
	hash, err := id.ParseContentHash(chi.URLParam(r, "hash"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	exists, err := h.service.ContentExists(r.Context(), hash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ContentExistsResponse{ContentHash: hash, Exists: exists})
}

func (h *Handler) HandleContributorPlans(w http.ResponseWriter, r *http.Request) {
	account, err := id.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ids, err := h.service.ContributorPlans(r.Context(), account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.PlanIDsResponse{Account: account, PlanIDs: ids})
}
