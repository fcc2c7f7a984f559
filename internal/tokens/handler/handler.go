package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	id "synapse/pkg/domain"
	dErrors "synapse/pkg/domain-errors"
	"synapse/pkg/platform/httputil"
	"synapse/pkg/requestcontext"
)

const (
	defaultTokenTTL = time.Hour
	maxTokenTTL     = 24 * time.Hour
)

// Issuer signs caller tokens.
type Issuer interface {
	GenerateAccessToken(account id.AccountID, expiresIn time.Duration) (string, error)
}

// Revoker blocks a token ID until ttl elapses.
type Revoker interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
}

// Handler exposes token issuance and revocation to deployment tooling.
type Handler struct {
	issuer  Issuer
	revoker Revoker
	logger  *slog.Logger
}

func New(issuer Issuer, revoker Revoker, logger *slog.Logger) *Handler {
	return &Handler{issuer: issuer, revoker: revoker, logger: logger}
}

// RegisterBootstrap mounts the endpoints behind the admin token middleware.
func (h *Handler) RegisterBootstrap(r chi.Router) {
	r.Post("/admin/tokens", h.HandleIssue)
	r.Post("/admin/tokens/revoke", h.HandleRevoke)
}

type IssueRequest struct {
	Account    string `json:"account"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

type IssueResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type RevokeRequest struct {
	JTI        string `json:"jti"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

type issueRequest struct {
	IssueRequest
	account id.AccountID
	ttl     time.Duration
}

func (r *issueRequest) Validate() error {
	account, err := id.ParseAccountID(r.Account)
	if err != nil {
		return err
	}
	ttl, err := parseTTL(r.TTLSeconds)
	if err != nil {
		return err
	}
	r.account, r.ttl = account, ttl
	return nil
}

type revokeRequest struct {
	RevokeRequest
	ttl time.Duration
}

func (r *revokeRequest) Normalize() {
	r.JTI = strings.TrimSpace(r.JTI)
}

func (r *revokeRequest) Validate() error {
	if r.JTI == "" {
		return dErrors.New(dErrors.CodeValidation, "jti is required")
	}
	ttl, err := parseTTL(r.TTLSeconds)
	if err != nil {
		return err
	}
	r.ttl = ttl
	return nil
}

func parseTTL(seconds int64) (time.Duration, error) {
	if seconds == 0 {
		return defaultTokenTTL, nil
	}
	ttl := time.Duration(seconds) * time.Second
	if seconds < 0 || ttl > maxTokenTTL {
		return 0, dErrors.New(dErrors.CodeValidation, "ttl_seconds must be between 1 and 86400")
	}
	return ttl, nil
}

func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[issueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	token, err := h.issuer.GenerateAccessToken(req.account, req.ttl)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue token",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "token issued",
		"request_id", requestID,
		"event", "token_issued",
		"log_type", "audit",
		"account", req.account,
	)
	httputil.WriteJSON(w, http.StatusCreated, IssueResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(req.ttl / time.Second),
	})
}

func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[revokeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.revoker.RevokeToken(ctx, req.JTI, req.ttl); err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke token",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "token revoked",
		"request_id", requestID,
		"event", "token_revoked",
		"log_type", "audit",
		"jti", req.JTI,
	)
	w.WriteHeader(http.StatusNoContent)
}
