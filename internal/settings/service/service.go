package service

import (
	"context"
	"errors"
	"log/slog"

	"synapse/internal/settings/models"
	id "synapse/pkg/domain"
	dErrors "synapse/pkg/domain-errors"
	"synapse/pkg/platform/sentinel"
	txcontext "synapse/pkg/platform/tx"
	"synapse/pkg/requestcontext"
)

type Store interface {
	Load(ctx context.Context) (*models.Configuration, error)
	CreateIfAbsent(ctx context.Context, cfg *models.Configuration) error
	UpdateOperator(ctx context.Context, operator id.AccountID) error
	Stats(ctx context.Context) (models.Stats, error)
	IncrementPlans(ctx context.Context) (uint32, error)
	IncrementPurchases(ctx context.Context) (uint32, error)
}

type Authorizer interface {
	RequireCaller(ctx context.Context, account id.AccountID) error
}

// Service owns the marketplace configuration lifecycle:
// uninitialized until Initialize succeeds, then initialized forever.
type Service struct {
	store  Store
	authz  Authorizer
	tx     txcontext.Runner
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, authz Authorizer, tx txcontext.Runner, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("settings store is required")
	}
	if authz == nil {
		return nil, errors.New("authorizer is required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	s := &Service{store: store, authz: authz, tx: tx}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Initialize sets the marketplace configuration exactly once and zeroes the
// global counters.
func (s *Service) Initialize(ctx context.Context, admin, operator id.AccountID, sharePct uint32, asset id.AssetRef) (*models.Configuration, error) {
	cfg, err := models.NewConfiguration(admin, operator, sharePct, asset)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.CreateIfAbsent(ctx, cfg); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeAlreadyInitialized, "marketplace is already initialized")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store configuration")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, "marketplace_initialized",
		"admin", admin,
		"operator", operator,
		"contributor_share_pct", sharePct,
		"payment_asset", asset)
	return cfg, nil
}

// SetOperator replaces the operator account. Only the admin may call it.
func (s *Service) SetOperator(ctx context.Context, operator id.AccountID) error {
	if operator.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "operator account is required")
	}
	var previous id.AccountID
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		cfg, err := s.load(ctx)
		if err != nil {
			return err
		}
		if err := s.authz.RequireCaller(ctx, cfg.Admin); err != nil {
			return err
		}
		previous = cfg.Operator
		if err := s.store.UpdateOperator(ctx, operator); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update operator")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, "operator_changed", "old_operator", previous, "new_operator", operator)
	return nil
}

// Configuration returns a snapshot of the configuration.
func (s *Service) Configuration(ctx context.Context) (*models.Configuration, error) {
	return s.load(ctx)
}

func (s *Service) Admin(ctx context.Context) (id.AccountID, error) {
	cfg, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return cfg.Admin, nil
}

func (s *Service) Operator(ctx context.Context) (id.AccountID, error) {
	cfg, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return cfg.Operator, nil
}

func (s *Service) SharePct(ctx context.Context) (uint32, error) {
	cfg, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return cfg.ContributorSharePct, nil
}

func (s *Service) PaymentAsset(ctx context.Context) (id.AssetRef, error) {
	cfg, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return cfg.PaymentAsset, nil
}

// Stats returns the global counters.
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	var st models.Stats
	err := s.tx.View(ctx, func(ctx context.Context) error {
		var err error
		st, err = s.store.Stats(ctx)
		return err
	})
	if err != nil {
		return models.Stats{}, translate(err, "failed to load stats")
	}
	return st, nil
}

// IncrementPlans bumps TotalPlans. It joins the caller's transaction.
func (s *Service) IncrementPlans(ctx context.Context) error {
	if _, err := s.store.IncrementPlans(ctx); err != nil {
		return translate(err, "failed to count plan")
	}
	return nil
}

// IncrementPurchases bumps TotalPurchases. It joins the caller's transaction.
func (s *Service) IncrementPurchases(ctx context.Context) error {
	if _, err := s.store.IncrementPurchases(ctx); err != nil {
		return translate(err, "failed to count purchase")
	}
	return nil
}

func (s *Service) load(ctx context.Context) (*models.Configuration, error) {
	var cfg *models.Configuration
	err := s.tx.View(ctx, func(ctx context.Context) error {
		var err error
		cfg, err = s.store.Load(ctx)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to load configuration")
	}
	return cfg, nil
}

func translate(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotInitialized, "marketplace is not initialized")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}
