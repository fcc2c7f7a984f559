package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/filecoin-project/go-state-types/big"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"synapse/internal/ledger/metrics"
	"synapse/internal/ledger/models"
	registrymodels "synapse/internal/registry/models"
	"synapse/internal/retention"
	settingsmodels "synapse/internal/settings/models"
	id "synapse/pkg/domain"
	dErrors "synapse/pkg/domain-errors"
	"synapse/pkg/platform/events"
	txcontext "synapse/pkg/platform/tx"
	"synapse/pkg/requestcontext"
)

var tracer = otel.Tracer("synapse/internal/ledger")

type Store interface {
	Append(ctx context.Context, planID id.PlanID, record models.PurchaseRecord) error
	List(ctx context.Context, planID id.PlanID) ([]models.PurchaseRecord, error)
}

// Plans is the slice of the registry the ledger reads and updates.
type Plans interface {
	Load(ctx context.Context, planID id.PlanID) (*registrymodels.Plan, error)
	Save(ctx context.Context, plan *registrymodels.Plan) error
}

// Settings is the slice of the configuration service the ledger needs.
type Settings interface {
	Configuration(ctx context.Context) (*settingsmodels.Configuration, error)
	IncrementPurchases(ctx context.Context) error
}

type Transferrer interface {
	Transfer(ctx context.Context, asset id.AssetRef, from, to id.AccountID, amount big.Int) error
}

type Authorizer interface {
	RequireCaller(ctx context.Context, account id.AccountID) error
}

type Retention interface {
	Extend(ctx context.Context, key string, tier id.Tier) (time.Time, error)
}

type Publisher interface {
	Emit(ctx context.Context, event events.Event) error
}

// Sequencer hands out the host sequence stamped on each purchase record.
type Sequencer interface {
	Sequence(ctx context.Context) (uint64, error)
}

// Service settles purchases: it splits the payment between contributor and
// operator, records the receipt and promotes the plan to Hot.
type Service struct {
	store     Store
	plans     Plans
	settings  Settings
	transfers Transferrer
	authz     Authorizer
	retention Retention
	publisher Publisher
	sequencer Sequencer
	tx        txcontext.Runner
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Deps groups the collaborators of the ledger.
type Deps struct {
	Store     Store
	Plans     Plans
	Settings  Settings
	Transfers Transferrer
	Authz     Authorizer
	Retention Retention
	Publisher Publisher
	Sequencer Sequencer
	Tx        txcontext.Runner
}

func New(deps Deps, opts ...Option) (*Service, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("purchase store is required")
	case deps.Plans == nil:
		return nil, errors.New("plan registry is required")
	case deps.Settings == nil:
		return nil, errors.New("settings service is required")
	case deps.Transfers == nil:
		return nil, errors.New("transferrer is required")
	case deps.Authz == nil:
		return nil, errors.New("authorizer is required")
	case deps.Retention == nil:
		return nil, errors.New("retention policy is required")
	case deps.Publisher == nil:
		return nil, errors.New("event publisher is required")
	case deps.Sequencer == nil:
		return nil, errors.New("sequencer is required")
	case deps.Tx == nil:
		return nil, errors.New("transaction runner is required")
	}
	s := &Service{
		store:     deps.Store,
		plans:     deps.Plans,
		settings:  deps.Settings,
		transfers: deps.Transfers,
		authz:     deps.Authz,
		retention: deps.Retention,
		publisher: deps.Publisher,
		sequencer: deps.Sequencer,
		tx:        deps.Tx,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ExecutePurchase charges buyer amount for the plan. Both transfers, the
// receipt, the plan update, the counter and the notification commit together
// or not at all.
func (s *Service) ExecutePurchase(ctx context.Context, buyer id.AccountID, planID id.PlanID, amount big.Int) (*models.PurchaseRecord, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "ledger.ExecutePurchase", trace.WithAttributes(
		attribute.String("plan.id", planID.String()),
		attribute.String("purchase.buyer", buyer.String()),
	))
	defer span.End()

	var (
		record *models.PurchaseRecord
		plan   *registrymodels.Plan
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.authz.RequireCaller(ctx, buyer); err != nil {
			return err
		}
		var err error
		if plan, err = s.plans.Load(ctx, planID); err != nil {
			return err
		}
		if err := models.ValidateAmount(amount); err != nil {
			return err
		}
		cfg, err := s.settings.Configuration(ctx)
		if err != nil {
			return err
		}

		contributorShare, operatorShare := models.Split(amount, cfg.ContributorSharePct)
		if err := s.transfers.Transfer(ctx, cfg.PaymentAsset, buyer, plan.Contributor, contributorShare); err != nil {
			return dErrors.Wrap(err, dErrors.CodeTransferFailed, "contributor share transfer failed")
		}
		if err := s.transfers.Transfer(ctx, cfg.PaymentAsset, buyer, cfg.Operator, operatorShare); err != nil {
			return dErrors.Wrap(err, dErrors.CodeTransferFailed, "operator share transfer failed")
		}

		seq, err := s.sequencer.Sequence(ctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read host sequence")
		}
		record = &models.PurchaseRecord{
			Buyer:            buyer,
			Amount:           amount,
			ContributorShare: contributorShare,
			OperatorShare:    operatorShare,
			Sequence:         seq,
		}
		if err := s.store.Append(ctx, planID, *record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record purchase")
		}

		plan.RecordPurchase()
		if err := s.plans.Save(ctx, plan); err != nil {
			return err
		}
		if _, err := s.retention.Extend(ctx, retention.PlanKey(planID), plan.Tier); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to extend retention")
		}
		if err := s.settings.IncrementPurchases(ctx); err != nil {
			return err
		}

		event, err := events.New(ctx, planID, events.PlanPurchased{
			PlanID:      planID,
			Buyer:       buyer,
			Amount:      amount,
			Contributor: plan.Contributor,
		})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build event")
		}
		if err := s.publisher.Emit(ctx, event); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to emit event")
		}
		return nil
	})
	if s.metrics != nil {
		s.metrics.ObservePurchase(start)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		if s.metrics != nil {
			s.metrics.IncrementFailure(string(dErrors.CodeOf(err)))
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "purchase failed",
				"plan_id", planID,
				"buyer", buyer,
				"request_id", requestcontext.RequestID(ctx),
				"error", err)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementPurchase(amount)
	}
	s.logAudit(ctx, "plan_purchased",
		"plan_id", planID,
		"buyer", buyer,
		"contributor", plan.Contributor,
		"amount", amount.String(),
		"contributor_share", record.ContributorShare.String(),
		"operator_share", record.OperatorShare.String(),
		"sequence", record.Sequence)
	return record, nil
}

// PurchasesFor returns the plan's receipts in settlement order. Unknown plans
// have an empty history.
func (s *Service) PurchasesFor(ctx context.Context, planID id.PlanID) ([]models.PurchaseRecord, error) {
	var records []models.PurchaseRecord
	err := s.tx.View(ctx, func(ctx context.Context) error {
		var err error
		records, err = s.store.List(ctx, planID)
		return err
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list purchases")
	}
	if records == nil {
		records = []models.PurchaseRecord{}
	}
	return records, nil
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
