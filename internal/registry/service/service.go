package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"synapse/internal/registry/metrics"
	"synapse/internal/registry/models"
	"synapse/internal/retention"
	id "synapse/pkg/domain"
	dErrors "synapse/pkg/domain-errors"
	"synapse/pkg/platform/events"
	"synapse/pkg/platform/sentinel"
	txcontext "synapse/pkg/platform/tx"
	"synapse/pkg/requestcontext"
)

var tracer = otel.Tracer("synapse/internal/registry")

type Store interface {
	Create(ctx context.Context, plan *models.Plan) error
	Get(ctx context.Context, planID id.PlanID) (*models.Plan, error)
	Save(ctx context.Context, plan *models.Plan) error
	IndexContent(ctx context.Context, hash id.ContentHash, planID id.PlanID) error
	ContentExists(ctx context.Context, hash id.ContentHash) (bool, error)
	AppendContributorPlan(ctx context.Context, contributor id.AccountID, planID id.PlanID) error
	ContributorPlans(ctx context.Context, contributor id.AccountID) ([]id.PlanID, error)
}

// Cache is an optional read-through cache in front of Store.
type Cache interface {
	Get(ctx context.Context, planID id.PlanID) (*models.Plan, bool, error)
	Put(ctx context.Context, plan *models.Plan) error
	Invalidate(ctx context.Context, planID id.PlanID) error
}

type Authorizer interface {
	RequireCaller(ctx context.Context, account id.AccountID) error
}

// Settings is the slice of the configuration service the registry needs.
type Settings interface {
	Admin(ctx context.Context) (id.AccountID, error)
	IncrementPlans(ctx context.Context) error
}

type Retention interface {
	Extend(ctx context.Context, key string, tier id.Tier) (time.Time, error)
}

type Publisher interface {
	Emit(ctx context.Context, event events.Event) error
}

type Clock interface {
	Now(ctx context.Context) time.Time
}

type clockFunc func(ctx context.Context) time.Time

func (f clockFunc) Now(ctx context.Context) time.Time { return f(ctx) }

// Service owns the plan registry: the plans themselves, the content index
// used for dedup, and the per-contributor listing.
type Service struct {
	store     Store
	authz     Authorizer
	settings  Settings
	retention Retention
	publisher Publisher
	tx        txcontext.Runner
	clock     Clock
	cache     Cache
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

func WithCache(c Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithClock overrides the source of CreatedAt timestamps.
func WithClock(c Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

func New(
	store Store,
	authz Authorizer,
	settings Settings,
	retention Retention,
	publisher Publisher,
	tx txcontext.Runner,
	opts ...Option,
) (*Service, error) {
	if store == nil {
		return nil, errors.New("plan store is required")
	}
	if authz == nil {
		return nil, errors.New("authorizer is required")
	}
	if settings == nil {
		return nil, errors.New("settings service is required")
	}
	if retention == nil {
		return nil, errors.New("retention policy is required")
	}
	if publisher == nil {
		return nil, errors.New("event publisher is required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	s := &Service{
		store:     store,
		authz:     authz,
		settings:  settings,
		retention: retention,
		publisher: publisher,
		tx:        tx,
		clock:     clockFunc(func(ctx context.Context) time.Time { return requestcontext.Now(ctx).UTC() }),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Publish stores a new plan on behalf of contributor. The content hash must
// not be indexed yet. The plan starts Hot with no purchases.
func (s *Service) Publish(ctx context.Context, contributor id.AccountID, in models.PublishInput) (*models.Plan, error) {
	start := time.Now()
	defer s.observe("publish", start)
	ctx, span := tracer.Start(ctx, "registry.Publish", trace.WithAttributes(
		attribute.String("plan.id", in.ID.String()),
		attribute.String("plan.contributor", contributor.String()),
	))
	defer span.End()

	var plan *models.Plan
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.authz.RequireCaller(ctx, contributor); err != nil {
			return err
		}
		if err := in.Validate(); err != nil {
			return err
		}

		exists, err := s.store.ContentExists(ctx, in.ContentHash)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check content index")
		}
		if exists {
			return dErrors.New(dErrors.CodeDuplicateContent, "content with this hash already exists")
		}

		plan = models.NewPlan(contributor, in, s.clock.Now(ctx))
		if err := s.store.Create(ctx, plan); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "a plan with this id already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store plan")
		}
		if err := s.store.IndexContent(ctx, plan.ContentHash, plan.ID); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeDuplicateContent, "content with this hash already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to index content")
		}
		if err := s.store.AppendContributorPlan(ctx, contributor, plan.ID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update contributor index")
		}
		if err := s.settings.IncrementPlans(ctx); err != nil {
			return err
		}
		if _, err := s.retention.Extend(ctx, retention.PlanKey(plan.ID), plan.Tier); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to extend retention")
		}
		if err := s.emit(ctx, plan.ID, events.PlanStored{
			PlanID:         plan.ID,
			ContentHash:    plan.ContentHash,
			Contributor:    plan.Contributor,
			Title:          plan.Title,
			Tags:           plan.Tags,
			ContentLocator: plan.ContentLocator,
			Tier:           plan.Tier,
		}); err != nil {
			return err
		}
		s.cacheAfterCommit(ctx, plan)
		return nil
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeDuplicateContent) && s.metrics != nil {
			s.metrics.IncrementDuplicate()
		}
		return nil, s.fail(span, err)
	}

	if s.metrics != nil {
		s.metrics.IncrementPublished()
	}
	s.logAudit(ctx, "plan_stored",
		"plan_id", plan.ID,
		"contributor", plan.Contributor,
		"content_hash", plan.ContentHash)
	return plan.Clone(), nil
}

// Get returns the plan, or false when no plan has that ID.
func (s *Service) Get(ctx context.Context, planID id.PlanID) (*models.Plan, bool, error) {
	start := time.Now()
	defer s.observe("get", start)

	var (
		plan  *models.Plan
		found bool
	)
	err := s.tx.View(ctx, func(ctx context.Context) error {
		if s.cache != nil && !txcontext.InTx(ctx) {
			cached, ok, err := s.cache.Get(ctx, planID)
			if err != nil {
				s.logCacheError(ctx, "read", planID, err)
			} else if ok {
				plan, found = cached, true
				return nil
			}
		}

		stored, err := s.store.Get(ctx, planID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load plan")
		}
		plan, found = stored, true

		if s.cache != nil && !txcontext.InTx(ctx) {
			if err := s.cache.Put(ctx, stored); err != nil {
				s.logCacheError(ctx, "write", planID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return plan, found, nil
}

// Load returns the plan or PlanNotFound. Use inside transactions that
// mutate the plan.
func (s *Service) Load(ctx context.Context, planID id.PlanID) (*models.Plan, error) {
	plan, err := s.store.Get(ctx, planID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodePlanNotFound, "plan not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load plan")
	}
	return plan, nil
}

// Save persists a mutated plan inside the caller's transaction and refreshes
// the cache once the transaction commits.
func (s *Service) Save(ctx context.Context, plan *models.Plan) error {
	if err := s.store.Save(ctx, plan); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodePlanNotFound, "plan not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save plan")
	}
	s.cacheAfterCommit(ctx, plan)
	return nil
}

// ContentExists reports whether a plan with this content hash was ever stored.
func (s *Service) ContentExists(ctx context.Context, hash id.ContentHash) (bool, error) {
	var exists bool
	err := s.tx.View(ctx, func(ctx context.Context) error {
		var err error
		exists, err = s.store.ContentExists(ctx, hash)
		return err
	})
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check content index")
	}
	return exists, nil
}

// ContributorPlans lists the contributor's plan IDs in publish order.
func (s *Service) ContributorPlans(ctx context.Context, contributor id.AccountID) ([]id.PlanID, error) {
	var ids []id.PlanID
	err := s.tx.View(ctx, func(ctx context.Context) error {
		var err error
		ids, err = s.store.ContributorPlans(ctx, contributor)
		return err
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list contributor plans")
	}
	if ids == nil {
		ids = []id.PlanID{}
	}
	return ids, nil
}

// Retier moves a plan to tier. Only the plan's contributor or the admin may
// do so.
func (s *Service) Retier(ctx context.Context, caller id.AccountID, planID id.PlanID, tier id.Tier) (*models.Plan, error) {
	start := time.Now()
	defer s.observe("retier", start)
	ctx, span := tracer.Start(ctx, "registry.Retier", trace.WithAttributes(
		attribute.String("plan.id", planID.String()),
		attribute.String("plan.tier", tier.String()),
	))
	defer span.End()

	if !tier.IsValid() {
		return nil, s.fail(span, dErrors.New(dErrors.CodeBadRequest, "tier must be one of hot, cold, archive"))
	}

	var (
		plan    *models.Plan
		oldTier id.Tier
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.authz.RequireCaller(ctx, caller); err != nil {
			return err
		}
		var err error
		if plan, err = s.Load(ctx, planID); err != nil {
			return err
		}
		if caller != plan.Contributor {
			admin, err := s.settings.Admin(ctx)
			if err != nil {
				return err
			}
			if err := plan.CanRetier(caller, admin); err != nil {
				return err
			}
		}

		oldTier = plan.ApplyTier(tier)
		if err := s.Save(ctx, plan); err != nil {
			return err
		}
		if _, err := s.retention.Extend(ctx, retention.PlanKey(plan.ID), tier); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to extend retention")
		}
		return s.emit(ctx, plan.ID, events.TierChanged{PlanID: plan.ID, OldTier: oldTier, NewTier: tier})
	})
	if err != nil {
		return nil, s.fail(span, err)
	}

	if s.metrics != nil {
		s.metrics.IncrementRetier(tier)
	}
	s.logAudit(ctx, "tier_changed",
		"plan_id", planID,
		"caller", caller,
		"old_tier", oldTier,
		"new_tier", tier)
	return plan.Clone(), nil
}

// RefreshRetention re-extends the plan's keep-alive for its current tier.
// It changes nothing else and emits no notification.
func (s *Service) RefreshRetention(ctx context.Context, planID id.PlanID) (*models.Plan, time.Time, error) {
	var (
		plan    *models.Plan
		expires time.Time
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if plan, err = s.Load(ctx, planID); err != nil {
			return err
		}
		if expires, err = s.retention.Extend(ctx, retention.PlanKey(plan.ID), plan.Tier); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to extend retention")
		}
		return nil
	})
	if err != nil {
		return nil, time.Time{}, err
	}
	return plan, expires, nil
}

func (s *Service) emit(ctx context.Context, planID id.PlanID, payload events.Payload) error {
	event, err := events.New(ctx, planID, payload)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build event")
	}
	if err := s.publisher.Emit(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to emit event")
	}
	return nil
}

// cacheAfterCommit refreshes the cached copy only if the transaction commits,
// so readers never observe a plan that was rolled back.
func (s *Service) cacheAfterCommit(ctx context.Context, plan *models.Plan) {
	if s.cache == nil {
		return
	}
	snapshot := plan.Clone()
	txcontext.AfterCommit(ctx, func(ctx context.Context) {
		if err := s.cache.Put(ctx, snapshot); err != nil {
			s.logCacheError(ctx, "write", snapshot.ID, err)
			if err := s.cache.Invalidate(ctx, snapshot.ID); err != nil {
				s.logCacheError(ctx, "invalidate", snapshot.ID, err)
			}
		}
	})
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	return err
}

func (s *Service) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, start)
	}
}

func (s *Service) logCacheError(ctx context.Context, op string, planID id.PlanID, err error) {
	if s.logger == nil {
		return
	}
	s.logger.WarnContext(ctx, "plan cache "+op+" failed",
		"plan_id", planID,
		"request_id", requestcontext.RequestID(ctx),
		"error", err)
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
