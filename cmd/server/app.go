package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"synapse/internal/authz"
	httpapi "synapse/internal/http"
	jwttoken "synapse/internal/jwt_token"
	ledgerhandler "synapse/internal/ledger/handler"
	ledgermetrics "synapse/internal/ledger/metrics"
	ledgerservice "synapse/internal/ledger/service"
	ledgerstore "synapse/internal/ledger/store"
	"synapse/internal/platform/config"
	"synapse/internal/platform/host"
	"synapse/internal/platform/kafka"
	"synapse/internal/platform/metrics"
	"synapse/internal/platform/postgres"
	redisclient "synapse/internal/platform/redis"
	registrycache "synapse/internal/registry/cache"
	registryhandler "synapse/internal/registry/handler"
	registrymetrics "synapse/internal/registry/metrics"
	registryservice "synapse/internal/registry/service"
	registrystore "synapse/internal/registry/store"
	"synapse/internal/registry/subscriber"
	"synapse/internal/retention"
	settingshandler "synapse/internal/settings/handler"
	settingsservice "synapse/internal/settings/service"
	settingsstore "synapse/internal/settings/store"
	tokenshandler "synapse/internal/tokens/handler"
	tokenstore "synapse/internal/tokens/store"
	"synapse/internal/transfer"
	transferhandler "synapse/internal/transfer/handler"
	dErrors "synapse/pkg/domain-errors"
	"synapse/pkg/platform/events"
	"synapse/pkg/platform/events/relay"
	eventsmemory "synapse/pkg/platform/events/store/memory"
	eventspostgres "synapse/pkg/platform/events/store/postgres"
	txcontext "synapse/pkg/platform/tx"
)

// book is what the app needs from a balance backend.
type book interface {
	transfer.Transferrer
	transferhandler.Book
}

type eventStore interface {
	events.Store
	relay.Outbox
}

type clock interface {
	ledgerservice.Sequencer
	registryservice.Clock
}

// backends groups the storage implementations for one deployment mode.
type backends struct {
	tx        txcontext.Runner
	settings  settingsservice.Store
	plans     registryservice.Store
	purchases ledgerservice.Store
	keepAlive retention.KeepAlive
	book      book
	events    eventStore
	host      clock
}

func memoryBackends() backends {
	return backends{
		tx:        txcontext.NewMemoryRunner(),
		settings:  settingsstore.NewInMemory(),
		plans:     registrystore.NewInMemory(),
		purchases: ledgerstore.NewInMemory(),
		keepAlive: retention.NewInMemory(),
		book:      transfer.NewInMemoryBook(),
		events:    eventsmemory.NewInMemoryStore(),
		host:      host.NewMemory(),
	}
}

func postgresBackends(db *sql.DB) backends {
	return backends{
		tx:        txcontext.NewPostgresRunner(db),
		settings:  settingsstore.NewPostgres(db),
		plans:     registrystore.NewPostgres(db),
		purchases: ledgerstore.NewPostgres(db),
		keepAlive: retention.NewPostgres(db),
		book:      transfer.NewPostgresBook(db),
		events:    eventspostgres.New(db),
		host:      host.NewPostgres(db),
	}
}

// serviceMetrics are registered once per process.
type serviceMetrics struct {
	http     *metrics.HTTP
	registry *registrymetrics.Metrics
	ledger   *ledgermetrics.Metrics
	events   *events.Metrics
	relay    *relay.Metrics
}

func newServiceMetrics() serviceMetrics {
	return serviceMetrics{
		http:     metrics.NewHTTP(prometheus.DefaultRegisterer),
		registry: registrymetrics.New(),
		ledger:   ledgermetrics.New(),
		events:   events.NewMetrics(),
		relay:    relay.NewMetrics(),
	}
}

type app struct {
	handler    http.Handler
	settings   *settingsservice.Service
	relay      *relay.Relay
	subscriber *kafka.Consumer
	closers    []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp connects the configured infrastructure and wires every module.
func newApp(ctx context.Context, cfg config.Server, logger *slog.Logger, m serviceMetrics) (*app, error) {
	a := &app{}
	health := map[string]httpapi.HealthCheck{}

	b := memoryBackends()
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		if err := postgres.Migrate(ctx, db); err != nil {
			a.Close()
			return nil, err
		}
		b = postgresBackends(db)
		health["postgres"] = db.PingContext
		logger.InfoContext(ctx, "using postgres storage")
	} else {
		logger.InfoContext(ctx, "using in-memory storage")
	}

	var revocations interface {
		tokenshandler.Revoker
		IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	} = tokenstore.NewInMemory()

	var (
		registryOpts []registryservice.Option
		planCache    *registrycache.RedisCache
	)
	rdb, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		a.Close()
		return nil, err
	}
	if rdb != nil {
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		planCache = registrycache.NewRedisCache(rdb.Client)
		registryOpts = append(registryOpts, registryservice.WithCache(planCache))
		revocations = tokenstore.NewRedis(rdb.Client)
		health["redis"] = rdb.Health
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, producer.Close)
		if err := producer.EnsureTopic(ctx, 3, 1); err != nil {
			logger.WarnContext(ctx, "could not ensure event topic", "topic", cfg.Kafka.Topic, "error", err)
		}
		a.relay = relay.New(b.events, producer,
			relay.WithLogger(logger),
			relay.WithMetrics(m.relay),
			relay.WithInterval(cfg.Kafka.RelayInterval),
		)
		health["kafka"] = producer.Ping

		if cfg.Kafka.ConsumerGroup != "" {
			var handler kafka.Handler = subscriber.New(nil, logger)
			if planCache != nil {
				handler = subscriber.New(planCache, logger)
			}
			consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ConsumerGroup, handler, logger)
			if err != nil {
				a.Close()
				return nil, err
			}
			a.closers = append(a.closers, consumer.Close)
			a.subscriber = consumer
		}
	}

	authorizer := authz.NewContextAuthorizer()
	publisher := events.NewPublisher(b.events, events.WithLogger(logger), events.WithMetrics(m.events))

	policy, err := retention.New(b.keepAlive, retention.WithClock(b.host.Now))
	if err != nil {
		a.Close()
		return nil, err
	}
	settings, err := settingsservice.New(b.settings, authorizer, b.tx, settingsservice.WithLogger(logger))
	if err != nil {
		a.Close()
		return nil, err
	}
	registryOpts = append(registryOpts,
		registryservice.WithLogger(logger),
		registryservice.WithMetrics(m.registry),
		registryservice.WithClock(b.host),
	)
	registry, err := registryservice.New(b.plans, authorizer, settings, policy, publisher, b.tx, registryOpts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	ledger, err := ledgerservice.New(ledgerservice.Deps{
		Store:     b.purchases,
		Plans:     registry,
		Settings:  settings,
		Transfers: b.book,
		Authz:     authorizer,
		Retention: policy,
		Publisher: publisher,
		Sequencer: b.host,
		Tx:        b.tx,
	}, ledgerservice.WithLogger(logger), ledgerservice.WithMetrics(m.ledger))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.settings = settings

	jwtService := jwttoken.NewJWTService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)
	settingsHTTP := settingshandler.New(settings, logger)
	transferHTTP := transferhandler.New(b.book, b.tx, logger)

	a.handler = httpapi.NewRouter(httpapi.Config{
		Logger:      logger,
		Validator:   jwttoken.NewJWTServiceAdapter(jwtService),
		Revocations: revocations,
		AdminToken:  cfg.AdminAPIToken,
		Metrics:     m.http,
		Health:      health,
	}, []httpapi.Module{
		settingsHTTP,
		registryhandler.New(registry, logger),
		ledgerhandler.New(ledger, logger),
		transferHTTP,
	}, []httpapi.BootstrapModule{
		settingsHTTP,
		tokenshandler.New(jwtService, revocations, logger),
		transferHTTP,
	})
	return a, nil
}

// bootstrapMarketplace initializes the marketplace from configuration. A
// marketplace that is already initialized is left untouched.
func (a *app) bootstrapMarketplace(ctx context.Context, mc config.MarketplaceConfig, logger *slog.Logger) error {
	if !mc.Enabled() {
		return nil
	}
	_, err := a.settings.Initialize(ctx, mc.Admin, mc.Operator, mc.SharePct, mc.PaymentAsset)
	if dErrors.HasCode(err, dErrors.CodeAlreadyInitialized) {
		logger.InfoContext(ctx, "marketplace already initialized")
		return nil
	}
	if err != nil {
		return fmt.Errorf("initialize marketplace: %w", err)
	}
	return nil
}
