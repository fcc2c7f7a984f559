//go:build integration

package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/filecoin-project/go-state-types/big"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"synapse/internal/authz"
	"synapse/internal/ledger/store"
	"synapse/internal/platform/host"
	registrymodels "synapse/internal/registry/models"
	registryservice "synapse/internal/registry/service"
	registrystore "synapse/internal/registry/store"
	"synapse/internal/retention"
	settingsservice "synapse/internal/settings/service"
	settingsstore "synapse/internal/settings/store"
	"synapse/internal/transfer"
	id "synapse/pkg/domain"
	dErrors "synapse/pkg/domain-errors"
	"synapse/pkg/platform/events"
	eventspostgres "synapse/pkg/platform/events/store/postgres"
	txcontext "synapse/pkg/platform/tx"
	"synapse/pkg/requestcontext"
	"synapse/pkg/testutil/containers"
)

// PostgresPurchaseSuite runs purchases end to end against real tables so the
// serializable transaction, not the in-memory journal, provides atomicity.
type PostgresPurchaseSuite struct {
	suite.Suite
	pg       *containers.PostgresContainer
	book     *transfer.PostgresBook
	events   *eventspostgres.Store
	settings *settingsservice.Service
	registry *registryservice.Service
	service  *Service
	plan     *registrymodels.Plan
}

func TestPostgresPurchaseSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresPurchaseSuite))
}

func (s *PostgresPurchaseSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
}

func (s *PostgresPurchaseSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.pg.TruncateTables(ctx,
		"marketplace_config", "plans", "content_index", "contributor_plans",
		"purchases", "retention", "balances", "outbox"))

	db := s.pg.DB
	tx := txcontext.NewPostgresRunner(db)
	s.book = transfer.NewPostgresBook(db)
	s.events = eventspostgres.New(db)

	policy, err := retention.New(retention.NewPostgres(db))
	s.Require().NoError(err)
	s.settings, err = settingsservice.New(settingsstore.NewPostgres(db), authz.NewContextAuthorizer(), tx)
	s.Require().NoError(err)
	publisher := events.NewPublisher(s.events)
	s.registry, err = registryservice.New(registrystore.NewPostgres(db), authz.NewContextAuthorizer(),
		s.settings, policy, publisher, tx)
	s.Require().NoError(err)
	s.service, err = New(Deps{
		Store:     store.NewPostgres(db),
		Plans:     s.registry,
		Settings:  s.settings,
		Transfers: s.book,
		Authz:     authz.NewContextAuthorizer(),
		Retention: policy,
		Publisher: publisher,
		Sequencer: host.NewPostgres(db),
		Tx:        tx,
	}, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)

	_, err = s.settings.Initialize(ctx, admin, operator, 70, asset)
	s.Require().NoError(err)
	s.plan, err = s.registry.Publish(asCaller(contributor), contributor, registrymodels.PublishInput{
		ID:          id.PlanID(uuid.New()),
		Title:       "Outbox relay",
		ContentHash: id.ContentHash{0x42},
		Tags:        []string{"postgres"},
	})
	s.Require().NoError(err)
	s.Require().NoError(s.book.Mint(ctx, asset, buyer, big.NewInt(1_000)))
}

func asCaller(account id.AccountID) context.Context {
	return requestcontext.WithCaller(context.Background(), account)
}

func (s *PostgresPurchaseSuite) balance(account id.AccountID) string {
	b, err := s.book.Balance(context.Background(), asset, account)
	s.Require().NoError(err)
	return b.String()
}

func (s *PostgresPurchaseSuite) TestPurchaseCommitsEveryEffect() {
	record, err := s.service.ExecutePurchase(asCaller(buyer), buyer, s.plan.ID, big.NewInt(99))
	s.Require().NoError(err)
	s.Equal("69", record.ContributorShare.String())
	s.Equal("30", record.OperatorShare.String())

	s.Equal("901", s.balance(buyer))
	s.Equal("69", s.balance(contributor))
	s.Equal("30", s.balance(operator))

	plan, ok, err := s.registry.Get(context.Background(), s.plan.ID)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(uint32(1), plan.PurchaseCount)

	list, err := s.events.ListByPlan(context.Background(), s.plan.ID)
	s.Require().NoError(err)
	s.Len(list, 2, "stored and purchased")
}

func (s *PostgresPurchaseSuite) TestOverdraftRollsBackTheTransaction() {
	_, err := s.service.ExecutePurchase(asCaller(buyer), buyer, s.plan.ID, big.NewInt(5_000))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTransferFailed))

	s.Equal("1000", s.balance(buyer))
	s.Equal("0", s.balance(contributor))

	records, err := s.service.PurchasesFor(context.Background(), s.plan.ID)
	s.Require().NoError(err)
	s.Empty(records)

	stats, err := s.settings.Stats(context.Background())
	s.Require().NoError(err)
	s.Zero(stats.TotalPurchases)
}
