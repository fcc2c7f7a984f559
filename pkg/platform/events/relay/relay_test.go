package relay

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "synapse/pkg/domain"
	"synapse/pkg/platform/circuit"
	"synapse/pkg/platform/events"
	"synapse/pkg/platform/events/store/memory"
)

type recordingSink struct {
	mu    sync.Mutex
	sent  []events.Event
	fails int
}

func (s *recordingSink) Send(_ context.Context, batch []events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fails > 0 {
		s.fails--
		return errors.New("broker unavailable")
	}
	s.sent = append(s.sent, batch...)
	return nil
}

type RelaySuite struct {
	suite.Suite
	ctx    context.Context
	outbox *memory.InMemoryStore
	sink   *recordingSink
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupTest() {
	s.ctx = context.Background()
	s.outbox = memory.NewInMemoryStore()
	s.sink = &recordingSink{}
}

func (s *RelaySuite) appendEvents(n int) {
	for i := 0; i < n; i++ {
		planID := id.PlanID(uuid.New())
		event, err := events.New(s.ctx, planID, events.TierChanged{PlanID: planID, OldTier: id.TierHot, NewTier: id.TierArchive})
		s.Require().NoError(err)
		s.Require().NoError(s.outbox.Append(s.ctx, event))
	}
}

func (s *RelaySuite) TestFlushDeliversInOrderAndMarksPublished() {
	s.appendEvents(3)
	r := New(s.outbox, s.sink, WithBatchSize(2))

	n, err := r.Flush(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)

	n, err = r.Flush(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)

	n, err = r.Flush(s.ctx)
	s.Require().NoError(err)
	s.Zero(n)

	all, err := s.outbox.List(s.ctx)
	s.Require().NoError(err)
	s.Equal(all, s.sink.sent)
}

func (s *RelaySuite) TestFailedSendKeepsEventsPending() {
	s.appendEvents(1)
	s.sink.fails = 1
	r := New(s.outbox, s.sink)

	_, err := r.Flush(s.ctx)
	s.Require().Error(err)

	pending, err := s.outbox.Pending(s.ctx, 10)
	s.Require().NoError(err)
	s.Len(pending, 1)

	n, err := r.Flush(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *RelaySuite) TestBreakerOpensAfterRepeatedFailures() {
	s.appendEvents(1)
	s.sink.fails = 2
	breaker := circuit.New("test", circuit.WithFailureThreshold(2))
	r := New(s.outbox, s.sink, WithBreaker(breaker))

	_, _ = r.Flush(s.ctx)
	s.False(breaker.IsOpen())
	_, _ = r.Flush(s.ctx)
	s.True(breaker.IsOpen())

	_, err := r.Flush(s.ctx)
	s.Require().NoError(err)
	s.True(breaker.IsOpen(), "one success is not enough to close")
}

func (s *RelaySuite) TestRunStopsOnCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	s.NoError(New(s.outbox, s.sink).Run(ctx))
}

