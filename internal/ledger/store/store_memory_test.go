package store

import (
	"context"
	"errors"
	"testing"

	"github.com/filecoin-project/go-state-types/big"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synapse/internal/ledger/models"
	id "synapse/pkg/domain"
	txcontext "synapse/pkg/platform/tx"
	"synapse/pkg/testutil"
)

func record(buyer id.AccountID, amount int64, seq uint64) models.PurchaseRecord {
	c, o := models.Split(big.NewInt(amount), 70)
	return models.PurchaseRecord{Buyer: buyer, Amount: big.NewInt(amount), ContributorShare: c, OperatorShare: o, Sequence: seq}
}

func TestInMemoryPurchaseHistory(t *testing.T) {
	ctx := context.Background()
	planID := id.PlanID(uuid.New())

	testutil.Given(t, "an empty ledger", func(t *testing.T) {
		s := NewInMemory()

		testutil.When(t, "listing an unknown plan", func(t *testing.T) {
			testutil.Then(t, "the history is empty, not nil", func(t *testing.T) {
				got, err := s.List(ctx, planID)
				require.NoError(t, err)
				assert.NotNil(t, got)
				assert.Empty(t, got)
			})
		})

		testutil.When(t, "two purchases are appended", func(t *testing.T) {
			require.NoError(t, s.Append(ctx, planID, record("GBUYER1", 100, 1)))
			require.NoError(t, s.Append(ctx, planID, record("GBUYER2", 200, 2)))

			testutil.Then(t, "they are listed in settlement order", func(t *testing.T) {
				got, err := s.List(ctx, planID)
				require.NoError(t, err)
				require.Len(t, got, 2)
				assert.Equal(t, id.AccountID("GBUYER1"), got[0].Buyer)
				assert.Equal(t, uint64(2), got[1].Sequence)
			})
		})

		testutil.When(t, "an append is rolled back", func(t *testing.T) {
			err := txcontext.NewMemoryRunner().RunInTx(ctx, func(ctx context.Context) error {
				require.NoError(t, s.Append(ctx, planID, record("GBUYER3", 300, 3)))
				return errors.New("transfer rejected")
			})
			require.Error(t, err)

			testutil.Then(t, "the history is unchanged", func(t *testing.T) {
				got, err := s.List(ctx, planID)
				require.NoError(t, err)
				assert.Len(t, got, 2)
			})
		})
	})
}
