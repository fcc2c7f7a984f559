package host

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synapse/pkg/requestcontext"
)

func TestMemorySequenceIsStrictlyIncreasing(t *testing.T) {
	h := NewMemory()
	ctx := context.Background()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[uint64]bool{}
	)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := h.Sequence(ctx)
			require.NoError(t, err)
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 64)

	next, err := h.Sequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(65), next)
}

func TestMemoryNowHonorsRequestTime(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), fixed)
	assert.Equal(t, fixed, NewMemory().Now(ctx))
}
