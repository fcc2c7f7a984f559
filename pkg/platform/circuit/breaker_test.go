package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"synapse/pkg/testutil"
)

func TestBreaker(t *testing.T) {
	testutil.Given(t, "a new breaker", func(t *testing.T) {
		b := New("kafka")

		testutil.Then(t, "it starts closed with default thresholds", func(t *testing.T) {
			assert.False(t, b.IsOpen())
			assert.Equal(t, "closed", b.State().String())
			assert.Equal(t, "kafka", b.Name())
		})
	})

	testutil.Given(t, "a breaker that opens after three failures", func(t *testing.T) {
		b := New("kafka", WithFailureThreshold(3))

		testutil.When(t, "the broker fails twice then recovers", func(t *testing.T) {
			for range 2 {
				useFallback, change := b.RecordFailure()
				assert.False(t, useFallback)
				assert.False(t, change.Opened)
			}
			b.RecordSuccess()

			testutil.Then(t, "the failure streak starts over", func(t *testing.T) {
				b.RecordFailure()
				b.RecordFailure()
				assert.False(t, b.IsOpen())

				useFallback, change := b.RecordFailure()
				assert.True(t, useFallback)
				assert.True(t, change.Opened)
				assert.Equal(t, "open", b.State().String())
			})
		})

		testutil.When(t, "more failures arrive while open", func(t *testing.T) {
			useFallback, change := b.RecordFailure()

			testutil.Then(t, "the caller keeps falling back without a new transition", func(t *testing.T) {
				assert.True(t, useFallback)
				assert.False(t, change.Opened)
			})
		})
	})

	testutil.Given(t, "an open breaker needing three successes", func(t *testing.T) {
		b := New("kafka", WithFailureThreshold(1), WithSuccessThreshold(3))
		b.RecordFailure()
		assert.True(t, b.IsOpen())

		testutil.When(t, "a failure interrupts the recovery", func(t *testing.T) {
			b.RecordSuccess()
			b.RecordSuccess()
			b.RecordFailure()

			testutil.Then(t, "three fresh successes are needed to close", func(t *testing.T) {
				usePrimary, _ := b.RecordSuccess()
				assert.False(t, usePrimary)
				b.RecordSuccess()
				assert.True(t, b.IsOpen())

				usePrimary, change := b.RecordSuccess()
				assert.True(t, usePrimary)
				assert.True(t, change.Closed)
				assert.False(t, b.IsOpen())
			})
		})
	})

	testutil.Given(t, "an open breaker", func(t *testing.T) {
		b := New("kafka", WithFailureThreshold(1))
		b.RecordFailure()

		testutil.When(t, "it is reset", func(t *testing.T) {
			b.Reset()

			testutil.Then(t, "it is closed again", func(t *testing.T) {
				assert.Equal(t, StateClosed, b.State())
			})
		})
	})
}
