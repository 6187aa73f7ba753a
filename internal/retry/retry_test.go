package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTemporary = errors.New("temporary error")

func TestDo(t *testing.T) {
	t.Parallel()

	permanent := errors.New("permanent error")

	tests := map[string]struct {
		failures      int
		err           error
		expectedCalls int
		wantErr       bool
	}{
		"success on first attempt":    {failures: 0, expectedCalls: 1},
		"success on second attempt":   {failures: 1, err: errTemporary, expectedCalls: 2},
		"failure after max attempts":  {failures: 10, err: errTemporary, expectedCalls: 3, wantErr: true},
		"non-retryable fails at once": {failures: 10, err: permanent, expectedCalls: 1, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			policy := Policy{
				MaxAttempts: 3,
				BaseDelay:   time.Millisecond,
				Retryable:   func(err error) bool { return !errors.Is(err, permanent) },
			}
			got, err := Do(context.Background(), policy, func(context.Context) (int, error) {
				calls++
				if calls <= tc.failures {
					return 0, tc.err
				}
				return 42, nil
			})

			assert.Equal(t, tc.expectedCalls, calls)
			if tc.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, tc.err)
				assert.Zero(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 42, got)
		})
	}
}

func TestPolicyBackOffDoubles(t *testing.T) {
	t.Parallel()

	b := Policy{MaxAttempts: 4, BaseDelay: time.Second}.newBackOff()
	b.Reset()
	assert.Equal(t, time.Second, b.NextBackOff())
	assert.Equal(t, 2*time.Second, b.NextBackOff())
	assert.Equal(t, 4*time.Second, b.NextBackOff())
}

func TestDoWrapsExhaustedAttempts(t *testing.T) {
	t.Parallel()

	_, err := Do(context.Background(), Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}, func(context.Context) (int, error) {
		return 0, errTemporary
	})

	require.ErrorIs(t, err, errTemporary)
	assert.Contains(t, err.Error(), "failed after 2 attempts")
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Do(ctx, Policy{MaxAttempts: 5, BaseDelay: time.Hour}, func(context.Context) (string, error) {
		calls++
		cancel()
		return "", errTemporary
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
