package waitfor_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shoplane/storefront-core/internal/waitfor"
	"github.com/stretchr/testify/require"
)

func TestPollSatisfiedMidLoop(t *testing.T) {
	calls := 0
	outcome, err := waitfor.Poll(context.Background(), waitfor.Policy{Attempts: 5, Interval: time.Millisecond}, func(ctx context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	})
	require.NoError(t, err)
	require.Equal(t, waitfor.Satisfied, outcome)
	require.Equal(t, 3, calls)
}

func TestPollExhaustedAfterExactlyNAttempts(t *testing.T) {
	calls := 0
	outcome, err := waitfor.Poll(context.Background(), waitfor.Policy{Attempts: 4, Interval: time.Millisecond}, func(ctx context.Context) (bool, error) {
		calls++
		return false, nil
	})
	require.NoError(t, err)
	require.Equal(t, waitfor.Exhausted, outcome)
	require.Equal(t, 4, calls)
}

func TestPollExhaustedReturnsLastProbeError(t *testing.T) {
	probeErr := errors.New("storage unavailable")
	outcome, err := waitfor.Poll(context.Background(), waitfor.Policy{Attempts: 2, Interval: time.Millisecond}, func(ctx context.Context) (bool, error) {
		return false, probeErr
	})
	require.Equal(t, waitfor.Exhausted, outcome)
	require.ErrorIs(t, err, probeErr)
}

func TestPollCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcome, err := waitfor.Poll(ctx, waitfor.Policy{Attempts: 10, Interval: 50 * time.Millisecond}, func(ctx context.Context) (bool, error) {
		return false, nil
	})
	require.Equal(t, waitfor.Canceled, outcome)
	require.Error(t, err)
}

func TestPollProbeErrorDoesNotAbortLoop(t *testing.T) {
	calls := 0
	outcome, err := waitfor.Poll(context.Background(), waitfor.Policy{Attempts: 5, Interval: time.Millisecond}, func(ctx context.Context) (bool, error) {
		calls++
		if calls < 3 {
			return false, errors.New("transient read failure")
		}
		return true, nil
	})
	require.NoError(t, err)
	require.Equal(t, waitfor.Satisfied, outcome)
	require.Equal(t, 3, calls)
}
