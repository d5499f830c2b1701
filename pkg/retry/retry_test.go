package retry_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/retry"
)

// recorder captures requested sleeps without waiting.
type recorder struct {
	delays []time.Duration
}

func (r *recorder) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func testPolicy(rec *recorder) retry.Policy {
	return retry.Policy{
		Name:        "test",
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		MaxDelay:    5 * time.Second,
		Sleep:       rec.sleep,
	}
}

func rateLimited() error {
	return errors.NewAPIError("tables", http.StatusTooManyRequests, "slow down")
}

func TestDoSucceedsAfterRateLimit(t *testing.T) {
	rec := &recorder{}
	calls := 0
	err := testPolicy(rec).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return rateLimited()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.delays)
}

func TestDoDoesNotRetryOtherErrors(t *testing.T) {
	rec := &recorder{}
	calls := 0
	boom := errors.NewAPIError("tables", http.StatusUnprocessableEntity, "bad field")
	err := testPolicy(rec).Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})

	assert.Same(t, boom, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.delays)
}

func TestDoExhausts(t *testing.T) {
	rec := &recorder{}
	calls := 0
	err := testPolicy(rec).Do(context.Background(), func(context.Context) error {
		calls++
		return rateLimited()
	})

	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, rec.delays)

	var retryErr *errors.RetryError
	require.True(t, errors.As(err, &retryErr))
	assert.Equal(t, 4, retryErr.Attempts)
	assert.True(t, errors.IsRateLimited(err), "last error stays reachable")
}

func TestDelay(t *testing.T) {
	p := retry.Policy{BaseDelay: time.Second, MaxDelay: 30 * time.Second}

	assert.Equal(t, time.Second, p.Delay(0, nil))
	assert.Equal(t, 8*time.Second, p.Delay(3, nil))
	assert.Equal(t, 30*time.Second, p.Delay(10, nil), "capped")

	withHint := &errors.APIError{StatusCode: http.StatusTooManyRequests, RetryAfter: 12 * time.Second}
	assert.Equal(t, 12*time.Second, p.Delay(0, withHint), "Retry-After wins when larger")
	assert.Equal(t, 16*time.Second, p.Delay(4, withHint), "backoff wins when larger")

	huge := &errors.APIError{StatusCode: http.StatusTooManyRequests, RetryAfter: time.Hour}
	assert.Equal(t, 30*time.Second, p.Delay(0, huge), "Retry-After is still capped")
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := retry.Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Hour,
		MaxDelay:    time.Hour,
	}

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, func(context.Context) error {
			calls++
			return rateLimited()
		})
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Do did not return after cancel")
	}
	assert.LessOrEqual(t, calls, 1)
}

func TestWithRetry(t *testing.T) {
	rec := &recorder{}
	p := testPolicy(rec)

	assert.True(t, p.WithRetry(context.Background(), func(context.Context) error { return nil }))
	assert.False(t, p.WithRetry(context.Background(), func(context.Context) error { return rateLimited() }))
	assert.False(t, p.WithRetry(context.Background(), func(context.Context) error { return errors.ErrNotFound }))
}

func TestDefault(t *testing.T) {
	p := retry.Default()
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, time.Second, p.BaseDelay)
	assert.Equal(t, 30*time.Second, p.MaxDelay)
}
