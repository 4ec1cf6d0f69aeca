package gemini

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func rateLimitErr() error {
	return genai.APIError{Code: 429, Message: "resource exhausted", Status: "RESOURCE_EXHAUSTED"}
}

func TestWithRetryReturnsSuccessAfterRateLimits(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 2, InitialDelay: 5 * time.Millisecond, Multiplier: 2}

	attempts := 0
	var gaps []time.Duration
	last := time.Now()

	text, err := withRetry(context.Background(), policy, "extract", func(context.Context) (string, error) {
		gaps = append(gaps, time.Since(last))
		last = time.Now()
		attempts++
		if attempts < 3 {
			return "", rateLimitErr()
		}
		return "third time lucky", nil
	})
	require.NoError(t, err)
	require.Equal(t, "third time lucky", text)
	require.Equal(t, 3, attempts)

	// First call is immediate; the two retries wait 5ms then 10ms.
	require.Len(t, gaps, 3)
	require.GreaterOrEqual(t, gaps[1], 5*time.Millisecond)
	require.GreaterOrEqual(t, gaps[2], 10*time.Millisecond)
}

func TestWithRetryExhaustsBudgetAndSurfacesLastError(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 2, InitialDelay: time.Millisecond, Multiplier: 2}

	attempts := 0
	_, err := withRetry(context.Background(), policy, "answer", func(context.Context) (string, error) {
		attempts++
		return "", rateLimitErr()
	})
	require.Error(t, err)
	require.Equal(t, 3, attempts)
	require.True(t, IsRateLimited(err))
}

func TestWithRetryCredentialFailureIsImmediate(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 2, InitialDelay: time.Millisecond, Multiplier: 2}

	attempts := 0
	_, err := withRetry(context.Background(), policy, "extract", func(context.Context) (string, error) {
		attempts++
		return "", genai.APIError{Code: 401, Message: "API key not valid", Status: "UNAUTHENTICATED"}
	})
	require.Error(t, err)
	require.Equal(t, 1, attempts)
	require.True(t, IsInvalidCredential(err))
	require.False(t, IsRateLimited(err))
}

func TestWithRetryOtherFailureIsImmediate(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 2, InitialDelay: time.Millisecond, Multiplier: 2}

	boom := errors.New("connection reset")
	attempts := 0
	_, err := withRetry(context.Background(), policy, "extract", func(context.Context) (string, error) {
		attempts++
		return "", boom
	})
	require.Error(t, err)
	require.Equal(t, 1, attempts)
	require.ErrorIs(t, err, boom)

	var classified *Error
	require.ErrorAs(t, err, &classified)
	require.Equal(t, KindUnavailable, classified.Kind)
}

func TestWithRetryStopsOnContextCancel(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 5, InitialDelay: time.Hour, Multiplier: 2}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := withRetry(ctx, policy, "extract", func(context.Context) (string, error) {
		return "", rateLimitErr()
	})
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDefaultRetryPolicy(t *testing.T) {
	policy := DefaultRetryPolicy()
	require.Equal(t, 2, policy.MaxRetries)
	require.Equal(t, 2*time.Second, policy.InitialDelay)
	require.Equal(t, 2, policy.Multiplier)
}
