package gemini

import (
	"context"
	"time"
)

// RetryPolicy bounds the backoff applied to rate-limited calls.
// MaxRetries counts retries beyond the first attempt.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	Multiplier   int
}

// DefaultRetryPolicy matches the service quota recovery window: 2s then 4s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   2,
		InitialDelay: 2 * time.Second,
		Multiplier:   2,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = 2 * time.Second
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2
	}
	return p
}

// withRetry runs call under the bounded backoff envelope.
// Only rate-limit-classified failures are retried; everything else, credential
// failures included, surfaces immediately.
func withRetry(ctx context.Context, policy RetryPolicy, op string, call func(context.Context) (string, error)) (string, error) {
	policy = policy.normalized()
	delay := policy.InitialDelay

	var lastErr *Error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		text, err := call(ctx)
		if err == nil {
			return text, nil
		}

		lastErr = classify(op, err)
		if lastErr.Kind != KindRateLimited || attempt == policy.MaxRetries {
			return "", lastErr
		}

		select {
		case <-ctx.Done():
			return "", &Error{Kind: KindUnavailable, Op: op, Err: ctx.Err()}
		case <-time.After(delay):
		}
		delay *= time.Duration(policy.Multiplier)
	}

	return "", lastErr
}
