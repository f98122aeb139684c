package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// RetryPolicy bounds how hard we lean on a flaky classifier before giving up.
type RetryPolicy struct {
	MaxRetries      uint64        // retries after the first attempt
	InitialInterval time.Duration // first backoff delay
	MaxInterval     time.Duration // backoff ceiling
	CallTimeout     time.Duration // per-attempt deadline
}

// DefaultRetryPolicy mirrors the bounds the system was tuned with: three
// attempts total, exponential waits between 4s and 60s, 30s per call.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      2,
		InitialInterval: 4 * time.Second,
		MaxInterval:     60 * time.Second,
		CallTimeout:     30 * time.Second,
	}
}

// RetryClient wraps an LLMClient with a per-call timeout and bounded
// exponential backoff. Exhausting retries returns the last error; callers
// translate that into a no-merge fallback, never a pipeline abort.
type RetryClient struct {
	inner  LLMClient
	policy RetryPolicy
	log    zerolog.Logger
}

func NewRetryClient(inner LLMClient, policy RetryPolicy, log zerolog.Logger) *RetryClient {
	return &RetryClient{inner: inner, policy: policy, log: log}
}

func (c *RetryClient) Generate(ctx context.Context, prompt string) (string, error) {
	var response string

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.policy.InitialInterval
	b.MaxInterval = c.policy.MaxInterval
	b.MaxElapsedTime = 0 // attempts are bounded by MaxRetries, not wall clock

	operation := func() error {
		callCtx := ctx
		if c.policy.CallTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.policy.CallTimeout)
			defer cancel()
		}

		out, err := c.inner.Generate(callCtx, prompt)
		if err != nil {
			return err
		}
		response = out
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.log.Warn().Err(err).Dur("backoff", wait).Msg("classifier call failed, retrying")
	}

	err := backoff.RetryNotify(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(b, c.policy.MaxRetries), ctx),
		notify,
	)
	if err != nil {
		return "", err
	}
	return response, nil
}
