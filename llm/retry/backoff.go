// Package retry drives bounded retry attempts with exponential backoff for
// retryable inference failures.
package retry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DandaAkhilReddy/ReddyFitV2/llm"
)

// Policy configures the retry loop.
type Policy struct {
	// MaxAttempts is the total attempt budget, including the first call.
	MaxAttempts int
	// InitialDelay is the wait before the second attempt; each subsequent
	// wait is multiplied by Multiplier.
	InitialDelay time.Duration
	Multiplier   float64
	// OnRetry, if set, is invoked with (attemptJustFailed, MaxAttempts)
	// before each backoff wait so callers can surface progress.
	OnRetry func(failed, max int)
}

// DefaultPolicy returns the production policy: 3 total attempts with waits
// of 2 s then 4 s between them.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxAttempts:  3,
		InitialDelay: 2 * time.Second,
		Multiplier:   2.0,
	}
}

// Retryer executes attempt functions under a Policy.
type Retryer interface {
	// Do runs fn up to the attempt budget. Non-retryable classifications
	// propagate immediately; a retryable failure that exhausts the budget
	// is replaced by the normalized overloaded error.
	Do(ctx context.Context, fn func() error) error
}

type backoffRetryer struct {
	policy *Policy
	logger *zap.Logger
}

// New creates an exponential-backoff retryer. A nil policy gets defaults;
// out-of-range fields are clamped.
func New(policy *Policy, logger *zap.Logger) Retryer {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.InitialDelay <= 0 {
		policy.InitialDelay = 2 * time.Second
	}
	if policy.Multiplier < 1.0 {
		policy.Multiplier = 2.0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &backoffRetryer{policy: policy, logger: logger}
}

func (r *backoffRetryer) Do(ctx context.Context, fn func() error) error {
	delay := r.policy.InitialDelay

	var classified *llm.Error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				r.logger.Info("attempt succeeded after retry", zap.Int("attempt", attempt))
			}
			return nil
		}

		classified = llm.Classify(err)
		if !classified.Retryable {
			r.logger.Debug("failure is not retryable",
				zap.String("kind", string(classified.Kind)),
				zap.Error(classified),
			)
			return classified
		}

		if attempt == r.policy.MaxAttempts {
			break
		}

		if r.policy.OnRetry != nil {
			r.policy.OnRetry(attempt, r.policy.MaxAttempts)
		}
		r.logger.Debug("retrying after backoff",
			zap.Int("failed_attempt", attempt),
			zap.Int("max_attempts", r.policy.MaxAttempts),
			zap.Duration("delay", delay),
			zap.Error(classified),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry canceled: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * r.policy.Multiplier)
	}

	r.logger.Warn("retry budget exhausted",
		zap.Int("attempts", r.policy.MaxAttempts),
		zap.Error(classified),
	)
	return llm.ErrOverloaded
}
