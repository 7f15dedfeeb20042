package retry

import "context"

// DoTyped is a type-safe wrapper around Retryer.Do for attempt functions
// that produce a result.
//
// Usage:
//
//	plan, err := retry.DoTyped(r, ctx, func() (*WorkoutPlan, error) {
//	    return fetchPlan()
//	})
func DoTyped[T any](r Retryer, ctx context.Context, fn func() (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func() error {
		var attemptErr error
		result, attemptErr = fn()
		return attemptErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
