package store

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/zaqqye/vdi_docgen/internal/models"
)

// Retrying re-runs a whole read-modify-write when the backend reports
// ErrConflict. Any other error ends the attempt at once.
type Retrying struct {
	Store
	attempts int
	base     time.Duration
}

// WithRetry wraps s. attempts below 2 disables retrying.
func WithRetry(s Store, attempts int, base time.Duration) Store {
	if attempts < 2 {
		return s
	}
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	return &Retrying{Store: s, attempts: attempts, base: base}
}

func (r *Retrying) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.base
	b.MaxInterval = 8 * r.base
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.attempts-1)), ctx)
}

func retryConflicts[T any](ctx context.Context, r *Retrying, op func() (T, error)) (T, error) {
	return backoff.RetryWithData(func() (T, error) {
		v, err := op()
		if err != nil && !errors.Is(err, ErrConflict) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, r.policy(ctx))
}

// Append fixes id and timestamp before the first attempt so every retry
// writes the same record. The time comes from the wrapped store's clock.
func (r *Retrying) Append(ctx context.Context, rec models.Submission) (models.Submission, error) {
	now := Clock(nil).now
	if c, ok := r.Store.(clocked); ok {
		now = c.now
	}
	rec = prepare(rec, now())
	return retryConflicts(ctx, r, func() (models.Submission, error) {
		return r.Store.Append(ctx, rec)
	})
}

func (r *Retrying) Replace(ctx context.Context, id string, rec models.Submission) (models.Submission, error) {
	return retryConflicts(ctx, r, func() (models.Submission, error) {
		return r.Store.Replace(ctx, id, rec)
	})
}
