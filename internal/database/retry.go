package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
)

const maxReadRetries = 3

// Transient reports whether err is a connection-level failure worth retrying
// for an idempotent read.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, driver.ErrBadConn) || pgconn.SafeToRetry(err) || pgconn.Timeout(err)
}

// RetryRead runs an idempotent read, retrying transient failures with
// exponential backoff. Writes must never go through here.
func RetryRead[T any](ctx context.Context, read func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second

	policy := backoff.WithContext(backoff.WithMaxRetries(b, maxReadRetries), ctx)

	return backoff.RetryWithData(func() (T, error) {
		v, err := read()
		if err != nil && !Transient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, policy)
}
