package storage

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Serializable transactions are rerun at most txRetries times.
const (
	txRetries   = 3
	txBaseDelay = 10 * time.Millisecond
)

// isRetriable reports whether Postgres aborted the transaction in a way that
// a clean rerun can succeed: a serialization failure or a detected deadlock.
func isRetriable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// retry calls fn until it succeeds, fails with a non-retriable error, or has
// been rerun maxRetries times. Waits double from baseDelay, with jitter.
func retry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func() error) error {
	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !isRetriable(err) || attempt == maxRetries {
			return err
		}
		wait := delay + time.Duration(rand.Int64N(int64(delay))) //nolint:gosec // jitter only
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		delay *= 2
	}
}

// inSerializableTx runs fn in a SERIALIZABLE transaction and reruns the whole
// transaction when Postgres aborts it with 40001 or 40P01. fn must be safe to
// run more than once.
func (db *DB) inSerializableTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return retry(ctx, txRetries, txBaseDelay, func() error {
		return pgx.BeginTxFunc(ctx, db.pool, pgx.TxOptions{IsoLevel: pgx.Serializable}, fn)
	})
}
