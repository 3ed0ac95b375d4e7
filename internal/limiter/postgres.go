package limiter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of a pgx pool the limiter needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PG keeps per (phone, client) failure counters in the login_limiter table.
// Timestamps come from the limiter's clock, not the database's.
type PG struct {
	db       Querier
	window   time.Duration
	maxFails int
	blockFor time.Duration
	now      func() time.Time
}

// NewPG constructs a PostgreSQL-backed limiter: maxFails failures within
// window lock the pair out for blockFor.
func NewPG(db Querier, window time.Duration, maxFails int, blockFor time.Duration) *PG {
	return &PG{db: db, window: window, maxFails: maxFails, blockFor: blockFor, now: time.Now}
}

// Allow reports whether login is currently allowed and a retry-after duration.
func (l *PG) Allow(ctx context.Context, phone string, ipHash []byte) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM login_limiter WHERE phone=$1 AND ip_hash=$2`
	var until time.Time
	err := l.db.QueryRow(ctx, q, phone, ipHash).Scan(&until)
	if errors.Is(err, pgx.ErrNoRows) {
		return true, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	if now := l.now(); until.After(now) {
		return false, until.Sub(now), nil
	}
	return true, 0, nil
}

// Success clears the counter and any lockout.
func (l *PG) Success(ctx context.Context, phone string, ipHash []byte) error {
	const q = `
INSERT INTO login_limiter (phone, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1, $2, 0, 'epoch', $3)
ON CONFLICT (phone, ip_hash)
DO UPDATE SET fail_count = 0, blocked_until = 'epoch', updated_at = $3`
	_, err := l.db.Exec(ctx, q, phone, ipHash, l.now().UTC())
	return err
}

// Failure counts a failed attempt. A counter last touched before the window
// started restarts at 1. Reaching maxFails sets blocked_until.
func (l *PG) Failure(ctx context.Context, phone string, ipHash []byte) (bool, time.Duration, error) {
	const q = `
INSERT INTO login_limiter (phone, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1, $2, 1, 'epoch', $3)
ON CONFLICT (phone, ip_hash) DO UPDATE SET
  fail_count = CASE WHEN login_limiter.updated_at < $4 THEN 1 ELSE login_limiter.fail_count + 1 END,
  updated_at = $3
RETURNING fail_count`
	now := l.now().UTC()
	var fails int
	if err := l.db.QueryRow(ctx, q, phone, ipHash, now, now.Add(-l.window)).Scan(&fails); err != nil {
		return false, 0, err
	}
	if fails < l.maxFails {
		return false, 0, nil
	}

	const block = `UPDATE login_limiter SET blocked_until=$3 WHERE phone=$1 AND ip_hash=$2`
	if _, err := l.db.Exec(ctx, block, phone, ipHash, now.Add(l.blockFor)); err != nil {
		return false, 0, err
	}
	return true, l.blockFor, nil
}
