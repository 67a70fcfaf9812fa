package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrLockHeld is returned by AcquireLock when lock_name is currently held
// by a non-expired holder.
var ErrLockHeld = errors.New("store: lock held")

// AcquireLock implements §4.4's distributed-lock acquisition: INSERT under
// the unique constraint on lock_name; on conflict, steal if the existing
// row has expired. Returns a holder token that must be presented to
// ReleaseLock — this prevents an unrelated caller from releasing a lock it
// does not hold.
func (s *Store) AcquireLock(ctx context.Context, lockName string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	expiresAt := time.Now().Add(ttl)

	tag, err := s.Pool.Exec(ctx, `
		INSERT INTO locks (lock_name, holder_token, acquired_at, expires_at)
		VALUES ($1, $2, now(), $3)
		ON CONFLICT (lock_name) DO UPDATE SET
			holder_token = EXCLUDED.holder_token,
			acquired_at = EXCLUDED.acquired_at,
			expires_at = EXCLUDED.expires_at
		WHERE locks.expires_at <= now()
	`, lockName, token, expiresAt)
	if err != nil {
		return "", fmt.Errorf("acquire lock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return "", ErrLockHeld
	}
	return token, nil
}

// ReleaseLock deletes the lock row only if holderToken still matches,
// preventing a caller from releasing a lock stolen out from under it after
// its own expiry.
func (s *Store) ReleaseLock(ctx context.Context, lockName, holderToken string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM locks WHERE lock_name = $1 AND holder_token = $2`, lockName, holderToken)
	return err
}
