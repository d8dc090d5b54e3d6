package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/caretrain/session-booking/internal/utils"
)

// TokenRepo persists and validates refresh tokens.  Callers hand over
// raw tokens; hashing happens here, on the way in, so a raw token never
// reaches a query argument or a stored row.  A leaked refresh_tokens
// table therefore cannot refresh anyone's session.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh records a freshly issued raw token for a user.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, raw string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, utils.HashRefreshRaw(raw), exp.UTC())
	return err
}

// ValidateRefresh resolves a raw token to its owning user.  Unknown,
// revoked and expired tokens are indistinguishable to the caller: all
// three come back as sql.ErrNoRows so responses cannot leak which case
// applied.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, raw string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		utils.HashRefreshRaw(raw)).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		return 0, err
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return 0, sql.ErrNoRows
	}
	return userID, nil
}

// Revoke marks a single raw token as revoked.  Already-revoked and
// unknown tokens are a no-op, which keeps logout idempotent.
func (r *TokenRepo) Revoke(ctx context.Context, raw string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		utils.HashRefreshRaw(raw))
	return err
}

// RevokeAllForUser revokes every active token of a user, used when the
// user logs out of all devices.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
