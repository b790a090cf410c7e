package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrTokenInvalid is returned for unknown, already-used, or expired reset
// tokens.
var ErrTokenInvalid = errors.New("reset token is invalid or expired")

// resetTokenTTL is how long a password reset link stays usable.
const resetTokenTTL = time.Hour

// CreateResetToken issues a single-use password reset token for the user
// registered under the given email.
func (s *Store) CreateResetToken(ctx context.Context, email string) (string, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	token := uuid.NewString()
	expiresAt := time.Now().UTC().Add(resetTokenTTL)

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO reset_tokens (token, user_id, expires_at) VALUES (?, ?, ?)",
		token, u.ID, expiresAt)
	if err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}
	return token, nil
}

// ConsumeResetToken validates the token, deletes it, and sets the user's
// password. The token is spent even if it turns out to be expired.
func (s *Store) ConsumeResetToken(ctx context.Context, token, newPassword string) error {
	var row struct {
		UserID    int64     `db:"user_id"`
		ExpiresAt time.Time `db:"expires_at"`
	}
	err := s.db.GetContext(ctx, &row,
		"SELECT user_id, expires_at FROM reset_tokens WHERE token = ?", token)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTokenInvalid
	}
	if err != nil {
		return fmt.Errorf("failed to look up reset token: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM reset_tokens WHERE token = ?", token); err != nil {
		return fmt.Errorf("failed to delete reset token: %w", err)
	}

	if time.Now().UTC().After(row.ExpiresAt) {
		return ErrTokenInvalid
	}

	return s.SetPassword(ctx, row.UserID, newPassword)
}
