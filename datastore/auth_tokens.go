package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coreybb/timetrack/models"
)

// TokenRepository handles database operations for auth tokens.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// GetOrCreateToken returns the user's existing token, storing candidateKey
// only when the user has none yet. Concurrent callers converge on one row
// through the UNIQUE(user_id) constraint.
func (r *TokenRepository) GetOrCreateToken(ctx context.Context, userID int64, candidateKey string) (*models.AuthToken, error) {
	insert := `
		INSERT INTO auth_tokens (key, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, insert, candidateKey, userID); err != nil {
		return nil, fmt.Errorf("failed to store token for user %d: %w", userID, mapError(err))
	}

	var token models.AuthToken
	err := r.db.QueryRowContext(ctx,
		`SELECT key, user_id, created_at FROM auth_tokens WHERE user_id = $1`,
		userID,
	).Scan(&token.Key, &token.UserID, &token.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read token for user %d: %w", userID, mapError(err))
	}
	return &token, nil
}

// GetUserByTokenKey resolves a token key to its owner.
func (r *TokenRepository) GetUserByTokenKey(ctx context.Context, key string) (*models.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.first_name, u.last_name, u.password_hash, u.date_joined
		FROM auth_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.key = $1
	`
	var user models.User
	if err := scanUser(r.db.QueryRowContext(ctx, query, key), &user); err != nil {
		return nil, fmt.Errorf("failed to resolve token: %w", mapError(err))
	}
	return &user, nil
}
