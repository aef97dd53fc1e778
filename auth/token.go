package auth

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/coreybb/timetrack/models"
	"github.com/google/uuid"
)

// ErrUnauthenticated is returned when a request carries no token or one
// that does not resolve to a user.
var ErrUnauthenticated = errors.New("invalid or missing authentication token")

const keyLength = 40

// TokenIssuer hands out the API key a user authenticates with.
type TokenIssuer interface {
	IssueToken(ctx context.Context, userID int64) (string, error)
}

// TokenResolver maps an API key back to its user.
type TokenResolver interface {
	ResolveToken(ctx context.Context, key string) (*models.User, error)
}

// TokenStore is the persistence the Gateway needs.
type TokenStore interface {
	GetOrCreateToken(ctx context.Context, userID int64, candidateKey string) (*models.AuthToken, error)
	GetUserByTokenKey(ctx context.Context, key string) (*models.User, error)
}

// Gateway issues one persistent, non-expiring token per user.
type Gateway struct {
	store  TokenStore
	newKey func() string
}

func NewGateway(store TokenStore) *Gateway {
	return &Gateway{store: store, newKey: GenerateKey}
}

// IssueToken returns the user's token, minting one on first use.
// Repeated calls for the same user return the same key.
func (g *Gateway) IssueToken(ctx context.Context, userID int64) (string, error) {
	token, err := g.store.GetOrCreateToken(ctx, userID, g.newKey())
	if err != nil {
		return "", fmt.Errorf("failed to issue token for user %d: %w", userID, err)
	}
	return token.Key, nil
}

func (g *Gateway) ResolveToken(ctx context.Context, key string) (*models.User, error) {
	if key == "" {
		return nil, ErrUnauthenticated
	}
	user, err := g.store.GetUserByTokenKey(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to resolve token: %w", err)
	}
	return user, nil
}

// GenerateKey returns a random 40 character hex key.
func GenerateKey() string {
	a, b := uuid.New(), uuid.New()
	return (hex.EncodeToString(a[:]) + hex.EncodeToString(b[:]))[:keyLength]
}

// ParseAuthorizationHeader extracts the key from "Token <key>" or
// "Bearer <key>". The scheme is matched case-insensitively.
func ParseAuthorizationHeader(header string) (string, bool) {
	scheme, key, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found {
		return "", false
	}
	if !strings.EqualFold(scheme, "Token") && !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsRune(key, ' ') {
		return "", false
	}
	return key, true
}
