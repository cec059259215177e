package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charansai0108/portal-auth/internal"
	"github.com/charansai0108/portal-auth/token"
)

var (
	// ErrInvalidRefresh is returned when a presented refresh token is
	// unknown or expired. The two cases are not distinguished.
	ErrInvalidRefresh = errors.New("invalid refresh token")
	// ErrNotFound is the store-level sentinel for a missing refresh row.
	ErrNotFound = errors.New("refresh token not found")
	// ErrUnavailable is an exported constant or variable used by the placement auth engine.
	ErrUnavailable = errors.New("refresh store unavailable")
)

// RefreshRecord is a persisted refresh token row. TokenHash is the hex
// SHA-256 digest of the opaque value; Role is denormalized so a refresh
// does not require an account lookup.
type RefreshRecord struct {
	UserID    string
	Role      string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// RefreshStore is the persistence contract for refresh tokens.
// DeleteRefreshToken must be idempotent: deleting an absent row is not an
// error. ReplaceRefreshToken must delete the old row and insert the new
// one atomically.
type RefreshStore interface {
	CreateRefreshToken(ctx context.Context, rec RefreshRecord) error
	GetRefreshToken(ctx context.Context, tokenHash string) (RefreshRecord, error)
	DeleteRefreshToken(ctx context.Context, tokenHash string) error
	ReplaceRefreshToken(ctx context.Context, oldHash string, rec RefreshRecord) error
	PruneExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error)
}

// Config defines a public type used by portal-auth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	RefreshTTL time.Duration
	Rotate     bool

	// Clock overrides time.Now. Intended for tests.
	Clock func() time.Time
}

// Manager defines a public type used by portal-auth APIs.
//
// Manager instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Manager struct {
	store  RefreshStore
	tokens *token.Manager
	cfg    Config
}

// NewManager describes the newmanager operation and its observable behavior.
//
// NewManager may return an error when input validation, dependency calls, or security checks fail.
// NewManager does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewManager(store RefreshStore, tokens *token.Manager, cfg Config) (*Manager, error) {
	if store == nil {
		return nil, errors.New("refresh store required")
	}
	if tokens == nil {
		return nil, errors.New("token manager required")
	}
	if cfg.RefreshTTL <= 0 {
		return nil, errors.New("refresh ttl must be positive")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Manager{store: store, tokens: tokens, cfg: cfg}, nil
}

// Issue mints an access token and persists a fresh refresh token for the
// user. The raw refresh value is returned once and never stored.
func (m *Manager) Issue(ctx context.Context, userID, role string) (string, string, error) {
	accessToken, err := m.tokens.CreateAccess(userID, role)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := internal.NewRefreshToken()
	if err != nil {
		return "", "", err
	}

	now := m.cfg.Clock()
	rec := RefreshRecord{
		UserID:    userID,
		Role:      role,
		TokenHash: internal.HashToken(refreshToken),
		ExpiresAt: now.Add(m.cfg.RefreshTTL),
		CreatedAt: now,
	}
	if err := m.store.CreateRefreshToken(ctx, rec); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return accessToken, refreshToken, nil
}

// Refresh redeems a refresh token for a new access token. The returned
// refresh token is empty unless rotation is enabled, in which case the
// presented token has been invalidated.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	if refreshToken == "" {
		return "", "", ErrInvalidRefresh
	}

	hash := internal.HashToken(refreshToken)
	rec, err := m.store.GetRefreshToken(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", "", ErrInvalidRefresh
		}
		return "", "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	now := m.cfg.Clock()
	if !now.Before(rec.ExpiresAt) {
		return "", "", ErrInvalidRefresh
	}

	accessToken, err := m.tokens.CreateAccess(rec.UserID, rec.Role)
	if err != nil {
		return "", "", err
	}

	if !m.cfg.Rotate {
		return accessToken, "", nil
	}

	rotated, err := internal.NewRefreshToken()
	if err != nil {
		return "", "", err
	}
	next := RefreshRecord{
		UserID:    rec.UserID,
		Role:      rec.Role,
		TokenHash: internal.HashToken(rotated),
		ExpiresAt: now.Add(m.cfg.RefreshTTL),
		CreatedAt: now,
	}
	if err := m.store.ReplaceRefreshToken(ctx, hash, next); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return accessToken, rotated, nil
}

// Revoke deletes the refresh row for the presented token. Revoking an
// absent or already-revoked token succeeds: logout is idempotent.
func (m *Manager) Revoke(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := m.store.DeleteRefreshToken(ctx, internal.HashToken(refreshToken)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// PruneExpired removes refresh rows that expired before now. Optional
// storage hygiene; correctness never depends on it.
func (m *Manager) PruneExpired(ctx context.Context) (int64, error) {
	return m.store.PruneExpiredRefreshTokens(ctx, m.cfg.Clock())
}
