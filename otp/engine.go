package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Purpose scopes a one-time code to the flow allowed to consume it.
type Purpose string

const (
	// PurposeVerifyEmail scopes codes to the registration flow.
	PurposeVerifyEmail Purpose = "VERIFY_EMAIL"
	// PurposeResetPassword scopes codes to the password reset flow.
	PurposeResetPassword Purpose = "RESET_PASSWORD"
)

var (
	// ErrNoMatch is returned when no unused, unexpired code matches a
	// verify call. Wrong code and expired code are deliberately
	// indistinguishable.
	ErrNoMatch = errors.New("no matching code")
	// ErrUnavailable wraps a store failure, as opposed to a code that
	// simply did not match.
	ErrUnavailable = errors.New("otp store unavailable")
)

// Code is a persisted one-time code row. Rows are effectively immutable
// after use; UsedAt records when the code was consumed and drives the
// recency window check.
type Code struct {
	Email     string
	Code      string
	Purpose   Purpose
	Used      bool
	UsedAt    *time.Time
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Store is the persistence contract for one-time codes. Implementations
// must make InvalidateThenCreate and ConsumeLatest atomic with respect to
// concurrent calls for the same (email, purpose).
type Store interface {
	// InvalidateThenCreate marks every unused, unexpired row for the
	// record's (email, purpose) as used and inserts the new row, in one
	// transaction.
	InvalidateThenCreate(ctx context.Context, rec Code, now time.Time) error

	// ConsumeLatest marks the most recent row matching (email, code,
	// purpose, unused, unexpired) as used at now. Returns ErrNoMatch when
	// no such row exists.
	ConsumeLatest(ctx context.Context, email, code string, purpose Purpose, now time.Time) error

	// LatestUsedAfter reports whether a used row for (email, purpose) was
	// consumed strictly after cutoff.
	LatestUsedAfter(ctx context.Context, email string, purpose Purpose, cutoff time.Time) (bool, error)
}

// Config defines a public type used by portal-auth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Digits           int
	VerifyEmailTTL   time.Duration
	ResetPasswordTTL time.Duration

	// Clock overrides time.Now. Intended for tests.
	Clock func() time.Time
}

// Engine issues, verifies, and checks recency of one-time codes.
type Engine struct {
	store Store
	cfg   Config
}

// NewEngine describes the newengine operation and its observable behavior.
//
// NewEngine may return an error when input validation, dependency calls, or security checks fail.
// NewEngine does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewEngine(store Store, cfg Config) (*Engine, error) {
	if store == nil {
		return nil, errors.New("otp store required")
	}
	if cfg.Digits < 4 || cfg.Digits > 10 {
		return nil, errors.New("otp digits must be between 4 and 10")
	}
	if cfg.VerifyEmailTTL <= 0 || cfg.ResetPasswordTTL <= 0 {
		return nil, errors.New("otp ttl must be positive")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Engine{store: store, cfg: cfg}, nil
}

// TTL returns the issue lifetime for the given purpose.
func (e *Engine) TTL(purpose Purpose) time.Duration {
	if purpose == PurposeResetPassword {
		return e.cfg.ResetPasswordTTL
	}
	return e.cfg.VerifyEmailTTL
}

// Issue invalidates any live code for (email, purpose) and stores a fresh
// uniformly random numeric code. The code and its expiry are returned to
// the caller, which is responsible for dispatching it.
func (e *Engine) Issue(ctx context.Context, email string, purpose Purpose) (string, time.Time, error) {
	code, err := generateCode(e.cfg.Digits)
	if err != nil {
		return "", time.Time{}, err
	}

	now := e.cfg.Clock()
	expiresAt := now.Add(e.TTL(purpose))

	rec := Code{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	if err := e.store.InvalidateThenCreate(ctx, rec, now); err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return code, expiresAt, nil
}

// Verify consumes the matching live code. A second call with the same
// arguments fails with ErrNoMatch: single use is the point.
func (e *Engine) Verify(ctx context.Context, email, code string, purpose Purpose) error {
	if len(code) != e.cfg.Digits || !isNumeric(code) {
		return ErrNoMatch
	}

	err := e.store.ConsumeLatest(ctx, email, code, purpose, e.cfg.Clock())
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNoMatch) {
		return ErrNoMatch
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// WasRecentlyVerified reports whether a code for (email, purpose) was
// consumed within the trailing window.
func (e *Engine) WasRecentlyVerified(ctx context.Context, email string, purpose Purpose, window time.Duration) (bool, error) {
	ok, err := e.store.LatestUsedAfter(ctx, email, purpose, e.cfg.Clock().Add(-window))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ok, nil
}

// generateCode draws each digit independently so every code in
// [0, 10^digits) is equally likely; leading zeros are valid output.
func generateCode(digits int) (string, error) {
	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	code := b.String()
	if len(code) != digits {
		return "", fmt.Errorf("invalid code generation length")
	}
	return code, nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
