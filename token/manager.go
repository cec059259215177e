package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose restricts which flow may consume an ephemeral token.
type Purpose string

const (
	// PurposeVerification is an exported constant or variable used by the placement auth engine.
	PurposeVerification Purpose = "verification"
	// PurposePasswordReset is an exported constant or variable used by the placement auth engine.
	PurposePasswordReset Purpose = "password_reset"
)

var (
	// ErrInvalid is returned for any token that fails signature, expiry,
	// issuer, or structural checks.
	ErrInvalid = errors.New("invalid token")
	// ErrPurposeMismatch is returned when a structurally valid token
	// carries the wrong purpose tag for the flow consuming it.
	ErrPurposeMismatch = errors.New("token purpose mismatch")
)

// Config defines a public type used by portal-auth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// Secret is the process-wide HMAC signing key, injected at startup.
	Secret    []byte
	Issuer    string
	AccessTTL time.Duration
	Leeway    time.Duration

	// Clock overrides time.Now. Intended for tests.
	Clock func() time.Time
}

// Manager defines a public type used by portal-auth APIs.
//
// Manager instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Manager struct {
	config Config
}

// PurposeClaims is the payload of an ephemeral token. UserID is set only
// on reset tokens; verification tokens identify the subject by email
// alone, since the account may not exist yet.
type PurposeClaims struct {
	Email   string `json:"email"`
	UserID  string `json:"uid,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// AccessClaims is the payload of a stateless access token.
type AccessClaims struct {
	UID  string `json:"uid"`
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// NewManager describes the newmanager operation and its observable behavior.
//
// NewManager may return an error when input validation, dependency calls, or security checks fail.
// NewManager does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("signing secret must be at least 32 bytes")
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Manager{config: cfg}, nil
}

// MintPurpose describes the mintpurpose operation and its observable behavior.
//
// MintPurpose may return an error when input validation, dependency calls, or security checks fail.
// MintPurpose does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) MintPurpose(email, userID string, purpose Purpose, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("invalid ephemeral token ttl")
	}

	now := m.config.Clock()
	claims := PurposeClaims{
		Email:   email,
		UserID:  userID,
		Purpose: string(purpose),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// VerifyPurpose describes the verifypurpose operation and its observable behavior.
//
// VerifyPurpose may return an error when input validation, dependency calls, or security checks fail.
// VerifyPurpose does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) VerifyPurpose(tokenStr string, expected Purpose) (*PurposeClaims, error) {
	token, err := m.parser().ParseWithClaims(tokenStr, &PurposeClaims{}, m.keyFunc)
	if err != nil {
		return nil, ErrInvalid
	}

	claims, ok := token.Claims.(*PurposeClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalid
	}
	if claims.Purpose != string(expected) {
		return nil, ErrPurposeMismatch
	}

	return claims, nil
}

// CreateAccess describes the createaccess operation and its observable behavior.
//
// CreateAccess may return an error when input validation, dependency calls, or security checks fail.
// CreateAccess does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) CreateAccess(userID, role string) (string, error) {
	now := m.config.Clock()
	claims := AccessClaims{
		UID:  userID,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// ParseAccess describes the parseaccess operation and its observable behavior.
//
// ParseAccess may return an error when input validation, dependency calls, or security checks fail.
// ParseAccess does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) ParseAccess(tokenStr string) (*AccessClaims, error) {
	token, err := m.parser().ParseWithClaims(tokenStr, &AccessClaims{}, m.keyFunc)
	if err != nil {
		return nil, ErrInvalid
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid || claims.UID == "" {
		return nil, ErrInvalid
	}

	return claims, nil
}

func (m *Manager) parser() *jwt.Parser {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.config.Clock),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	return jwt.NewParser(options...)
}

func (m *Manager) keyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, errors.New("unexpected signing algorithm")
	}
	return m.config.Secret, nil
}
