package portalauth

import (
	"strings"
	"time"

	"github.com/charansai0108/portal-auth/internal/rate"
	"github.com/charansai0108/portal-auth/otp"
	"github.com/charansai0108/portal-auth/password"
	"github.com/charansai0108/portal-auth/session"
	"github.com/charansai0108/portal-auth/token"
)

// Engine defines a public type used by portal-auth APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config       Config
	users        UserProvider
	otpEngine    *otp.Engine
	tokens       *token.Manager
	sessions     *session.Manager
	rateLimiter  *rate.Limiter
	mailer       Mailer
	audit        *auditDispatcher
	metrics      *Metrics
	passwordHash *password.Hasher
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Validate parses and validates a stateless access token. Returns the
// subject and role on success.
func (e *Engine) Validate(accessToken string) (*ValidateResult, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	claims, err := e.tokens.ParseAccess(accessToken)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricValidateLatency, time.Since(start))
	}
	if err != nil {
		return nil, ErrTokenInvalid
	}

	return &ValidateResult{
		UserID: claims.UID,
		Role:   Role(claims.Role),
	}, nil
}

// normalizeEmail lowercases and trims the address. All store lookups and
// OTP scopes use the normalized form.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	if strings.IndexByte(domain, '@') >= 0 {
		return false
	}
	dot := strings.IndexByte(domain, '.')
	if dot <= 0 || dot == len(domain)-1 {
		return false
	}
	return len(email) <= 254
}
