package portalauth

import (
	"errors"

	"github.com/charansai0108/portal-auth/internal/rate"
	"github.com/charansai0108/portal-auth/otp"
	"github.com/charansai0108/portal-auth/password"
	"github.com/charansai0108/portal-auth/session"
	"github.com/charansai0108/portal-auth/token"
	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by portal-auth APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  *redis.Client

	store     Store
	mailer    Mailer
	auditSink AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore describes the withstore operation and its observable behavior.
//
// WithStore may return an error when input validation, dependency calls, or security checks fail.
// WithStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithStore(store Store) *Builder {
	b.store = store
	return b
}

// WithRedis attaches a Redis client used for rate limiting. Optional:
// an engine built without Redis runs unthrottled.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithMailer describes the withmailer operation and its observable behavior.
//
// WithMailer may return an error when input validation, dependency calls, or security checks fail.
// WithMailer does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMailer(mailer Mailer) *Builder {
	b.mailer = mailer
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	if sink != nil {
		b.config.Audit.Enabled = true
	}
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.store == nil {
		return nil, errors.New("store required")
	}

	engine := &Engine{
		config: cloneConfig(cfg),
		users:  b.store,
	}

	otpEngine, err := otp.NewEngine(b.store, otp.Config{
		Digits:           cfg.OTP.Digits,
		VerifyEmailTTL:   cfg.OTP.VerifyEmailTTL,
		ResetPasswordTTL: cfg.OTP.ResetPasswordTTL,
	})
	if err != nil {
		return nil, err
	}
	engine.otpEngine = otpEngine

	tm, err := token.NewManager(token.Config{
		Secret:    cloneBytes(cfg.Token.Secret),
		Issuer:    cfg.Token.Issuer,
		AccessTTL: cfg.Token.AccessTTL,
		Leeway:    cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}
	engine.tokens = tm

	sm, err := session.NewManager(b.store, tm, session.Config{
		RefreshTTL: cfg.Session.RefreshTTL,
		Rotate:     cfg.Session.RotateRefreshTokens,
	})
	if err != nil {
		return nil, err
	}
	engine.sessions = sm

	ph, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	engine.passwordHash = ph

	if b.redis != nil {
		engine.rateLimiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle:      cfg.Security.EnableIPThrottle,
			MaxOTPRequests:        cfg.Security.MaxOTPRequests,
			OTPRequestWindow:      cfg.Security.OTPRequestWindow,
			MaxOTPAttempts:        cfg.Security.MaxOTPAttempts,
			OTPAttemptWindow:      cfg.Security.OTPAttemptWindow,
			MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
			LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
		})
	}

	if b.mailer != nil {
		engine.mailer = b.mailer
	} else {
		engine.mailer = NoOpMailer{}
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
