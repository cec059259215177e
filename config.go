package portalauth

import (
	"errors"
	"time"
)

// Config defines a public type used by portal-auth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Token    TokenConfig
	Session  SessionConfig
	OTP      OTPConfig
	Password PasswordConfig
	Account  AccountConfig
	Security SecurityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines a public type used by portal-auth APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	// Secret is the HMAC signing key shared by access and ephemeral
	// tokens. Injected at startup; never generated by the engine.
	Secret          []byte
	Issuer          string
	AccessTTL       time.Duration
	VerificationTTL time.Duration
	ResetTTL        time.Duration
	Leeway          time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by portal-auth APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	RefreshTTL          time.Duration
	RotateRefreshTokens bool
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig defines a public type used by portal-auth APIs.
//
// OTPConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OTPConfig struct {
	Digits           int
	VerifyEmailTTL   time.Duration
	ResetPasswordTTL time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by portal-auth APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	MinLength   int
}

// AccountConfig defines a public type used by portal-auth APIs.
//
// AccountConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AccountConfig struct {
	// RequireVerifiedEmail makes Register reject requests that do not
	// carry a valid verification token even when the store says the
	// email was recently verified.
	RequireVerifiedEmail bool
	// AllowedRoles lists the roles Register accepts. Empty means all
	// known roles.
	AllowedRoles []Role
	// VerificationWindow bounds how long ago the OTP verification may
	// have happened for Register to accept it.
	VerificationWindow time.Duration
	// ResetWindow bounds how long ago the reset OTP verification may
	// have happened for UpdatePassword to accept it.
	ResetWindow time.Duration
}

// AuditConfig defines a public type used by portal-auth APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by portal-auth APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig defines a public type used by portal-auth APIs.
//
// SecurityConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecurityConfig struct {
	EnableIPThrottle      bool
	MaxOTPRequests        int
	OTPRequestWindow      time.Duration
	MaxOTPAttempts        int
	OTPAttemptWindow      time.Duration
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
	// EnumerationDelay is the upper bound of the random sleep applied to
	// reset requests for unknown emails. Zero disables the delay.
	EnumerationDelay time.Duration
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:       15 * time.Minute,
			VerificationTTL: 10 * time.Minute,
			ResetTTL:        15 * time.Minute,
			Leeway:          0,
		},
		Session: SessionConfig{
			RefreshTTL:          7 * 24 * time.Hour,
			RotateRefreshTokens: false,
		},
		OTP: OTPConfig{
			Digits:           6,
			VerifyEmailTTL:   5 * time.Minute,
			ResetPasswordTTL: 10 * time.Minute,
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			MinLength:   8,
		},
		Account: AccountConfig{
			RequireVerifiedEmail: false,
			AllowedRoles:         nil,
			VerificationWindow:   10 * time.Minute,
			ResetWindow:          15 * time.Minute,
		},
		Security: SecurityConfig{
			EnableIPThrottle:      true,
			MaxOTPRequests:        5,
			OTPRequestWindow:      15 * time.Minute,
			MaxOTPAttempts:        5,
			OTPAttemptWindow:      15 * time.Minute,
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
			EnumerationDelay:      40 * time.Millisecond,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	if len(cfg.Account.AllowedRoles) > 0 {
		out.Account.AllowedRoles = make([]Role, len(cfg.Account.AllowedRoles))
		copy(out.Account.AllowedRoles, cfg.Account.AllowedRoles)
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Token
	if len(c.Token.Secret) < 32 {
		return errors.New("Token Secret must be at least 32 bytes")
	}
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token AccessTTL must be > 0")
	}
	if c.Token.VerificationTTL <= 0 {
		return errors.New("Token VerificationTTL must be > 0")
	}
	if c.Token.ResetTTL <= 0 {
		return errors.New("Token ResetTTL must be > 0")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be between 0 and 2m")
	}

	// Session
	if c.Session.RefreshTTL <= 0 {
		return errors.New("Session RefreshTTL must be > 0")
	}

	// OTP
	if c.OTP.Digits < 4 || c.OTP.Digits > 10 {
		return errors.New("OTP Digits must be between 4 and 10")
	}
	if c.OTP.VerifyEmailTTL <= 0 {
		return errors.New("OTP VerifyEmailTTL must be > 0")
	}
	if c.OTP.ResetPasswordTTL <= 0 {
		return errors.New("OTP ResetPasswordTTL must be > 0")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MinLength < 8 {
		return errors.New("Password MinLength must be >= 8")
	}

	// Account
	if c.Account.VerificationWindow <= 0 {
		return errors.New("Account VerificationWindow must be > 0")
	}
	if c.Account.ResetWindow <= 0 {
		return errors.New("Account ResetWindow must be > 0")
	}
	for _, role := range c.Account.AllowedRoles {
		switch role {
		case RoleStudent, RoleRecruiter, RoleAdmin:
		default:
			return errors.New("Account AllowedRoles contains an unknown role")
		}
	}

	// Security
	if c.Security.MaxOTPRequests <= 0 {
		return errors.New("MaxOTPRequests must be > 0")
	}
	if c.Security.OTPRequestWindow <= 0 {
		return errors.New("OTPRequestWindow must be > 0")
	}
	if c.Security.MaxOTPAttempts <= 0 {
		return errors.New("MaxOTPAttempts must be > 0")
	}
	if c.Security.OTPAttemptWindow <= 0 {
		return errors.New("OTPAttemptWindow must be > 0")
	}
	if c.Security.MaxLoginAttempts <= 0 {
		return errors.New("MaxLoginAttempts must be > 0")
	}
	if c.Security.LoginCooldownDuration <= 0 {
		return errors.New("LoginCooldownDuration must be > 0")
	}
	if c.Security.EnumerationDelay < 0 {
		return errors.New("EnumerationDelay must be >= 0")
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	return nil
}
