package portalauth

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ConfigFromEnv builds a Config from environment variables, loading the
// given .env files first when present. Unset variables keep their
// defaults; PORTAL_AUTH_SECRET is the only variable without one.
func ConfigFromEnv(files ...string) (Config, error) {
	if len(files) > 0 {
		// Missing .env files are not an error; real env vars win.
		_ = godotenv.Load(files...)
	}

	cfg := defaultConfig()

	cfg.Token.Secret = []byte(os.Getenv("PORTAL_AUTH_SECRET"))
	if issuer := os.Getenv("PORTAL_AUTH_ISSUER"); issuer != "" {
		cfg.Token.Issuer = issuer
	}

	var err error
	if cfg.Token.AccessTTL, err = envDuration("PORTAL_AUTH_ACCESS_TTL", cfg.Token.AccessTTL); err != nil {
		return Config{}, err
	}
	if cfg.Token.VerificationTTL, err = envDuration("PORTAL_AUTH_VERIFICATION_TTL", cfg.Token.VerificationTTL); err != nil {
		return Config{}, err
	}
	if cfg.Token.ResetTTL, err = envDuration("PORTAL_AUTH_RESET_TTL", cfg.Token.ResetTTL); err != nil {
		return Config{}, err
	}
	if cfg.Session.RefreshTTL, err = envDuration("PORTAL_AUTH_REFRESH_TTL", cfg.Session.RefreshTTL); err != nil {
		return Config{}, err
	}
	if cfg.OTP.VerifyEmailTTL, err = envDuration("PORTAL_AUTH_OTP_VERIFY_TTL", cfg.OTP.VerifyEmailTTL); err != nil {
		return Config{}, err
	}
	if cfg.OTP.ResetPasswordTTL, err = envDuration("PORTAL_AUTH_OTP_RESET_TTL", cfg.OTP.ResetPasswordTTL); err != nil {
		return Config{}, err
	}

	if cfg.OTP.Digits, err = envInt("PORTAL_AUTH_OTP_DIGITS", cfg.OTP.Digits); err != nil {
		return Config{}, err
	}
	if cfg.Password.MinLength, err = envInt("PORTAL_AUTH_PASSWORD_MIN_LENGTH", cfg.Password.MinLength); err != nil {
		return Config{}, err
	}
	if cfg.Security.MaxLoginAttempts, err = envInt("PORTAL_AUTH_MAX_LOGIN_ATTEMPTS", cfg.Security.MaxLoginAttempts); err != nil {
		return Config{}, err
	}
	if cfg.Security.MaxOTPRequests, err = envInt("PORTAL_AUTH_MAX_OTP_REQUESTS", cfg.Security.MaxOTPRequests); err != nil {
		return Config{}, err
	}
	if cfg.Security.MaxOTPAttempts, err = envInt("PORTAL_AUTH_MAX_OTP_ATTEMPTS", cfg.Security.MaxOTPAttempts); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("PORTAL_AUTH_ROTATE_REFRESH"); v != "" {
		cfg.Session.RotateRefreshTokens = v == "1" || v == "true"
	}
	if v := os.Getenv("PORTAL_AUTH_REQUIRE_VERIFIED_EMAIL"); v != "" {
		cfg.Account.RequireVerifiedEmail = v == "1" || v == "true"
	}
	if v := os.Getenv("PORTAL_AUTH_AUDIT_ENABLED"); v != "" {
		cfg.Audit.Enabled = v == "1" || v == "true"
	}
	if v := os.Getenv("PORTAL_AUTH_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = v == "1" || v == "true"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}
