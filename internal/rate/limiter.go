package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds rate limiter tuning parameters.
type Config struct {
	EnableIPThrottle      bool
	MaxOTPRequests        int
	OTPRequestWindow      time.Duration
	MaxOTPAttempts        int
	OTPAttemptWindow      time.Duration
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
}

// Limiter enforces per-email and per-IP rate limits for OTP and login
// operations using Redis counters. A nil *Limiter is valid and enforces
// nothing.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckOTPRequest enforces the OTP issuance budget for the email+IP pair
// by incrementing the window counters.
func (l *Limiter) CheckOTPRequest(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}

	if err := l.enforceFixedWindow(ctx, otpRequestEmailKey(email), l.config.MaxOTPRequests, l.config.OTPRequestWindow); err != nil {
		return err
	}

	if l.config.EnableIPThrottle && ip != "" {
		if err := l.enforceFixedWindow(ctx, otpRequestIPKey(ip), l.config.MaxOTPRequests, l.config.OTPRequestWindow); err != nil {
			return err
		}
	}

	return nil
}

// CheckOTPConfirm enforces the OTP verification attempt budget for the
// email+IP pair by incrementing the window counters.
func (l *Limiter) CheckOTPConfirm(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}

	if err := l.enforceFixedWindow(ctx, otpConfirmEmailKey(email), l.config.MaxOTPAttempts, l.config.OTPAttemptWindow); err != nil {
		return err
	}

	if l.config.EnableIPThrottle && ip != "" {
		if err := l.enforceFixedWindow(ctx, otpConfirmIPKey(ip), l.config.MaxOTPAttempts, l.config.OTPAttemptWindow); err != nil {
			return err
		}
	}

	return nil
}

// CheckLogin checks whether the email+IP pair is within the login
// attempt budget. Returns an error if rate-limited.
func (l *Limiter) CheckLogin(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}

	if err := l.checkCounter(ctx, loginEmailKey(email), l.config.MaxLoginAttempts); err != nil {
		return err
	}

	if l.config.EnableIPThrottle && ip != "" {
		if err := l.checkCounter(ctx, loginIPKey(ip), l.config.MaxLoginAttempts); err != nil {
			return err
		}
	}

	return nil
}

// IncrementLogin records a failed login attempt for the email+IP pair.
func (l *Limiter) IncrementLogin(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, loginEmailKey(email), l.config.LoginCooldownDuration)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxLoginAttempts) {
		return ErrRateLimited
	}

	if l.config.EnableIPThrottle && ip != "" {
		count, err = l.incrementWithTTL(ctx, loginIPKey(ip), l.config.LoginCooldownDuration)
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxLoginAttempts) {
			return ErrRateLimited
		}
	}

	return nil
}

// ResetLogin clears the failed-login counter for the email+IP pair.
// Called after successful login or password update.
func (l *Limiter) ResetLogin(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}

	keys := []string{loginEmailKey(email)}
	if l.config.EnableIPThrottle && ip != "" {
		keys = append(keys, loginIPKey(ip))
	}

	if err := l.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// GetLoginAttempts returns the current attempt counter for an email.
// Missing keys return zero and do not reveal account existence.
func (l *Limiter) GetLoginAttempts(ctx context.Context, email string) (int, error) {
	if l == nil {
		return 0, nil
	}

	count, err := l.redis.Get(ctx, loginEmailKey(email)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string, maxAttempts int) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count > int64(maxAttempts) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) enforceFixedWindow(ctx context.Context, key string, maxAttempts int, ttl time.Duration) error {
	count, err := l.incrementWithTTL(ctx, key, ttl)
	if err != nil {
		return err
	}
	if count > int64(maxAttempts) {
		return ErrRateLimited
	}
	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}

func otpRequestEmailKey(email string) string { return "pa:otp:req:" + email }
func otpRequestIPKey(ip string) string       { return "pa:otp:reqip:" + ip }
func otpConfirmEmailKey(email string) string { return "pa:otp:cfm:" + email }
func otpConfirmIPKey(ip string) string       { return "pa:otp:cfmip:" + ip }
func loginEmailKey(email string) string      { return "pa:login:" + email }
func loginIPKey(ip string) string            { return "pa:loginip:" + ip }
