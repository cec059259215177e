package portalauth

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"github.com/charansai0108/portal-auth/otp"
	"github.com/charansai0108/portal-auth/token"
)

// RequestPasswordReset issues a reset OTP for the email and dispatches
// it by mail. The response is shaped identically whether or not an
// account exists: unknown emails get a randomized delay and a
// synthesized expiry instead of an error.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) (*OTPPending, error) {
	if e == nil || e.otpEngine == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if !isValidEmail(email) {
		e.emitAudit(ctx, auditEventPasswordResetRequest, false, "", ErrValidation, nil)
		return nil, ErrValidation
	}

	if err := e.rateLimiter.CheckOTPRequest(ctx, email, clientIPFromContext(ctx)); err != nil {
		mapped := mapRateLimiterError(err, ErrOTPRateLimited)
		e.metricInc(MetricOTPRateLimited)
		e.emitAudit(ctx, auditEventPasswordResetRequest, false, "", mapped, func() map[string]string {
			return map[string]string{"email": email}
		})
		if errors.Is(mapped, ErrOTPRateLimited) {
			e.emitRateLimit(ctx, "password_reset_request", email)
		}
		return nil, mapped
	}

	user, err := e.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if !errors.Is(err, ErrProviderUserNotFound) {
			return nil, ErrOTPUnavailable
		}
		if err := e.sleepEnumerationDelay(ctx); err != nil {
			return nil, err
		}
		e.metricInc(MetricPasswordResetRequest)
		e.emitAudit(ctx, auditEventPasswordResetRequest, true, "", nil, func() map[string]string {
			return map[string]string{"email": email, "enumeration_safe": "true"}
		})
		return &OTPPending{
			OTPStatus:    OTPStatusPending,
			OTPExpiresAt: time.Now().Add(e.otpEngine.TTL(otp.PurposeResetPassword)),
		}, nil
	}

	code, expiresAt, err := e.otpEngine.Issue(ctx, email, otp.PurposeResetPassword)
	if err != nil {
		e.emitAudit(ctx, auditEventPasswordResetRequest, false, user.UserID, ErrOTPUnavailable, nil)
		return nil, ErrOTPUnavailable
	}

	e.dispatchMail(MailMessage{
		To:        email,
		Code:      code,
		Purpose:   string(otp.PurposeResetPassword),
		ExpiresAt: expiresAt,
	})

	e.metricInc(MetricPasswordResetRequest)
	e.emitAudit(ctx, auditEventPasswordResetRequest, true, user.UserID, nil, func() map[string]string {
		return map[string]string{"email": email}
	})

	return &OTPPending{
		OTPStatus:    OTPStatusPending,
		OTPExpiresAt: expiresAt,
	}, nil
}

// VerifyResetOTP consumes a reset OTP and mints a reset token for the
// subsequent UpdatePassword call. Unknown emails fail exactly like
// wrong codes.
func (e *Engine) VerifyResetOTP(ctx context.Context, email, code string) (string, error) {
	if e == nil || e.otpEngine == nil || e.tokens == nil {
		return "", ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if !isValidEmail(email) || code == "" {
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, "", ErrValidation, nil)
		return "", ErrValidation
	}

	if err := e.rateLimiter.CheckOTPConfirm(ctx, email, clientIPFromContext(ctx)); err != nil {
		mapped := mapRateLimiterError(err, ErrOTPRateLimited)
		e.metricInc(MetricOTPRateLimited)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, "", mapped, func() map[string]string {
			return map[string]string{"email": email}
		})
		if errors.Is(mapped, ErrOTPRateLimited) {
			e.emitRateLimit(ctx, "password_reset_confirm", email)
		}
		return "", mapped
	}

	user, lookupErr := e.users.GetUserByEmail(ctx, email)
	if lookupErr != nil && !errors.Is(lookupErr, ErrProviderUserNotFound) {
		return "", ErrOTPUnavailable
	}

	if err := e.otpEngine.Verify(ctx, email, code, otp.PurposeResetPassword); err != nil {
		mapped := mapOTPError(err)
		e.metricInc(MetricPasswordResetVerifyFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, "", mapped, func() map[string]string {
			return map[string]string{"email": email}
		})
		return "", mapped
	}

	// No account means no OTP row existed either, but keep the failure
	// shape identical in case one was issued before account deletion.
	if lookupErr != nil {
		e.metricInc(MetricPasswordResetVerifyFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, "", ErrInvalidOrExpiredCode, nil)
		return "", ErrInvalidOrExpiredCode
	}

	resetToken, err := e.tokens.MintPurpose(email, user.UserID, token.PurposePasswordReset, e.config.Token.ResetTTL)
	if err != nil {
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, user.UserID, err, nil)
		return "", ErrOTPUnavailable
	}

	e.metricInc(MetricPasswordResetVerifySuccess)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, true, user.UserID, nil, func() map[string]string {
		return map[string]string{"email": email}
	})

	return resetToken, nil
}

// UpdatePassword sets a new password for the account identified by a
// reset token. Password policy is checked before the token, so a weak
// password can be retried with the same token.
func (e *Engine) UpdatePassword(ctx context.Context, resetToken, newPassword string) error {
	if e == nil || e.users == nil || e.tokens == nil || e.passwordHash == nil {
		return ErrEngineNotReady
	}

	if len(newPassword) < e.config.Password.MinLength {
		e.metricInc(MetricPasswordUpdateFailure)
		e.emitAudit(ctx, auditEventPasswordUpdate, false, "", ErrPasswordPolicy, nil)
		return ErrPasswordPolicy
	}

	claims, err := e.tokens.VerifyPurpose(resetToken, token.PurposePasswordReset)
	if err != nil {
		e.metricInc(MetricPasswordUpdateFailure)
		e.emitAudit(ctx, auditEventPasswordUpdate, false, "", ErrTokenInvalid, nil)
		return ErrTokenInvalid
	}

	email := normalizeEmail(claims.Email)
	verified, err := e.otpEngine.WasRecentlyVerified(ctx, email, otp.PurposeResetPassword, e.config.Account.ResetWindow)
	if err != nil {
		return ErrOTPUnavailable
	}
	if !verified {
		e.metricInc(MetricPasswordUpdateFailure)
		e.emitAudit(ctx, auditEventPasswordUpdate, false, claims.UserID, ErrResetVerificationRequired, nil)
		return ErrResetVerificationRequired
	}

	hash, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		e.metricInc(MetricPasswordUpdateFailure)
		return err
	}

	if err := e.users.UpdatePasswordHash(ctx, claims.UserID, hash); err != nil {
		e.metricInc(MetricPasswordUpdateFailure)
		e.emitAudit(ctx, auditEventPasswordUpdate, false, claims.UserID, err, nil)
		return err
	}

	_ = e.rateLimiter.ResetLogin(ctx, email, clientIPFromContext(ctx))

	e.metricInc(MetricPasswordUpdateSuccess)
	e.emitAudit(ctx, auditEventPasswordUpdate, true, claims.UserID, nil, func() map[string]string {
		return map[string]string{"email": email}
	})

	return nil
}

// sleepEnumerationDelay pauses for a random duration in the upper half
// of the configured window so unknown-email requests are not measurably
// faster than real ones.
func (e *Engine) sleepEnumerationDelay(ctx context.Context) error {
	maxDelay := e.config.Security.EnumerationDelay
	if maxDelay <= 0 {
		return nil
	}
	minDelay := maxDelay / 2
	span := int64(maxDelay-minDelay) + 1

	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return err
	}

	delay := minDelay + time.Duration(n.Int64())
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
