package portalauth

import (
	"context"
	"errors"

	"github.com/charansai0108/portal-auth/internal/rate"
	"github.com/charansai0108/portal-auth/otp"
	"github.com/charansai0108/portal-auth/token"
)

// SendOTP issues a registration OTP for the email and dispatches it by
// mail. Fails with [ErrEmailAlreadyRegistered] when an account already
// holds the address. Issuing again before the previous code expires
// invalidates the previous code.
func (e *Engine) SendOTP(ctx context.Context, email string) (*OTPPending, error) {
	if e == nil || e.otpEngine == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if !isValidEmail(email) {
		e.emitAudit(ctx, auditEventOTPRequest, false, "", ErrValidation, func() map[string]string {
			return map[string]string{"reason": "invalid_email"}
		})
		return nil, ErrValidation
	}

	if _, err := e.users.GetUserByEmail(ctx, email); err == nil {
		e.metricInc(MetricRegisterDuplicate)
		e.emitAudit(ctx, auditEventOTPRequest, false, "", ErrEmailAlreadyRegistered, func() map[string]string {
			return map[string]string{"email": email}
		})
		return nil, ErrEmailAlreadyRegistered
	} else if !errors.Is(err, ErrProviderUserNotFound) {
		return nil, ErrOTPUnavailable
	}

	if err := e.rateLimiter.CheckOTPRequest(ctx, email, clientIPFromContext(ctx)); err != nil {
		mapped := mapRateLimiterError(err, ErrOTPRateLimited)
		e.metricInc(MetricOTPRateLimited)
		e.emitAudit(ctx, auditEventOTPRequest, false, "", mapped, func() map[string]string {
			return map[string]string{"email": email}
		})
		if errors.Is(mapped, ErrOTPRateLimited) {
			e.emitRateLimit(ctx, "otp_request", email)
		}
		return nil, mapped
	}

	code, expiresAt, err := e.otpEngine.Issue(ctx, email, otp.PurposeVerifyEmail)
	if err != nil {
		e.emitAudit(ctx, auditEventOTPRequest, false, "", ErrOTPUnavailable, func() map[string]string {
			return map[string]string{"email": email}
		})
		return nil, ErrOTPUnavailable
	}

	e.dispatchMail(MailMessage{
		To:        email,
		Code:      code,
		Purpose:   string(otp.PurposeVerifyEmail),
		ExpiresAt: expiresAt,
	})

	e.metricInc(MetricOTPIssued)
	e.emitAudit(ctx, auditEventOTPRequest, true, "", nil, func() map[string]string {
		return map[string]string{"email": email}
	})

	return &OTPPending{
		OTPStatus:    OTPStatusPending,
		OTPExpiresAt: expiresAt,
	}, nil
}

// VerifyOTP consumes a registration OTP and mints a verification token
// for the subsequent Register call. Wrong and expired codes are
// indistinguishable to the caller.
func (e *Engine) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	if e == nil || e.otpEngine == nil || e.tokens == nil {
		return "", ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if !isValidEmail(email) || code == "" {
		e.emitAudit(ctx, auditEventOTPVerify, false, "", ErrValidation, nil)
		return "", ErrValidation
	}

	if err := e.rateLimiter.CheckOTPConfirm(ctx, email, clientIPFromContext(ctx)); err != nil {
		mapped := mapRateLimiterError(err, ErrOTPRateLimited)
		e.metricInc(MetricOTPRateLimited)
		e.emitAudit(ctx, auditEventOTPVerify, false, "", mapped, func() map[string]string {
			return map[string]string{"email": email}
		})
		if errors.Is(mapped, ErrOTPRateLimited) {
			e.emitRateLimit(ctx, "otp_confirm", email)
		}
		return "", mapped
	}

	if err := e.otpEngine.Verify(ctx, email, code, otp.PurposeVerifyEmail); err != nil {
		mapped := mapOTPError(err)
		e.metricInc(MetricOTPVerifyFailure)
		e.emitAudit(ctx, auditEventOTPVerify, false, "", mapped, func() map[string]string {
			return map[string]string{"email": email}
		})
		return "", mapped
	}

	verificationToken, err := e.tokens.MintPurpose(email, "", token.PurposeVerification, e.config.Token.VerificationTTL)
	if err != nil {
		e.emitAudit(ctx, auditEventOTPVerify, false, "", err, func() map[string]string {
			return map[string]string{"email": email}
		})
		return "", ErrOTPUnavailable
	}

	e.metricInc(MetricOTPVerifySuccess)
	e.emitAudit(ctx, auditEventOTPVerify, true, "", nil, func() map[string]string {
		return map[string]string{"email": email}
	})

	return verificationToken, nil
}

func mapOTPError(err error) error {
	switch {
	case errors.Is(err, otp.ErrNoMatch):
		return ErrInvalidOrExpiredCode
	case errors.Is(err, otp.ErrUnavailable):
		return ErrOTPUnavailable
	default:
		return ErrInvalidOrExpiredCode
	}
}

func mapRateLimiterError(err error, limited error) error {
	switch {
	case errors.Is(err, rate.ErrRateLimited):
		return limited
	case errors.Is(err, rate.ErrRedisUnavailable):
		return ErrOTPUnavailable
	default:
		return err
	}
}
