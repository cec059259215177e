package portalauth

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventOTPRequest           = "otp_request"
	auditEventOTPVerify            = "otp_verify"
	auditEventRegisterSuccess      = "register_success"
	auditEventRegisterFailure      = "register_failure"
	auditEventRegisterDuplicate    = "register_duplicate"
	auditEventLoginSuccess         = "login_success"
	auditEventLoginFailure         = "login_failure"
	auditEventLoginRateLimited     = "login_rate_limited"
	auditEventRefreshSuccess       = "refresh_success"
	auditEventRefreshInvalid       = "refresh_invalid"
	auditEventLogoutSession        = "logout_session"
	auditEventPasswordResetRequest = "password_reset_request"
	auditEventPasswordResetConfirm = "password_reset_confirm"
	auditEventPasswordUpdate       = "password_update"
	auditEventMailDispatchFailed   = "mail_dispatch_failed"
	auditEventRateLimitTriggered   = "rate_limit_triggered"
)

// AuditErrorCode defines a public type used by portal-auth APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrValidation         AuditErrorCode = "validation"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrInvalidCode        AuditErrorCode = "invalid_or_expired_code"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrAccountBlocked     AuditErrorCode = "account_blocked"
	auditErrRoleMismatch       AuditErrorCode = "role_mismatch"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrPasswordPolicy     AuditErrorCode = "password_policy"
	auditErrVerification       AuditErrorCode = "verification_required"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(ctx context.Context, scope, email string) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, "", nil, func() map[string]string {
		return map[string]string{
			"scope": scope,
			"email": email,
		}
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrRoleInvalid):
		return auditErrValidation
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrInvalidOrExpiredCode):
		return auditErrInvalidCode
	case errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrInvalidRefreshToken):
		return auditErrInvalidToken
	case errors.Is(err, ErrOTPRateLimited),
		errors.Is(err, ErrLoginRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrAccountBlocked):
		return auditErrAccountBlocked
	case errors.Is(err, ErrRoleMismatch):
		return auditErrRoleMismatch
	case errors.Is(err, ErrEmailAlreadyRegistered),
		errors.Is(err, ErrProviderDuplicateEmail):
		return auditErrDuplicate
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrEmailVerificationRequired),
		errors.Is(err, ErrResetVerificationRequired):
		return auditErrVerification
	case errors.Is(err, ErrOTPUnavailable),
		errors.Is(err, ErrSessionCreationFailed):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
