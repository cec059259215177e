package portalauth

import (
	"context"
	"errors"
	"time"

	"github.com/charansai0108/portal-auth/session"
)

// dummyPasswordHash is verified against when the email is unknown so a
// failed lookup costs the same as a failed password check.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=3,p=2$AAAAAAAAAAAAAAAAAAAAAA==$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="

// Login authenticates an email+password pair and opens a session. The
// expected role is optional; when supplied it must match the account's
// role. Credential failures, unknown emails, blocked accounts, and role
// mismatches are checked in that order, so a wrong password never
// reveals account status.
func (e *Engine) Login(ctx context.Context, email, password string, role Role) (*AuthResult, error) {
	if e == nil || e.users == nil || e.sessions == nil || e.passwordHash == nil {
		return nil, ErrEngineNotReady
	}

	email = normalizeEmail(email)
	ip := clientIPFromContext(ctx)

	if !isValidEmail(email) || password == "" {
		e.emitAudit(ctx, auditEventLoginFailure, false, "", ErrValidation, nil)
		return nil, ErrValidation
	}
	if role != "" {
		if err := e.checkRole(role); err != nil {
			e.emitAudit(ctx, auditEventLoginFailure, false, "", ErrRoleInvalid, nil)
			return nil, ErrRoleInvalid
		}
	}

	if err := e.rateLimiter.CheckLogin(ctx, email, ip); err != nil {
		mapped := mapRateLimiterError(err, ErrLoginRateLimited)
		e.metricInc(MetricLoginRateLimited)
		e.emitAudit(ctx, auditEventLoginRateLimited, false, "", mapped, func() map[string]string {
			return map[string]string{"email": email}
		})
		if errors.Is(mapped, ErrLoginRateLimited) {
			e.emitRateLimit(ctx, "login", email)
		}
		return nil, mapped
	}

	user, lookupErr := e.users.GetUserByEmail(ctx, email)
	storedHash := dummyPasswordHash
	if lookupErr == nil {
		storedHash = user.PasswordHash
	}

	match, err := e.passwordHash.Verify(password, storedHash)
	if err != nil || !match || lookupErr != nil {
		_ = e.rateLimiter.IncrementLogin(ctx, email, ip)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"email": email}
		})
		return nil, ErrInvalidCredentials
	}

	if user.Status == StatusBlocked {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.UserID, ErrAccountBlocked, nil)
		return nil, ErrAccountBlocked
	}
	if role != "" && user.Role != role {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.UserID, ErrRoleMismatch, func() map[string]string {
			return map[string]string{"expected": string(role), "actual": string(user.Role)}
		})
		return nil, ErrRoleMismatch
	}

	accessToken, refreshToken, err := e.sessions.Issue(ctx, user.UserID, string(user.Role))
	if err != nil {
		e.emitAudit(ctx, auditEventLoginFailure, false, user.UserID, ErrSessionCreationFailed, nil)
		return nil, ErrSessionCreationFailed
	}

	// Best effort: a failed timestamp write never fails the login.
	_ = e.users.UpdateLastLogin(ctx, user.UserID, time.Now())
	_ = e.rateLimiter.ResetLogin(ctx, email, ip)

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.UserID, nil, func() map[string]string {
		return map[string]string{"email": email, "role": string(user.Role)}
	})

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh exchanges a refresh token for a new access token. The
// RefreshToken field of the result is empty unless rotation is enabled.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	accessToken, rotated, err := e.sessions.Refresh(ctx, refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		if errors.Is(err, session.ErrInvalidRefresh) {
			e.emitAudit(ctx, auditEventRefreshInvalid, false, "", ErrInvalidRefreshToken, nil)
			return nil, ErrInvalidRefreshToken
		}
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", err, nil)
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, "", nil, nil)

	return &RefreshResult{
		AccessToken:  accessToken,
		RefreshToken: rotated,
	}, nil
}

// Logout revokes the refresh token. Idempotent: revoking an unknown or
// already revoked token succeeds.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}

	if err := e.sessions.Revoke(ctx, refreshToken); err != nil {
		return err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogoutSession, true, "", nil, nil)
	return nil
}
