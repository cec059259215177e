package internaldefs

import (
	portalauth "github.com/charansai0108/portal-auth"
)

// CounterDef defines a public type used by portal-auth APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   portalauth.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by portal-auth APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   portalauth.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the placement auth engine.
var CounterDefs = []CounterDef{
	{ID: portalauth.MetricOTPIssued, Name: "portal_auth_otp_issued_total", Help: "Issued one-time codes."},
	{ID: portalauth.MetricOTPVerifySuccess, Name: "portal_auth_otp_verify_success_total", Help: "Successful OTP verifications."},
	{ID: portalauth.MetricOTPVerifyFailure, Name: "portal_auth_otp_verify_failure_total", Help: "Failed OTP verifications."},
	{ID: portalauth.MetricOTPRateLimited, Name: "portal_auth_otp_rate_limited_total", Help: "Rate-limited OTP operations."},
	{ID: portalauth.MetricRegisterSuccess, Name: "portal_auth_register_success_total", Help: "Successful registrations."},
	{ID: portalauth.MetricRegisterDuplicate, Name: "portal_auth_register_duplicate_total", Help: "Registrations rejected as duplicate."},
	{ID: portalauth.MetricLoginSuccess, Name: "portal_auth_login_success_total", Help: "Successful login attempts."},
	{ID: portalauth.MetricLoginFailure, Name: "portal_auth_login_failure_total", Help: "Failed login attempts."},
	{ID: portalauth.MetricLoginRateLimited, Name: "portal_auth_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: portalauth.MetricRefreshSuccess, Name: "portal_auth_refresh_success_total", Help: "Successful refresh operations."},
	{ID: portalauth.MetricRefreshFailure, Name: "portal_auth_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: portalauth.MetricLogout, Name: "portal_auth_logout_total", Help: "Logout operations."},
	{ID: portalauth.MetricPasswordResetRequest, Name: "portal_auth_password_reset_request_total", Help: "Password reset requests."},
	{ID: portalauth.MetricPasswordResetVerifySuccess, Name: "portal_auth_password_reset_verify_success_total", Help: "Successful reset OTP verifications."},
	{ID: portalauth.MetricPasswordResetVerifyFailure, Name: "portal_auth_password_reset_verify_failure_total", Help: "Failed reset OTP verifications."},
	{ID: portalauth.MetricPasswordUpdateSuccess, Name: "portal_auth_password_update_success_total", Help: "Successful password updates."},
	{ID: portalauth.MetricPasswordUpdateFailure, Name: "portal_auth_password_update_failure_total", Help: "Failed password updates."},
	{ID: portalauth.MetricMailDispatched, Name: "portal_auth_mail_dispatched_total", Help: "OTP emails handed to the mailer."},
	{ID: portalauth.MetricMailFailed, Name: "portal_auth_mail_failed_total", Help: "OTP emails the mailer failed to deliver."},
	{ID: portalauth.MetricRateLimitHit, Name: "portal_auth_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
}

// HistogramDefs is an exported constant or variable used by the placement auth engine.
var HistogramDefs = []HistogramDef{
	{ID: portalauth.MetricValidateLatency, Name: "portal_auth_validate_latency_seconds", Help: "Validate latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the placement auth engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the placement auth engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
