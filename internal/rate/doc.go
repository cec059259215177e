// Package rate provides Redis-backed fixed-window rate limiting for the
// portal's security-sensitive flows: OTP requests, OTP confirmation
// attempts, and login attempts.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key
// prefixes:
//   - pa:otp:req:   OTP issuance per email
//   - pa:otp:reqip: OTP issuance per IP
//   - pa:otp:cfm:   OTP confirm attempts per email
//   - pa:otp:cfmip: OTP confirm attempts per IP
//   - pa:login:     failed logins per email
//   - pa:loginip:   failed logins per IP
//
// The [Limiter] is nil-safe: every method on a nil receiver returns nil,
// so an engine built without Redis simply runs unthrottled.
//
// # What this package must NOT do
//
//   - Make policy decisions beyond counting; flow functions decide consequences.
//   - Be imported outside the portal-auth module.
package rate
