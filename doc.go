// Package portalauth provides the OTP-gated authentication and credential
// lifecycle engine for the placement portal backend: email/OTP registration
// gating, login, opaque refresh tokens, and OTP-gated password reset.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// portalauth is the public surface. It exposes [Engine], [Builder], [Config],
// sentinel errors, and value types. Token minting lives in the token
// subpackage, one-time-code semantics in the otp subpackage, refresh-token
// session handling in the session subpackage, and persistence behind the
// [Store] interface (the store/gormstore subpackage ships the relational
// implementation).
//
// # What this package must NOT do
//
//   - Expose database handles, Redis clients, or token signing internals in
//     its public API.
//   - Block a flow response on email delivery (dispatch is fire-and-forget).
//   - Distinguish "wrong code" from "expired code" or "unknown email" from
//     "wrong password" in any externally observable signal.
package portalauth
