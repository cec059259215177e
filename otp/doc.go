// Package otp implements issuance and verification of time-boxed numeric
// one-time codes scoped by (email, purpose).
//
// # Invariant
//
// At most one unused, unexpired code exists per (email, purpose) at any
// instant: [Engine.Issue] invalidates prior live rows and inserts the new
// one inside a single store transaction. Consumed and expired rows are
// retained by the store for audit; expiry is evaluated lazily at verify
// time, never by a background sweep.
//
// # Architecture boundaries
//
// This package owns code generation and the consume/recency semantics over
// a [Store]. It does NOT send email, mint tokens, or know about accounts;
// those responsibilities belong to the Engine in the root package.
//
// # What this package must NOT do
//
//   - Distinguish "wrong code" from "expired code" in returned errors.
//   - Delete historical rows.
//   - Import any other portal-auth package.
package otp
