// Package session issues and redeems the engine's session credentials: a
// stateless signed access token paired with an opaque refresh token
// persisted server-side.
//
// # Refresh semantics
//
// Refresh tokens are random opaque values; the store only ever holds their
// SHA-256 digest. Redeeming a token looks the digest up and fails on
// absence or expiry; expired rows are rejected lazily, never swept for
// correctness. By default the presented token survives a refresh;
// [Config.Rotate] switches to rotate-and-invalidate.
//
// # Architecture boundaries
//
// This package owns refresh persistence semantics over a [RefreshStore]
// and delegates all signing to the token package. It does NOT enforce
// account status or rate limits; the Engine gates those before calling in.
package session
