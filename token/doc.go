// Package token manages issuance and verification of the engine's signed
// credentials: short-lived purpose-tagged ephemeral tokens (verification,
// password reset) and stateless access tokens.
//
// # Purpose tags
//
// Every ephemeral token embeds the purpose it was minted for. Verification
// checks signature, expiry, and that the embedded purpose equals the
// expected one; a mismatch is a hard failure. This is what prevents a
// "verification" token from being replayed into the password-reset flow or
// vice versa.
//
// # Revocation
//
// There is none. Tokens are self-contained and valid until exp regardless
// of later account state changes; the short TTLs bound the exposure.
package token
