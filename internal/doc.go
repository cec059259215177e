// Package internal holds credential-material helpers shared by the
// portal-auth root package and its subpackages: opaque refresh token
// generation and digest encoding.
package internal
