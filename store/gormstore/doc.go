// Package gormstore is the relational implementation of the engine's
// persistence contract: user accounts, role profiles, one-time codes,
// and refresh tokens over GORM.
//
// # Transactional guarantees
//
// InvalidateThenCreate and ConsumeLatest run inside a single database
// transaction, which is what upholds the at-most-one-live-code rule and
// single-use consumption under concurrent requests. CreateUser inserts
// the account row and its role profile row in one transaction.
//
// # Retention
//
// One-time code rows are never deleted: used and expired rows stay as
// the audit trail and back the recency check. Only refresh token rows
// have a pruning path.
package gormstore
