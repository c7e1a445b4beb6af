// Package session binds one live refresh credential per subject.
//
// A refresh token is usable only when it verifies cryptographically AND a
// matching, non-expired session row exists. The registry enforces the single
// invariant the rest of the system depends on: at most one non-expired
// session per subject at any time. Replace is a transactional
// delete-all-then-insert so a concurrent reader never observes zero or two
// live sessions for the same subject mid-operation.
//
// Two implementations ship: [GormRegistry] writes through the relational
// store that owns session truth, and [MemoryRegistry] keeps the same
// contract in process memory for tests and database-less development.
//
// # What this package must NOT do
//
//   - Verify token signatures (that is the token package's job).
//   - Fall back on store failure. There is no safe fallback for
//     authoritative session truth; errors surface to the caller.
package session
