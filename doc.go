// Package authcore is the access-control and abuse-prevention core of the
// pixelmint image-generation service: it mints and verifies bearer
// credentials, binds one live session per user, and enforces per-identity
// generation quotas that keep working when the shared quota backend is
// unreachable.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the composition surface. It exposes [Engine], [Builder],
// [Config], and value types (AuthResult, UserRecord). The mechanics live in
// the sub-packages: token (credential codec), session (session registry),
// quota (dual-backend counter store), rate (quota decisions), and middleware
// (the HTTP access gate).
//
// # Failure posture
//
// Credential and quota failures are business outcomes (401/429-class), never
// process failures. Quota is available-over-consistent: a shared-backend
// outage degrades rate-limit precision behind a process-local fallback and
// never blocks generation traffic. Session truth has no safe fallback, so
// session-store failures surface as internal errors.
//
// # What this package must NOT do
//
//   - Expose Redis clients, GORM handles, or store internals in its API.
//   - Perform I/O during construction (Builder is allocation-only until
//     the quota store's Connect).
//   - Implement route bodies, validation schemas, or UI concerns; those are
//     glue that lives in httpapi and cmd.
package authcore
