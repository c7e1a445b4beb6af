// Package quota is the dual-backend counter store behind rate limiting.
//
// A process-wide health flag selects between the shared Redis backend and a
// process-local table:
//
//   - the store starts Degraded when no Redis address is configured,
//     otherwise Healthy after a successful connection handshake;
//   - any Redis error, timeout, or explicit Close flips it to Degraded;
//   - only a successful ping during Connect flips it back to Healthy.
//
// While Degraded every operation transparently runs against the local table
// and returns a result identical in shape to the Redis path. The quota
// subsystem is available-over-consistent: a Redis outage degrades rate-limit
// precision but never blocks traffic, and local counts are never reconciled
// back into Redis once connectivity returns.
//
// # Window semantics
//
// One hash per identifier under the rate_limit: prefix, holding count and the
// window reset timestamp, with a key TTL equal to the window so abandoned
// counters self-clean. GetCounter lazily reinitializes an elapsed window;
// Increment never touches an elapsed window and leaves it for the next
// GetCounter.
//
// # What this package must NOT do
//
//   - Apply tier limits or make allow/deny decisions (the rate package does).
//   - Surface backend errors to callers; failures are logged as degradation
//     events and absorbed by the fallback.
package quota
