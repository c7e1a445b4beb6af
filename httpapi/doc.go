// Package httpapi exposes the engine over HTTP with gin. It is routing and
// JSON glue only: every auth, session, and quota decision is delegated to
// authcore.Engine. Error mapping follows the propagation policy: credential
// and session-consistency failures are 401s, quota answers are never errors,
// and only session-store infrastructure failures become 500s.
package httpapi
