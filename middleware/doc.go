// Package middleware is the HTTP-facing access gate. It extracts the Bearer
// access token, verifies it through the token codec, and attaches the
// resolved identity to the request context.
//
// # Gates
//
//   - [Require] rejects with 401 on a missing, malformed, or invalid
//     credential; downstream handlers always see an identity.
//   - [Optional] does identical extraction, but every failure is a no-op:
//     the request proceeds without an identity. Used by endpoints serving
//     both anonymous and authenticated callers under different quota tiers.
//
// [RequireGin] and [OptionalGin] adapt both gates to gin handler chains; the
// identity lands in the request context either way, so
// [ClaimsFromContext] works for plain net/http and gin handlers alike.
//
// # What this package must NOT do
//
//   - Parse or create tokens itself (delegates to token.Codec).
//   - Touch the session registry or quota store; both gates are stateless
//     per request and never block on I/O.
package middleware
