// Package token issues and verifies the signed bearer credentials used by the
// image-generation service: short-lived access tokens carrying the identity
// claim set, and long-lived refresh tokens carrying only the subject ID.
//
// # Key separation
//
// Access and refresh tokens are signed with independent secrets. A token
// signed with the access secret never verifies as a refresh token, and vice
// versa, so a leaked access token cannot be replayed against the refresh
// endpoint.
//
// # Failure semantics
//
// Verification collapses every failure (malformed input, bad signature,
// expired or wrong-secret token) into [ErrInvalid]. Callers translate
// that single signal to "unauthenticated" and must not branch on sub-reasons.
//
// # What this package must NOT do
//
//   - Consult any store. Access-token validity is purely cryptographic +
//     expiry; session liveness checks belong to the session package.
//   - Perform I/O. Sign and verify are in-memory computations and never block.
package token
