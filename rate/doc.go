// Package rate computes pass/fail quota decisions for image generation.
//
// Two fixed tiers apply per 24-hour window: an anonymous ceiling keyed by
// caller network address and an authenticated ceiling keyed by subject ID.
// Decisions read through the quota store, so a degraded shared backend
// changes precision, never availability: Evaluate and Record always answer.
//
// Record does not re-evaluate; callers wanting the post-increment view call
// Evaluate again, which is what the record-usage endpoint does.
package rate
