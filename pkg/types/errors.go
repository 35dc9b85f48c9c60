package types

import "errors"

// Shared error taxonomy for schedule resolution. Parsing-level failures are
// absorbed where they occur and never surface through these sentinels.
var (
	// ErrNotFound means the identity or day has no matching data in the
	// provider that was asked. Expected and non-fatal; it does not trigger
	// the fallback chain.
	ErrNotFound = errors.New("schedule data not found")

	// ErrSourceUnavailable means the provider could not be reached at all
	// (transport failure or timeout). Triggers the fallback chain.
	ErrSourceUnavailable = errors.New("schedule source unavailable")

	// ErrResolutionUnavailable means every provider in the chain was
	// exhausted. Surfaced to callers as a definite failure, never as an
	// empty result.
	ErrResolutionUnavailable = errors.New("schedule resolution unavailable")
)
