package core

import "errors"

// Fatal conditions abort the request; everything else degrades gracefully
// (identity coefficients, NaN regions) and is surfaced through diagnostics.
var (
	// ErrInsufficientOrbitData signals fewer than four orbit state vectors,
	// which makes cubic interpolation impossible.
	ErrInsufficientOrbitData = errors.New("fewer than 4 orbit state vectors available")

	// ErrInvalidDimension signals mismatched input array lengths; a caller
	// error, never recovered from.
	ErrInvalidDimension = errors.New("mismatched input dimensions")

	// ErrNoValidSamples signals that a subswath or segment has zero usable
	// sparse samples after filtering. Reconstruction recovers by leaving
	// the region as NaN; the sentinel exists for callers that need to know.
	ErrNoValidSamples = errors.New("no valid samples after filtering")
)
