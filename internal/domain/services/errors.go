package services

import "errors"

// Sentinel errors shared across the analysis pipeline
var (
	// ErrConfiguration indicates an internal inconsistency that must stop the run
	ErrConfiguration = errors.New("configuration error")

	// ErrCriteriaNotFound means a category has no registry entry (category drift)
	ErrCriteriaNotFound = errors.New("criteria not found")

	// ErrUnparsableResponse means no JSON array could be extracted from a model response
	ErrUnparsableResponse = errors.New("unparsable model response")

	// ErrNoScreenshots means a vision category had no images to judge
	ErrNoScreenshots = errors.New("no screenshots to analyze")

	// ErrModelUnavailable means no generative model is configured for this run
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrInvalidGroundTruth means a ground-truth keyword is not a valid pattern
	ErrInvalidGroundTruth = errors.New("invalid ground truth")
)
