package domain

import "errors"

// ============================================================================
// Prediction Errors
// ============================================================================

var (
	ErrModelUnavailable = errors.New("model unavailable")
	ErrBadInput         = errors.New("bad request")
	ErrPredictionFailed = errors.New("prediction failed")
)

// ============================================================================
// Artifact Errors
// ============================================================================

// Load errors
var (
	ErrArtifactNotFound  = errors.New("artifact not found")
	ErrUnsupportedSource = errors.New("unsupported artifact source")
	ErrInvalidArtifact   = errors.New("invalid artifact")
)

// Configuration errors
var (
	ErrUnknownTransform = errors.New("unknown output transform")
	ErrInvalidVersion   = errors.New("model version is required")
)
