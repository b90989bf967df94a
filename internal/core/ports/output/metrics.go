package ports

import "time"

// Prediction outcomes reported to PredictionMetrics.
const (
	OutcomeSuccess     = "success"
	OutcomeUnavailable = "unavailable"
	OutcomeBadInput    = "bad_input"
	OutcomeFailed      = "failed"
	OutcomeError       = "error"
)

type PredictionMetrics interface {
	ObservePrediction(version, outcome string, latency time.Duration)
	SetArtifactLoaded(version string, loaded bool)
}
