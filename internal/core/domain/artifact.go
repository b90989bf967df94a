package domain

import (
	"time"

	"github.com/google/uuid"
)

// ArtifactInfo describes a configured model version and the outcome of loading it.
type ArtifactInfo struct {
	Version   string          `json:"version"`
	Source    string          `json:"source"`
	Transform OutputTransform `json:"transform"`
	Loaded    bool            `json:"loaded"`
	Error     string          `json:"error,omitempty"`
	LoadedAt  *time.Time      `json:"loaded_at,omitempty"`
}

// Prediction is the outcome of scoring one record.
type Prediction struct {
	Version   string
	RawOutput float64
	Charge    float64
}

// PredictionLogEntry is one audited prediction.
type PredictionLogEntry struct {
	ID        uuid.UUID
	RequestID string
	Version   string
	Features  Record
	RawOutput float64
	Charge    float64
	CreatedAt time.Time
}
