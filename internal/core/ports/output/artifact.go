package ports

import (
	"context"

	"insurance-prediction-service/internal/core/domain"
)

// Predictor is a loaded artifact: one record in, one number out.
// Implementations must be safe for concurrent use and never mutate after construction.
type Predictor interface {
	Predict(ctx context.Context, record domain.Record) (float64, error)
}

// ArtifactSource fetches the serialized artifact addressed by uri.
type ArtifactSource interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// ArtifactDecoder turns serialized artifact bytes into a Predictor.
// name is the artifact location, used to pick the document format.
type ArtifactDecoder interface {
	Decode(name string, data []byte) (Predictor, error)
}
