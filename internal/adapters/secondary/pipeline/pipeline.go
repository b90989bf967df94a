package pipeline

import (
	"context"
	"fmt"

	"insurance-prediction-service/internal/core/domain"
)

// Pipeline encodes a feature record into a vector and scores it. It is immutable
// once built and safe for concurrent use.
type Pipeline struct {
	name      string
	encoders  []encoder
	estimator estimator
	width     int
}

func (p *Pipeline) Name() string { return p.name }

// Width is the length of the encoded feature vector.
func (p *Pipeline) Width() int { return p.width }

// Encode returns the feature vector for record.
func (p *Pipeline) Encode(record domain.Record) ([]float64, error) {
	x := make([]float64, p.width)
	offset := 0
	for _, enc := range p.encoders {
		w := enc.width()
		if err := enc.encode(record, x[offset:offset+w]); err != nil {
			return nil, err
		}
		offset += w
	}
	return x, nil
}

func (p *Pipeline) Predict(ctx context.Context, record domain.Record) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	x, err := p.Encode(record)
	if err != nil {
		return 0, err
	}
	y, err := p.estimator.predict(x)
	if err != nil {
		return 0, fmt.Errorf("pipeline %s: %w", p.name, err)
	}
	return y, nil
}
