package pipeline

import (
	"fmt"

	"insurance-prediction-service/internal/core/domain"
)

type encoder interface {
	width() int
	encode(record domain.Record, out []float64) error
}

type numericEncoder struct {
	name  string
	mean  float64
	scale float64
}

func (e *numericEncoder) width() int { return 1 }

func (e *numericEncoder) encode(record domain.Record, out []float64) error {
	v, ok := record[e.name]
	if !ok {
		return fmt.Errorf("%w: missing required feature %q", domain.ErrPredictionFailed, e.name)
	}
	if v.Kind != domain.KindNumeric {
		return fmt.Errorf("%w: feature %q must be numeric, got %q", domain.ErrPredictionFailed, e.name, v.Str)
	}
	out[0] = (v.Num - e.mean) / e.scale
	return nil
}

// categoricalEncoder one-hot encodes a categorical feature. With dropFirst the first
// category is the all-zero baseline.
type categoricalEncoder struct {
	name          string
	index         map[string]int
	size          int
	dropFirst     bool
	ignoreUnknown bool
}

func newCategoricalEncoder(step FeatureStep) *categoricalEncoder {
	e := &categoricalEncoder{
		name:          step.Name,
		index:         make(map[string]int, len(step.Categories)),
		size:          len(step.Categories),
		dropFirst:     step.DropFirst,
		ignoreUnknown: step.HandleUnknown == HandleUnknownIgnore,
	}
	for i, c := range step.Categories {
		e.index[c] = i
	}
	if e.dropFirst {
		e.size--
	}
	return e
}

func (e *categoricalEncoder) width() int { return e.size }

func (e *categoricalEncoder) encode(record domain.Record, out []float64) error {
	v, ok := record[e.name]
	if !ok {
		return fmt.Errorf("%w: missing required feature %q", domain.ErrPredictionFailed, e.name)
	}
	if v.Kind != domain.KindCategorical {
		return fmt.Errorf("%w: feature %q must be a category, got %s", domain.ErrPredictionFailed, e.name, v.String())
	}
	for i := range out {
		out[i] = 0
	}

	pos, ok := e.index[v.Str]
	if !ok {
		if e.ignoreUnknown {
			return nil
		}
		return fmt.Errorf("%w: unknown category %q for feature %q", domain.ErrPredictionFailed, v.Str, e.name)
	}
	if e.dropFirst {
		if pos == 0 {
			return nil
		}
		pos--
	}
	out[pos] = 1
	return nil
}
