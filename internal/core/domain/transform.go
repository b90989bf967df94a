package domain

import (
	"fmt"
	"math"
	"strings"
)

// OutputTransform maps the raw artifact output back to the charge unit.
type OutputTransform string

const (
	TransformIdentity OutputTransform = "identity"
	// TransformExpm1 undoes a log1p-scaled training target.
	TransformExpm1 OutputTransform = "expm1"
)

func ParseOutputTransform(s string) (OutputTransform, error) {
	switch t := OutputTransform(strings.ToLower(strings.TrimSpace(s))); t {
	case "", TransformIdentity:
		return TransformIdentity, nil
	case TransformExpm1, "log1p":
		return TransformExpm1, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTransform, s)
	}
}

func (t OutputTransform) Apply(x float64) float64 {
	if t == TransformExpm1 {
		return math.Expm1(x)
	}
	return x
}
