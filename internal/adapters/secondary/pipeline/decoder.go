package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"insurance-prediction-service/internal/core/domain"
	ports "insurance-prediction-service/internal/core/ports/output"
)

// Decoder reads pipeline documents. YAML is used for .yaml/.yml names, JSON otherwise.
type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) Decode(name string, data []byte) (ports.Predictor, error) {
	doc, err := Parse(name, data)
	if err != nil {
		return nil, err
	}
	return Build(doc)
}

// Parse unmarshals a pipeline document without validating it. Unknown fields are
// rejected in both formats.
func Parse(name string, data []byte) (*Document, error) {
	var doc Document
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: parse yaml: %v", domain.ErrInvalidArtifact, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: parse json: %v", domain.ErrInvalidArtifact, err)
		}
	}
	return &doc, nil
}

// Build validates doc and compiles it into a Pipeline.
func Build(doc *Document) (*Pipeline, error) {
	if len(doc.Features) == 0 {
		return nil, fmt.Errorf("%w: no features defined", domain.ErrInvalidArtifact)
	}

	p := &Pipeline{name: doc.Name}
	seen := make(map[string]bool, len(doc.Features))
	for i, step := range doc.Features {
		if step.Name == "" {
			return nil, fmt.Errorf("%w: feature %d has no name", domain.ErrInvalidArtifact, i)
		}
		if seen[step.Name] {
			return nil, fmt.Errorf("%w: duplicate feature %q", domain.ErrInvalidArtifact, step.Name)
		}
		seen[step.Name] = true

		enc, err := buildEncoder(step)
		if err != nil {
			return nil, err
		}
		p.encoders = append(p.encoders, enc)
		p.width += enc.width()
	}

	est, err := buildEstimator(doc.Estimator, p.width)
	if err != nil {
		return nil, err
	}
	p.estimator = est
	return p, nil
}

func buildEncoder(step FeatureStep) (encoder, error) {
	switch step.Kind {
	case StepNumeric:
		scale := step.Scale
		if scale == 0 {
			scale = 1
		}
		return &numericEncoder{name: step.Name, mean: step.Mean, scale: scale}, nil
	case StepCategorical:
		if len(step.Categories) == 0 {
			return nil, fmt.Errorf("%w: feature %q has no categories", domain.ErrInvalidArtifact, step.Name)
		}
		switch step.HandleUnknown {
		case "", HandleUnknownError, HandleUnknownIgnore:
		default:
			return nil, fmt.Errorf("%w: feature %q: unknown handle_unknown %q", domain.ErrInvalidArtifact, step.Name, step.HandleUnknown)
		}
		seen := make(map[string]bool, len(step.Categories))
		for _, c := range step.Categories {
			if seen[c] {
				return nil, fmt.Errorf("%w: feature %q: duplicate category %q", domain.ErrInvalidArtifact, step.Name, c)
			}
			seen[c] = true
		}
		return newCategoricalEncoder(step), nil
	default:
		return nil, fmt.Errorf("%w: feature %q: unknown kind %q", domain.ErrInvalidArtifact, step.Name, step.Kind)
	}
}

func buildEstimator(e Estimator, width int) (estimator, error) {
	switch e.Type {
	case EstimatorLinear:
		if len(e.Coefficients) != width {
			return nil, fmt.Errorf("%w: linear estimator has %d coefficients, encoded width is %d",
				domain.ErrInvalidArtifact, len(e.Coefficients), width)
		}
		return &linearEstimator{intercept: e.Intercept, coefficients: e.Coefficients}, nil
	case EstimatorTreeEnsemble:
		if len(e.Trees) == 0 {
			return nil, fmt.Errorf("%w: tree ensemble has no trees", domain.ErrInvalidArtifact)
		}
		for i, tree := range e.Trees {
			if err := validateTree(tree, width); err != nil {
				return nil, fmt.Errorf("%w: tree %d: %v", domain.ErrInvalidArtifact, i, err)
			}
		}
		rate := e.LearningRate
		if rate == 0 {
			rate = 1
		}
		return &treeEnsemble{baseScore: e.BaseScore, learningRate: rate, trees: e.Trees}, nil
	default:
		return nil, fmt.Errorf("%w: unknown estimator type %q", domain.ErrInvalidArtifact, e.Type)
	}
}

func validateTree(nodes []TreeNode, width int) error {
	if len(nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, n := range nodes {
		if n.IsLeaf {
			continue
		}
		if n.FeatureIdx < 0 || n.FeatureIdx >= width {
			return fmt.Errorf("node %d: feature index %d out of range", i, n.FeatureIdx)
		}
		if n.LeftChild < 0 || n.LeftChild >= len(nodes) || n.RightChild < 0 || n.RightChild >= len(nodes) {
			return fmt.Errorf("node %d: child index out of range", i)
		}
	}
	return nil
}
