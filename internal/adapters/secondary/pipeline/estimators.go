package pipeline

import (
	"fmt"

	"insurance-prediction-service/internal/core/domain"
)

type estimator interface {
	predict(x []float64) (float64, error)
}

type linearEstimator struct {
	intercept    float64
	coefficients []float64
}

func (e *linearEstimator) predict(x []float64) (float64, error) {
	y := e.intercept
	for i, c := range e.coefficients {
		y += c * x[i]
	}
	return y, nil
}

// treeEnsemble is an additive ensemble of regression trees.
type treeEnsemble struct {
	baseScore    float64
	learningRate float64
	trees        [][]TreeNode
}

func (e *treeEnsemble) predict(x []float64) (float64, error) {
	sum := 0.0
	for i, tree := range e.trees {
		v, err := walkTree(tree, x)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		sum += v
	}
	return e.baseScore + e.learningRate*sum, nil
}

func walkTree(nodes []TreeNode, x []float64) (float64, error) {
	idx := 0
	// A well-formed tree reaches a leaf in fewer steps than it has nodes.
	for steps := 0; steps <= len(nodes); steps++ {
		node := nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if x[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
	return 0, fmt.Errorf("%w: tree does not terminate", domain.ErrPredictionFailed)
}
