package pipeline

// Feature step kinds.
const (
	StepNumeric     = "numeric"
	StepCategorical = "categorical"
)

// Estimator types.
const (
	EstimatorLinear       = "linear"
	EstimatorTreeEnsemble = "tree_ensemble"
)

// Unknown category policies.
const (
	HandleUnknownError  = "error"
	HandleUnknownIgnore = "ignore"
)

// Document is the serialized form of a prediction pipeline: an ordered list of
// feature encoders followed by a regression estimator over the encoded vector.
type Document struct {
	Name      string        `json:"name" yaml:"name"`
	Target    string        `json:"target" yaml:"target"`
	Features  []FeatureStep `json:"features" yaml:"features"`
	Estimator Estimator     `json:"estimator" yaml:"estimator"`
}

type FeatureStep struct {
	Name string `json:"name" yaml:"name"`
	Kind string `json:"kind" yaml:"kind"`

	// numeric
	Mean  float64 `json:"mean" yaml:"mean"`
	Scale float64 `json:"scale" yaml:"scale"`

	// categorical
	Categories    []string `json:"categories" yaml:"categories"`
	DropFirst     bool     `json:"drop_first" yaml:"drop_first"`
	HandleUnknown string   `json:"handle_unknown" yaml:"handle_unknown"`
}

type Estimator struct {
	Type string `json:"type" yaml:"type"`

	// linear
	Intercept    float64   `json:"intercept" yaml:"intercept"`
	Coefficients []float64 `json:"coefficients" yaml:"coefficients"`

	// tree_ensemble
	BaseScore    float64      `json:"base_score" yaml:"base_score"`
	LearningRate float64      `json:"learning_rate" yaml:"learning_rate"`
	Trees        [][]TreeNode `json:"trees" yaml:"trees"`
}

// TreeNode is one node of a regression tree stored as a flat array.
// Samples with x[FeatureIdx] <= Threshold go to LeftChild.
type TreeNode struct {
	FeatureIdx int     `json:"feature_idx" yaml:"feature_idx"`
	Threshold  float64 `json:"threshold" yaml:"threshold"`
	LeftChild  int     `json:"left_child" yaml:"left_child"`
	RightChild int     `json:"right_child" yaml:"right_child"`
	Value      float64 `json:"value" yaml:"value"`
	IsLeaf     bool    `json:"is_leaf" yaml:"is_leaf"`
}
