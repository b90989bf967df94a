package pipeline

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insurance-prediction-service/internal/core/domain"
)

const linearDoc = `{
  "name": "tiny",
  "features": [
    {"name": "x", "kind": "numeric", "mean": 1, "scale": 2},
    {"name": "color", "kind": "categorical", "categories": ["red", "green", "blue"], "drop_first": true}
  ],
  "estimator": {"type": "linear", "intercept": 10, "coefficients": [4, 100, 1000]}
}`

func decode(t *testing.T, name, doc string) *Pipeline {
	t.Helper()
	parsed, err := Parse(name, []byte(doc))
	require.NoError(t, err)
	p, err := Build(parsed)
	require.NoError(t, err)
	return p
}

func TestPipeline_LinearPredict(t *testing.T) {
	p := decode(t, "tiny.json", linearDoc)
	assert.Equal(t, 3, p.Width())

	tests := []struct {
		color string
		want  float64
	}{
		{"red", 10 + 4*2},
		{"green", 10 + 4*2 + 100},
		{"blue", 10 + 4*2 + 1000},
	}
	for _, tt := range tests {
		got, err := p.Predict(context.Background(), domain.Record{
			"x":     domain.Numeric(5),
			"color": domain.Categorical(tt.color),
		})
		require.NoError(t, err, tt.color)
		assert.InDelta(t, tt.want, got, 1e-9, tt.color)
	}
}

func TestPipeline_IgnoresExtraFeatures(t *testing.T) {
	p := decode(t, "tiny.json", linearDoc)

	got, err := p.Predict(context.Background(), domain.Record{
		"x":     domain.Numeric(1),
		"color": domain.Categorical("red"),
		"extra": domain.Categorical("whatever"),
	})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, got, 1e-9)
}

func TestPipeline_PredictErrors(t *testing.T) {
	p := decode(t, "tiny.json", linearDoc)

	tests := []struct {
		name   string
		record domain.Record
		msg    string
	}{
		{"missing feature", domain.Record{"x": domain.Numeric(1)}, `missing required feature "color"`},
		{"string for numeric", domain.Record{"x": domain.Categorical("abc"), "color": domain.Categorical("red")}, `feature "x" must be numeric`},
		{"number for category", domain.Record{"x": domain.Numeric(1), "color": domain.Numeric(3)}, `feature "color" must be a category`},
		{"unknown category", domain.Record{"x": domain.Numeric(1), "color": domain.Categorical("pink")}, `unknown category "pink"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Predict(context.Background(), tt.record)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrPredictionFailed)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestPipeline_HandleUnknownIgnore(t *testing.T) {
	doc := `{
  "features": [{"name": "c", "kind": "categorical", "categories": ["a", "b"], "handle_unknown": "ignore"}],
  "estimator": {"type": "linear", "intercept": 1, "coefficients": [2, 3]}
}`
	p := decode(t, "ignore.json", doc)

	got, err := p.Predict(context.Background(), domain.Record{"c": domain.Categorical("z")})
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	got, err = p.Predict(context.Background(), domain.Record{"c": domain.Categorical("b")})
	require.NoError(t, err)
	assert.Equal(t, 4.0, got)
}

func TestPipeline_TreeEnsembleYAML(t *testing.T) {
	doc := `
features:
  - {name: x, kind: numeric}
estimator:
  type: tree_ensemble
  base_score: 1.0
  learning_rate: 0.5
  trees:
    - - {feature_idx: 0, threshold: 10, left_child: 1, right_child: 2}
      - {is_leaf: true, value: 2}
      - {is_leaf: true, value: 4}
    - - {is_leaf: true, value: 6}
`
	p := decode(t, "trees.yml", doc)

	low, err := p.Predict(context.Background(), domain.Record{"x": domain.Numeric(10)})
	require.NoError(t, err)
	assert.InDelta(t, 1.0+0.5*(2+6), low, 1e-9)

	high, err := p.Predict(context.Background(), domain.Record{"x": domain.Numeric(11)})
	require.NoError(t, err)
	assert.InDelta(t, 1.0+0.5*(4+6), high, 1e-9)
}

func TestPipeline_CanceledContext(t *testing.T) {
	p := decode(t, "tiny.json", linearDoc)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Predict(ctx, domain.Record{"x": domain.Numeric(1), "color": domain.Categorical("red")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_ConcurrentPredict(t *testing.T) {
	p := decode(t, "tiny.json", linearDoc)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := p.Predict(context.Background(), domain.Record{
				"x":     domain.Numeric(float64(i)),
				"color": domain.Categorical("green"),
			})
			assert.NoError(t, err)
			assert.InDelta(t, 10+4*(float64(i)-1)/2+100, got, 1e-9)
		}(i)
	}
	wg.Wait()
}

func TestBuild_Validation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"no features", `{"estimator": {"type": "linear"}}`, "no features"},
		{"unnamed feature", `{"features": [{"kind": "numeric"}], "estimator": {"type": "linear", "coefficients": [1]}}`, "has no name"},
		{"duplicate feature", `{"features": [{"name": "a", "kind": "numeric"}, {"name": "a", "kind": "numeric"}], "estimator": {"type": "linear", "coefficients": [1, 1]}}`, "duplicate feature"},
		{"unknown kind", `{"features": [{"name": "a", "kind": "text"}], "estimator": {"type": "linear"}}`, "unknown kind"},
		{"empty categories", `{"features": [{"name": "a", "kind": "categorical"}], "estimator": {"type": "linear"}}`, "no categories"},
		{"bad unknown policy", `{"features": [{"name": "a", "kind": "categorical", "categories": ["x"], "handle_unknown": "drop"}], "estimator": {"type": "linear", "coefficients": [1]}}`, "handle_unknown"},
		{"coefficient mismatch", `{"features": [{"name": "a", "kind": "numeric"}], "estimator": {"type": "linear", "coefficients": [1, 2]}}`, "2 coefficients"},
		{"unknown estimator", `{"features": [{"name": "a", "kind": "numeric"}], "estimator": {"type": "svm"}}`, "unknown estimator"},
		{"no trees", `{"features": [{"name": "a", "kind": "numeric"}], "estimator": {"type": "tree_ensemble"}}`, "no trees"},
		{"feature index out of range", `{"features": [{"name": "a", "kind": "numeric"}], "estimator": {"type": "tree_ensemble", "trees": [[{"feature_idx": 3, "left_child": 0, "right_child": 0}]]}}`, "feature index 3"},
		{"child out of range", `{"features": [{"name": "a", "kind": "numeric"}], "estimator": {"type": "tree_ensemble", "trees": [[{"feature_idx": 0, "left_child": 1, "right_child": 2}]]}}`, "child index"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecoder().Decode("doc.json", []byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidArtifact)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestWalkTree_Cycle(t *testing.T) {
	doc := `{"features": [{"name": "a", "kind": "numeric"}],
  "estimator": {"type": "tree_ensemble", "trees": [[{"feature_idx": 0, "threshold": 1, "left_child": 0, "right_child": 0}]]}}`
	p := decode(t, "cycle.json", doc)

	_, err := p.Predict(context.Background(), domain.Record{"a": domain.Numeric(0)})
	assert.ErrorIs(t, err, domain.ErrPredictionFailed)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse("bad.json", []byte(`{"features": [`))
	assert.ErrorIs(t, err, domain.ErrInvalidArtifact)

	_, err = Parse("bad.json", []byte(`{"layers": []}`))
	assert.ErrorIs(t, err, domain.ErrInvalidArtifact)

	_, err = Parse("bad.yaml", []byte("features: [unclosed"))
	assert.ErrorIs(t, err, domain.ErrInvalidArtifact)

	_, err = Parse("empty.yaml", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArtifact)
}

func TestParse_UnknownFieldsRejectedInBothFormats(t *testing.T) {
	jsonDoc := `{"features": [{"name": "c", "kind": "categorical", "categories": ["a", "b"], "handle_unknwn": "ignore"}]}`
	_, err := Parse("typo.json", []byte(jsonDoc))
	assert.ErrorIs(t, err, domain.ErrInvalidArtifact)
	assert.Contains(t, err.Error(), "handle_unknwn")

	yamlDoc := `
features:
  - name: c
    kind: categorical
    categories: [a, b]
    handle_unknwn: ignore
`
	_, err = Parse("typo.yaml", []byte(yamlDoc))
	assert.ErrorIs(t, err, domain.ErrInvalidArtifact)
	assert.Contains(t, err.Error(), "handle_unknwn")
}

func insuranceRecord() domain.Record {
	return domain.Record{
		"age":      domain.Numeric(30),
		"sex":      domain.Categorical("male"),
		"bmi":      domain.Numeric(25.0),
		"children": domain.Numeric(0),
		"smoker":   domain.Categorical("no"),
		"region":   domain.Categorical("southeast"),
	}
}

func TestShippedArtifacts(t *testing.T) {
	v1Data, err := os.ReadFile("../../../../artifacts/insurance_pipeline_v1.json")
	require.NoError(t, err)
	v1, err := NewDecoder().Decode("insurance_pipeline_v1.json", v1Data)
	require.NoError(t, err)

	got, err := v1.Predict(context.Background(), insuranceRecord())
	require.NoError(t, err)
	want := 8500.0 +
		3610*(30-39.2)/14.05 -
		131 +
		2070*(25-30.66)/6.1 +
		573*(0-1.09)/1.21 -
		1035
	assert.InDelta(t, want, got, 1e-6)

	v2Data, err := os.ReadFile("../../../../artifacts/insurance_pipeline_v2.yaml")
	require.NoError(t, err)
	v2, err := NewDecoder().Decode("insurance_pipeline_v2.yaml", v2Data)
	require.NoError(t, err)

	raw, err := v2.Predict(context.Background(), insuranceRecord())
	require.NoError(t, err)
	assert.InDelta(t, 8.2, raw, 1e-9)

	smoker := insuranceRecord()
	smoker["smoker"] = domain.Categorical("yes")
	smoker["bmi"] = domain.Numeric(35)
	raw, err = v2.Predict(context.Background(), smoker)
	require.NoError(t, err)
	assert.InDelta(t, 8.9+1.2-0.35+0.45, raw, 1e-9)
}
