package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"insurance-prediction-service/internal/adapters/primary/http/middleware"
	"insurance-prediction-service/internal/core/domain"
	ports "insurance-prediction-service/internal/core/ports/output"
	"insurance-prediction-service/internal/core/services"
	"insurance-prediction-service/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const v1Payload = `{"age":30,"sex":"male","bmi":25.0,"children":0,"smoker":"no","region":"southeast"}`

var (
	specV1 = services.ModelSpec{Version: "v1", Source: "v1.json", Transform: domain.TransformIdentity}
	specV2 = services.ModelSpec{Version: "v2", Source: "v2.json", Transform: domain.TransformExpm1}
)

func setupRouter(artifacts map[services.ModelSpec]ports.Predictor, metrics ports.PredictionMetrics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	registry := services.NewArtifactRegistry(artifacts)
	svc := services.NewPredictionService(registry, nil, "v1")

	h := New(svc, metrics)
	r := gin.New()
	r.Use(middleware.RequestID())
	h.RegisterRoutes(r)
	return r
}

func post(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestPredictV1(t *testing.T) {
	predictor := new(testutil.MockPredictor)
	predictor.On("Predict", mock.Anything, mock.MatchedBy(func(r domain.Record) bool {
		return r["age"] == domain.Numeric(30) && r["region"] == domain.Categorical("southeast")
	})).Return(4520.75, nil)

	r := setupRouter(map[services.ModelSpec]ports.Predictor{specV1: predictor}, nil)
	w := post(r, "/predict/v1", v1Payload)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, 4520.75, resp["predicted_charge"])
	assert.Equal(t, "v1", resp["model_version"])
}

func TestPredictV2_AppliesExpm1(t *testing.T) {
	predictor := new(testutil.MockPredictor)
	predictor.On("Predict", mock.Anything, mock.Anything).Return(2.3, nil)

	r := setupRouter(map[services.ModelSpec]ports.Predictor{specV2: predictor}, nil)
	w := post(r, "/predict/v2", v1Payload)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.InDelta(t, math.Exp(2.3)-1, resp["predicted_charge"], 1e-9)
	assert.InDelta(t, 8.97, resp["predicted_charge"], 0.01)
	assert.Equal(t, "v2", resp["model_version"])
}

func TestPredictDefaultVersion(t *testing.T) {
	predictor := new(testutil.MockPredictor)
	predictor.On("Predict", mock.Anything, mock.Anything).Return(100.0, nil)

	r := setupRouter(map[services.ModelSpec]ports.Predictor{specV1: predictor}, nil)
	w := post(r, "/predict", v1Payload)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "v1", decodeBody(t, w)["model_version"])
}

func TestPredict_ModelUnavailable(t *testing.T) {
	predictor := new(testutil.MockPredictor)
	r := setupRouter(map[services.ModelSpec]ports.Predictor{specV1: predictor}, nil)

	for _, path := range []string{"/predict/v2", "/predict/v9"} {
		w := post(r, path, v1Payload)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
		assert.Contains(t, decodeBody(t, w)["error"], "model unavailable", path)
	}
	predictor.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
}

func TestPredict_UnavailableCheckedBeforeBody(t *testing.T) {
	r := setupRouter(map[services.ModelSpec]ports.Predictor{}, nil)

	w := post(r, "/predict/v2", `not json`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPredict_BadRequest(t *testing.T) {
	predictor := new(testutil.MockPredictor)
	r := setupRouter(map[services.ModelSpec]ports.Predictor{specV1: predictor, specV2: predictor}, nil)

	bodies := []string{``, `{"age": 30,`, `[1, 2, 3]`, `"text"`, `{"age": null}`, `{"age": 1e400}`}
	for _, version := range []string{"v1", "v2"} {
		for _, body := range bodies {
			w := post(r, "/predict/"+version, body)
			assert.Equal(t, http.StatusBadRequest, w.Code, "%s %q", version, body)
			resp := decodeBody(t, w)
			assert.Contains(t, resp["error"], "bad request", "%s %q", version, body)
		}
	}
	predictor.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
}

func TestPredict_BodyTooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	predictor := new(testutil.MockPredictor)
	registry := services.NewArtifactRegistry(map[services.ModelSpec]ports.Predictor{specV1: predictor})
	svc := services.NewPredictionService(registry, nil, "v1")

	r := gin.New()
	New(svc, nil).WithMaxBodyBytes(32).RegisterRoutes(r)

	w := post(r, "/predict/v1", v1Payload)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "request body exceeds 32 bytes")
	predictor.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
}

func TestPredict_BodyWithinLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	predictor := new(testutil.MockPredictor)
	predictor.On("Predict", mock.Anything, mock.Anything).Return(100.0, nil)
	registry := services.NewArtifactRegistry(map[services.ModelSpec]ports.Predictor{specV1: predictor})
	svc := services.NewPredictionService(registry, nil, "v1")

	r := gin.New()
	New(svc, nil).WithMaxBodyBytes(int64(len(v1Payload))).RegisterRoutes(r)

	w := post(r, "/predict/v1", v1Payload)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPredict_PredictionFailure(t *testing.T) {
	predictor := new(testutil.MockPredictor)
	predictor.On("Predict", mock.Anything, mock.Anything).
		Return(0.0, errors.New(`missing required feature "bmi"`))

	r := setupRouter(map[services.ModelSpec]ports.Predictor{specV1: predictor}, nil)
	w := post(r, "/predict/v1", `{"age": 30}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], `missing required feature "bmi"`)
}

func TestPredict_PanicDoesNotAffectOtherRequests(t *testing.T) {
	panicky := testutil.PredictorFunc(func(ctx context.Context, r domain.Record) (float64, error) {
		if r["age"] == domain.Numeric(-1) {
			panic("boom")
		}
		return 1.0, nil
	})
	r := setupRouter(map[services.ModelSpec]ports.Predictor{specV1: panicky}, nil)

	var wg sync.WaitGroup
	codes := make([]int, 20)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := v1Payload
			if i%2 == 0 {
				body = `{"age": -1}`
			}
			codes[i] = post(r, "/predict/v1", body).Code
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		if i%2 == 0 {
			assert.Equal(t, http.StatusUnprocessableEntity, code)
		} else {
			assert.Equal(t, http.StatusOK, code)
		}
	}
}

func TestPredict_RecordsMetrics(t *testing.T) {
	predictor := new(testutil.MockPredictor)
	predictor.On("Predict", mock.Anything, mock.Anything).Return(1.0, nil)
	metrics := new(testutil.MockPredictionMetrics)
	metrics.On("ObservePrediction", "v1", ports.OutcomeSuccess, mock.Anything).Return().Once()
	metrics.On("ObservePrediction", "v1", ports.OutcomeBadInput, mock.Anything).Return().Once()
	metrics.On("ObservePrediction", "unknown", ports.OutcomeUnavailable, mock.Anything).Return().Once()

	r := setupRouter(map[services.ModelSpec]ports.Predictor{specV1: predictor}, metrics)
	post(r, "/predict/v1", v1Payload)
	post(r, "/predict/v1", `{`)
	post(r, "/predict/not-a-version", v1Payload)

	metrics.AssertExpectations(t)
}

func TestStatus(t *testing.T) {
	predictor := new(testutil.MockPredictor)
	r := setupRouter(map[services.ModelSpec]ports.Predictor{specV1: predictor}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, "Insurance charge prediction API", resp["message"])
	assert.Equal(t, []interface{}{"v1"}, resp["available_models"])
}

func TestStatus_NoModels(t *testing.T) {
	r := setupRouter(map[services.ModelSpec]ports.Predictor{}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{}, decodeBody(t, w)["available_models"])
}

func TestHealth(t *testing.T) {
	predictor := new(testutil.MockPredictor)

	healthy := setupRouter(map[services.ModelSpec]ports.Predictor{specV1: predictor}, nil)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)
	healthy.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	unhealthy := setupRouter(map[services.ModelSpec]ports.Predictor{}, nil)
	w = httptest.NewRecorder()
	unhealthy.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", decodeBody(t, w)["status"])
}

func TestListModels(t *testing.T) {
	predictor := new(testutil.MockPredictor)
	r := setupRouter(map[services.ModelSpec]ports.Predictor{specV1: predictor, specV2: predictor}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/models", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	models := resp["models"].([]interface{})
	require.Len(t, models, 2)

	first := models[0].(map[string]interface{})
	assert.Equal(t, "v1", first["version"])
	assert.Equal(t, true, first["loaded"])
	assert.Equal(t, true, first["default"])
	assert.Equal(t, "identity", first["transform"])

	second := models[1].(map[string]interface{})
	assert.Equal(t, "v2", second["version"])
	assert.Equal(t, "expm1", second["transform"])
	assert.Equal(t, false, second["default"])
}
