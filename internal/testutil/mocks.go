package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"insurance-prediction-service/internal/core/domain"
	ports "insurance-prediction-service/internal/core/ports/output"
)

// MockPredictor is a mock of ports.Predictor.
type MockPredictor struct {
	mock.Mock
}

func (m *MockPredictor) Predict(ctx context.Context, record domain.Record) (float64, error) {
	args := m.Called(ctx, record)
	return args.Get(0).(float64), args.Error(1)
}

// PredictorFunc adapts a function to ports.Predictor.
type PredictorFunc func(ctx context.Context, record domain.Record) (float64, error)

func (f PredictorFunc) Predict(ctx context.Context, record domain.Record) (float64, error) {
	return f(ctx, record)
}

// MockArtifactSource is a mock of ports.ArtifactSource.
type MockArtifactSource struct {
	mock.Mock
}

func (m *MockArtifactSource) Fetch(ctx context.Context, uri string) ([]byte, error) {
	args := m.Called(ctx, uri)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockArtifactDecoder is a mock of ports.ArtifactDecoder.
type MockArtifactDecoder struct {
	mock.Mock
}

func (m *MockArtifactDecoder) Decode(name string, data []byte) (ports.Predictor, error) {
	args := m.Called(name, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ports.Predictor), args.Error(1)
}

// MockPredictionLogRepo is a mock of ports.PredictionLogRepository.
type MockPredictionLogRepo struct {
	mock.Mock
}

func (m *MockPredictionLogRepo) Insert(ctx context.Context, entry *domain.PredictionLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockPredictionMetrics is a mock of ports.PredictionMetrics.
type MockPredictionMetrics struct {
	mock.Mock
}

func (m *MockPredictionMetrics) ObservePrediction(version, outcome string, latency time.Duration) {
	m.Called(version, outcome, latency)
}

func (m *MockPredictionMetrics) SetArtifactLoaded(version string, loaded bool) {
	m.Called(version, loaded)
}
