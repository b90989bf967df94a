package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"insurance-prediction-service/internal/core/domain"
	ports "insurance-prediction-service/internal/core/ports/output"
)

const defaultLogTimeout = 2 * time.Second

// PredictionRequest is one parsed request to score a record with a model version.
type PredictionRequest struct {
	Version   string
	RequestID string
	Record    domain.Record
}

type PredictionService struct {
	registry       *ArtifactRegistry
	logRepo        ports.PredictionLogRepository
	defaultVersion string
	logTimeout     time.Duration
}

// NewPredictionService creates the service. logRepo may be nil to disable the prediction log.
func NewPredictionService(registry *ArtifactRegistry, logRepo ports.PredictionLogRepository, defaultVersion string) *PredictionService {
	return &PredictionService{
		registry:       registry,
		logRepo:        logRepo,
		defaultVersion: defaultVersion,
		logTimeout:     defaultLogTimeout,
	}
}

// WithLogTimeout bounds how long a prediction log write may take.
func (s *PredictionService) WithLogTimeout(d time.Duration) *PredictionService {
	if d > 0 {
		s.logTimeout = d
	}
	return s
}

func (s *PredictionService) DefaultVersion() string {
	return s.defaultVersion
}

func (s *PredictionService) Available() []string {
	return s.registry.Available()
}

func (s *PredictionService) Models() []domain.ArtifactInfo {
	return s.registry.Entries()
}

func (s *PredictionService) IsConfigured(version string) bool {
	return s.registry.Configured(version)
}

// Healthy reports whether at least one model version can serve predictions.
func (s *PredictionService) Healthy() bool {
	return len(s.registry.Available()) > 0
}

// CheckAvailable returns ErrModelUnavailable if version has no loaded artifact.
func (s *PredictionService) CheckAvailable(version string) error {
	if _, ok := s.registry.Get(version); !ok {
		return fmt.Errorf("%w: model %q is not loaded", domain.ErrModelUnavailable, version)
	}
	return nil
}

// Predict scores req.Record with the requested version and applies the version's
// output transform.
func (s *PredictionService) Predict(ctx context.Context, req PredictionRequest) (*domain.Prediction, error) {
	artifact, ok := s.registry.Get(req.Version)
	if !ok {
		return nil, fmt.Errorf("%w: model %q is not loaded", domain.ErrModelUnavailable, req.Version)
	}
	if req.Record == nil {
		return nil, fmt.Errorf("%w: feature record is required", domain.ErrBadInput)
	}

	raw, err := invoke(ctx, artifact.predictor, req.Record)
	if err != nil {
		if errors.Is(err, domain.ErrPredictionFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPredictionFailed, err)
	}

	charge := artifact.Transform().Apply(raw)
	if math.IsNaN(charge) || math.IsInf(charge, 0) {
		return nil, fmt.Errorf("%w: model %q produced a non-finite charge", domain.ErrPredictionFailed, req.Version)
	}

	prediction := &domain.Prediction{
		Version:   artifact.Version(),
		RawOutput: raw,
		Charge:    charge,
	}
	s.logPrediction(ctx, req, prediction)
	return prediction, nil
}

// invoke calls the predictor, converting a panic into an error so that a faulty
// artifact only fails the current request.
func invoke(ctx context.Context, p ports.Predictor, record domain.Record) (out float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: artifact panicked: %v", domain.ErrPredictionFailed, r)
		}
	}()
	return p.Predict(ctx, record)
}

func (s *PredictionService) logPrediction(ctx context.Context, req PredictionRequest, p *domain.Prediction) {
	if s.logRepo == nil {
		return
	}

	entry := &domain.PredictionLogEntry{
		ID:        uuid.New(),
		RequestID: req.RequestID,
		Version:   p.Version,
		Features:  req.Record,
		RawOutput: p.RawOutput,
		Charge:    p.Charge,
		CreatedAt: time.Now(),
	}

	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.logTimeout)
	defer cancel()
	if err := s.logRepo.Insert(logCtx, entry); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"model_version": p.Version,
			"request_id":    req.RequestID,
		}).Warn("write prediction log failed")
	}
}
