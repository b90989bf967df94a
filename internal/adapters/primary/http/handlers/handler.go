package handlers

import (
	"insurance-prediction-service/internal/core/services"
	ports "insurance-prediction-service/internal/core/ports/output"

	"github.com/gin-gonic/gin"
)

// DefaultMaxBodyBytes limits prediction request bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 1 << 20

type Handler struct {
	predictionSvc *services.PredictionService
	metrics       ports.PredictionMetrics
	maxBodyBytes  int64
}

// New creates the HTTP handler. metrics may be nil.
func New(predictionSvc *services.PredictionService, metrics ports.PredictionMetrics) *Handler {
	return &Handler{
		predictionSvc: predictionSvc,
		metrics:       metrics,
		maxBodyBytes:  DefaultMaxBodyBytes,
	}
}

// WithMaxBodyBytes sets the largest accepted prediction request body.
func (h *Handler) WithMaxBodyBytes(n int64) *Handler {
	if n > 0 {
		h.maxBodyBytes = n
	}
	return h
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	// Status
	r.GET("/", h.Status)
	r.GET("/models", h.ListModels)
	r.GET("/healthz", h.Health)

	// Predictions
	r.POST("/predict", h.PredictDefault)
	r.POST("/predict/:version", h.Predict)
}
