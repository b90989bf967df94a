package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"insurance-prediction-service/internal/adapters/primary/http/dto"
	"insurance-prediction-service/internal/adapters/primary/http/middleware"
	"insurance-prediction-service/internal/core/domain"
	"insurance-prediction-service/internal/core/services"
)

// metricsVersionUnknown labels requests for versions that were never configured,
// keeping label cardinality bounded.
const metricsVersionUnknown = "unknown"

func (h *Handler) Predict(c *gin.Context) {
	h.predict(c, c.Param("version"))
}

// PredictDefault serves the unversioned /predict route with the default model version.
func (h *Handler) PredictDefault(c *gin.Context) {
	h.predict(c, h.predictionSvc.DefaultVersion())
}

func (h *Handler) predict(c *gin.Context, version string) {
	start := time.Now()
	prediction, err := h.runPrediction(c, version)
	h.observe(version, err, time.Since(start))

	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"model_version": version,
			"request_id":    middleware.GetRequestID(c),
		}).Warn("prediction request failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPredictionResponse(prediction))
}

func (h *Handler) runPrediction(c *gin.Context, version string) (*domain.Prediction, error) {
	if err := h.predictionSvc.CheckAvailable(version); err != nil {
		return nil, err
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: request body exceeds %d bytes", domain.ErrBadInput, tooLarge.Limit)
		}
		return nil, fmt.Errorf("%w: read request body: %v", domain.ErrBadInput, err)
	}
	record, err := dto.ToRecord(body)
	if err != nil {
		return nil, err
	}

	return h.predictionSvc.Predict(c.Request.Context(), services.PredictionRequest{
		Version:   version,
		RequestID: middleware.GetRequestID(c),
		Record:    record,
	})
}

func (h *Handler) observe(version string, err error, latency time.Duration) {
	if h.metrics == nil {
		return
	}
	if !h.predictionSvc.IsConfigured(version) {
		version = metricsVersionUnknown
	}
	h.metrics.ObservePrediction(version, outcomeOf(err), latency)
}
