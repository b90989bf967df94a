package handlers

import (
	"errors"
	"net/http"

	"insurance-prediction-service/internal/core/domain"
	ports "insurance-prediction-service/internal/core/ports/output"

	"github.com/gin-gonic/gin"
)

func mapDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrModelUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrBadInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrPredictionFailed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return ports.OutcomeSuccess
	case errors.Is(err, domain.ErrModelUnavailable):
		return ports.OutcomeUnavailable
	case errors.Is(err, domain.ErrBadInput):
		return ports.OutcomeBadInput
	case errors.Is(err, domain.ErrPredictionFailed):
		return ports.OutcomeFailed
	default:
		return ports.OutcomeError
	}
}
