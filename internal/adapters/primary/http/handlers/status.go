package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"insurance-prediction-service/internal/adapters/primary/http/dto"
)

const statusMessage = "Insurance charge prediction API"

func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, dto.StatusResponse{
		Message:         statusMessage,
		AvailableModels: h.predictionSvc.Available(),
	})
}

func (h *Handler) ListModels(c *gin.Context) {
	infos := h.predictionSvc.Models()
	defaultVersion := h.predictionSvc.DefaultVersion()

	items := make([]dto.ModelResponse, 0, len(infos))
	for _, info := range infos {
		items = append(items, dto.ToModelResponse(info, defaultVersion))
	}

	c.JSON(http.StatusOK, dto.ListModelsResponse{Models: items})
}

func (h *Handler) Health(c *gin.Context) {
	if !h.predictionSvc.Healthy() {
		c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok"})
}
