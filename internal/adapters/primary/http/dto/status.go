package dto

import (
	"time"

	"insurance-prediction-service/internal/core/domain"
)

type StatusResponse struct {
	Message         string   `json:"message"`
	AvailableModels []string `json:"available_models"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ModelResponse struct {
	Version   string     `json:"version"`
	Source    string     `json:"source"`
	Transform string     `json:"transform"`
	Loaded    bool       `json:"loaded"`
	Error     string     `json:"error,omitempty"`
	LoadedAt  *time.Time `json:"loaded_at,omitempty"`
	Default   bool       `json:"default"`
}

type ListModelsResponse struct {
	Models []ModelResponse `json:"models"`
}

func ToModelResponse(info domain.ArtifactInfo, defaultVersion string) ModelResponse {
	return ModelResponse{
		Version:   info.Version,
		Source:    info.Source,
		Transform: string(info.Transform),
		Loaded:    info.Loaded,
		Error:     info.Error,
		LoadedAt:  info.LoadedAt,
		Default:   info.Version == defaultVersion,
	}
}
