package ports

import (
	"context"

	"insurance-prediction-service/internal/core/domain"
)

type PredictionLogRepository interface {
	Insert(ctx context.Context, entry *domain.PredictionLogEntry) error
}
