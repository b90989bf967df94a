package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"insurance-prediction-service/internal/core/domain"
	ports "insurance-prediction-service/internal/core/ports/output"
)

const predictionLogSchema = `
	CREATE TABLE IF NOT EXISTS prediction_log (
		id               UUID PRIMARY KEY,
		created_at       TIMESTAMPTZ NOT NULL,
		request_id       TEXT NOT NULL DEFAULT '',
		model_version    TEXT NOT NULL,
		features         JSONB NOT NULL,
		raw_output       DOUBLE PRECISION NOT NULL,
		predicted_charge DOUBLE PRECISION NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_prediction_log_version_created
		ON prediction_log (model_version, created_at DESC);
`

type predictionLogRepo struct {
	pool *pgxpool.Pool
}

func NewPredictionLogRepository(pool *pgxpool.Pool) ports.PredictionLogRepository {
	return &predictionLogRepo{pool: pool}
}

// Migrate creates the prediction_log table if it does not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, predictionLogSchema); err != nil {
		return fmt.Errorf("migrate prediction_log: %w", err)
	}
	return nil
}

const insertPredictionLogQuery = `
	INSERT INTO prediction_log
		(id, created_at, request_id, model_version, features, raw_output, predicted_charge)
	VALUES ($1,$2,$3,$4,$5,$6,$7)
`

func (r *predictionLogRepo) Insert(ctx context.Context, entry *domain.PredictionLogEntry) error {
	args, err := insertArgs(entry)
	if err != nil {
		return err
	}

	if _, err := r.pool.Exec(ctx, insertPredictionLogQuery, args...); err != nil {
		return fmt.Errorf("insert prediction log: %w", err)
	}
	return nil
}

// insertArgs returns the positional arguments of insertPredictionLogQuery, with the
// feature record encoded as a JSON object for the JSONB column.
func insertArgs(entry *domain.PredictionLogEntry) ([]any, error) {
	featuresJSON, err := json.Marshal(entry.Features.Map())
	if err != nil {
		return nil, fmt.Errorf("marshal features: %w", err)
	}
	return []any{
		entry.ID, entry.CreatedAt, entry.RequestID, entry.Version,
		featuresJSON, entry.RawOutput, entry.Charge,
	}, nil
}
