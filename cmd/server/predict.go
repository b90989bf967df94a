package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"insurance-prediction-service/internal/adapters/primary/http/dto"
	"insurance-prediction-service/internal/core/services"
)

func newPredictCmd() *cobra.Command {
	var (
		version string
		input   string
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score one JSON feature record without starting the server",
		Example: `  insurance-api predict --version v2 --input payload.json
  echo '{"age":30,"sex":"male","bmi":25.0,"children":0,"smoker":"no","region":"southeast"}' | insurance-api predict`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if version == "" {
				version = cfg.Models.DefaultVersion
			}

			body, err := readInput(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}

			registry := loadRegistry(cmd.Context(), cfg, nil)
			svc := services.NewPredictionService(registry, nil, cfg.Models.DefaultVersion)
			return predictOnce(cmd.Context(), cmd.OutOrStdout(), svc, version, body)
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "model version (defaults to MODEL_DEFAULT_VERSION)")
	cmd.Flags().StringVarP(&input, "input", "i", "-", "JSON file with one feature record, - for stdin")
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input %s: %w", path, err)
	}
	return data, nil
}

func predictOnce(ctx context.Context, out io.Writer, svc *services.PredictionService, version string, body []byte) error {
	record, err := dto.ToRecord(body)
	if err != nil {
		return err
	}
	prediction, err := svc.Predict(ctx, services.PredictionRequest{Version: version, Record: record})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(dto.ToPredictionResponse(prediction))
}
