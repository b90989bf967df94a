package main

import (
	"os"

	"github.com/spf13/cobra"

	"insurance-prediction-service/internal/config"
)

var configFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "insurance-api",
		Short:        "Serve insurance charge predictions over HTTP",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", os.Getenv("CONFIG_FILE"), "optional config file; environment variables take precedence")

	root.AddCommand(newServeCmd(), newCheckCmd(), newPredictCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Load model artifacts and start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	initLogger(cfg)
	return cfg, nil
}
