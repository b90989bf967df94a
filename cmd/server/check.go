package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"insurance-prediction-service/internal/core/services"
)

var errNoModelsLoaded = errors.New("no model artifacts could be loaded")

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load every configured model artifact and report its status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			registry := loadRegistry(cmd.Context(), cfg, nil)
			return printRegistry(cmd.OutOrStdout(), registry)
		},
	}
}

// printRegistry writes one row per configured version and fails when nothing loaded.
func printRegistry(out io.Writer, registry *services.ArtifactRegistry) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tLOADED\tTRANSFORM\tSOURCE\tERROR")
	for _, info := range registry.Entries() {
		fmt.Fprintf(w, "%s\t%t\t%s\t%s\t%s\n", info.Version, info.Loaded, info.Transform, info.Source, info.Error)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(registry.Available()) == 0 {
		return errNoModelsLoaded
	}
	return nil
}
