package main

import (
	"context"

	log "github.com/sirupsen/logrus"

	"insurance-prediction-service/internal/adapters/secondary/artifactstore"
	"insurance-prediction-service/internal/adapters/secondary/pipeline"
	"insurance-prediction-service/internal/config"
	ports "insurance-prediction-service/internal/core/ports/output"
	"insurance-prediction-service/internal/core/services"
)

// newResolver wires the artifact sources enabled in cfg. A remote source that fails to
// initialize is skipped; versions stored there will fail to load.
func newResolver(ctx context.Context, cfg *config.Config) *artifactstore.Resolver {
	resolver := artifactstore.NewResolver(artifactstore.NewFileSource(cfg.Models.BaseDir))

	if cfg.S3.Enabled {
		src, err := artifactstore.NewS3Source(ctx, &cfg.S3)
		if err != nil {
			log.Warnf("S3 artifact source init failed (continuing without S3): %v", err)
		} else {
			resolver.Register(artifactstore.SchemeS3, src)
			log.Info("S3 artifact source initialized")
		}
	}

	if cfg.GCS.Enabled {
		src, err := artifactstore.NewGCSSource(ctx, &cfg.GCS)
		if err != nil {
			log.Warnf("GCS artifact source init failed (continuing without GCS): %v", err)
		} else {
			resolver.Register(artifactstore.SchemeGCS, src)
			log.Info("GCS artifact source initialized")
		}
	}

	if cfg.HTTPSource.Enabled {
		src := artifactstore.NewHTTPSource(&cfg.HTTPSource)
		resolver.Register(artifactstore.SchemeHTTP, src)
		resolver.Register(artifactstore.SchemeHTTPS, src)
		log.Info("HTTP artifact source initialized")
	}

	if cfg.Kubernetes.Enabled {
		src, err := artifactstore.NewConfigMapSource(&cfg.Kubernetes)
		if err != nil {
			log.Warnf("ConfigMap artifact source init failed (continuing without K8s integration): %v", err)
		} else {
			resolver.Register(artifactstore.SchemeConfigMap, src)
			log.Info("ConfigMap artifact source initialized")
		}
	}

	return resolver
}

// loadRegistry loads every configured model version. Failures are recorded per
// version and never abort startup.
func loadRegistry(ctx context.Context, cfg *config.Config, metrics ports.PredictionMetrics) *services.ArtifactRegistry {
	ctx, cancel := context.WithTimeout(ctx, cfg.Models.LoadTimeout)
	defer cancel()

	loader := services.NewRegistryLoader(newResolver(ctx, cfg), pipeline.NewDecoder(), metrics)
	for _, m := range cfg.Models.Versions {
		// Errors are kept in the registry and logged by the loader.
		_ = loader.Load(ctx, services.ModelSpec{
			Version:   m.Version,
			Source:    m.Source,
			Transform: m.Transform,
		})
	}
	return loader.Registry()
}
