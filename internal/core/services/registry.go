package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"insurance-prediction-service/internal/core/domain"
	ports "insurance-prediction-service/internal/core/ports/output"
)

// ModelSpec configures one model version.
type ModelSpec struct {
	Version   string
	Source    string
	Transform domain.OutputTransform
}

// Artifact is a loaded, immutable model version.
type Artifact struct {
	info      domain.ArtifactInfo
	predictor ports.Predictor
}

func (a *Artifact) Version() string                   { return a.info.Version }
func (a *Artifact) Transform() domain.OutputTransform { return a.info.Transform }
func (a *Artifact) Info() domain.ArtifactInfo         { return a.info }

// ArtifactRegistry maps version identifiers to loaded artifacts.
// It is built once by a RegistryLoader and is read-only afterwards.
type ArtifactRegistry struct {
	entries map[string]*Artifact
	order   []string
}

// NewArtifactRegistry builds a registry from predictors that are already in memory,
// bypassing fetch and decode. It is the entry point for embedding the service with
// in-process models and for tests; servers load artifacts through a RegistryLoader.
// Every entry is reported as loaded.
func NewArtifactRegistry(artifacts map[ModelSpec]ports.Predictor) *ArtifactRegistry {
	l := &RegistryLoader{entries: make(map[string]*Artifact)}
	now := time.Now()
	for spec, p := range artifacts {
		l.record(spec, p, nil, now)
	}
	return l.Registry()
}

// Get returns the artifact for version if it was configured and loaded.
func (r *ArtifactRegistry) Get(version string) (*Artifact, bool) {
	a, ok := r.entries[version]
	if !ok || a.predictor == nil {
		return nil, false
	}
	return a, true
}

// Configured reports whether version was configured, loaded or not.
func (r *ArtifactRegistry) Configured(version string) bool {
	_, ok := r.entries[version]
	return ok
}

// Available returns the loaded versions in sorted order.
func (r *ArtifactRegistry) Available() []string {
	versions := make([]string, 0, len(r.entries))
	for _, v := range r.order {
		if r.entries[v].predictor != nil {
			versions = append(versions, v)
		}
	}
	return versions
}

// Entries returns every configured version with its load status, sorted by version.
func (r *ArtifactRegistry) Entries() []domain.ArtifactInfo {
	infos := make([]domain.ArtifactInfo, 0, len(r.order))
	for _, v := range r.order {
		infos = append(infos, r.entries[v].info)
	}
	return infos
}

// RegistryLoader populates an ArtifactRegistry at startup.
type RegistryLoader struct {
	source  ports.ArtifactSource
	decoder ports.ArtifactDecoder
	metrics ports.PredictionMetrics
	entries map[string]*Artifact
}

func NewRegistryLoader(source ports.ArtifactSource, decoder ports.ArtifactDecoder, metrics ports.PredictionMetrics) *RegistryLoader {
	return &RegistryLoader{
		source:  source,
		decoder: decoder,
		metrics: metrics,
		entries: make(map[string]*Artifact),
	}
}

// Load fetches and decodes the artifact for spec. A failure is recorded against the
// version and returned; it does not affect other versions.
func (l *RegistryLoader) Load(ctx context.Context, spec ModelSpec) error {
	if spec.Version == "" {
		return domain.ErrInvalidVersion
	}

	predictor, err := l.fetchAndDecode(ctx, spec)
	l.record(spec, predictor, err, time.Now())

	logger := log.WithFields(log.Fields{
		"model_version": spec.Version,
		"source":        spec.Source,
		"transform":     spec.Transform,
	})
	if err != nil {
		logger.WithError(err).Warn("model artifact not loaded")
		return err
	}
	logger.Info("model artifact loaded")
	return nil
}

func (l *RegistryLoader) fetchAndDecode(ctx context.Context, spec ModelSpec) (ports.Predictor, error) {
	data, err := l.source.Fetch(ctx, spec.Source)
	if err != nil {
		return nil, fmt.Errorf("fetch artifact %s: %w", spec.Source, err)
	}
	predictor, err := l.decoder.Decode(spec.Source, data)
	if err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", spec.Source, err)
	}
	return predictor, nil
}

func (l *RegistryLoader) record(spec ModelSpec, predictor ports.Predictor, err error, at time.Time) {
	transform := spec.Transform
	if transform == "" {
		transform = domain.TransformIdentity
	}
	info := domain.ArtifactInfo{
		Version:   spec.Version,
		Source:    spec.Source,
		Transform: transform,
	}
	if err != nil {
		info.Error = err.Error()
		predictor = nil
	} else {
		info.Loaded = true
		info.LoadedAt = &at
	}
	l.entries[spec.Version] = &Artifact{info: info, predictor: predictor}

	if l.metrics != nil {
		l.metrics.SetArtifactLoaded(spec.Version, info.Loaded)
	}
}

// Registry freezes the loaded entries into a read-only registry and logs which
// versions are available.
func (l *RegistryLoader) Registry() *ArtifactRegistry {
	entries := make(map[string]*Artifact, len(l.entries))
	order := make([]string, 0, len(l.entries))
	for v, a := range l.entries {
		entries[v] = a
		order = append(order, v)
	}
	sort.Strings(order)

	r := &ArtifactRegistry{entries: entries, order: order}
	log.WithField("available_models", r.Available()).Info("artifact registry ready")
	return r
}
