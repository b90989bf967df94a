package artifactstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go"
	log "github.com/sirupsen/logrus"

	"insurance-prediction-service/internal/core/domain"
	ports "insurance-prediction-service/internal/core/ports/output"
)

const (
	SchemeFile      = "file"
	SchemeS3        = "s3"
	SchemeGCS       = "gs"
	SchemeConfigMap = "configmap"
)

// Resolver dispatches artifact URIs to the source registered for their scheme.
// URIs without a scheme are local file paths.
type Resolver struct {
	sources  map[string]ports.ArtifactSource
	attempts uint
	delay    time.Duration
}

type Option func(*Resolver)

// WithRetry sets how many times remote fetches are attempted and the initial backoff.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(r *Resolver) {
		r.attempts = attempts
		r.delay = delay
	}
}

func NewResolver(file ports.ArtifactSource, opts ...Option) *Resolver {
	r := &Resolver{
		sources:  map[string]ports.ArtifactSource{SchemeFile: file},
		attempts: 3,
		delay:    500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register installs the source for scheme, replacing any previous one.
func (r *Resolver) Register(scheme string, source ports.ArtifactSource) {
	r.sources[scheme] = source
}

func (r *Resolver) Fetch(ctx context.Context, uri string) ([]byte, error) {
	scheme := Scheme(uri)
	source, ok := r.sources[scheme]
	if !ok || source == nil {
		return nil, fmt.Errorf("%w: no source configured for scheme %q", domain.ErrUnsupportedSource, scheme)
	}
	if scheme == SchemeFile {
		return source.Fetch(ctx, uri)
	}

	var data []byte
	err := retry.Do(
		func() error {
			var err error
			data, err = source.Fetch(ctx, uri)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, domain.ErrArtifactNotFound) && !errors.Is(err, domain.ErrUnsupportedSource)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.WithError(err).WithFields(log.Fields{
				"uri":     uri,
				"attempt": n + 1,
			}).Debug("retrying artifact fetch")
		}),
	)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Scheme returns the lower-cased scheme of uri, or "file" when it has none.
func Scheme(uri string) string {
	i := strings.Index(uri, "://")
	if i <= 0 {
		return SchemeFile
	}
	return strings.ToLower(uri[:i])
}

// splitObjectURI splits scheme://bucket/key/path into bucket and key.
func splitObjectURI(uri, scheme string) (bucket, key string, err error) {
	prefix := scheme + "://"
	if !strings.HasPrefix(strings.ToLower(uri), prefix) {
		return "", "", fmt.Errorf("%w: %q is not a %s uri", domain.ErrUnsupportedSource, uri, scheme)
	}
	rest := uri[len(prefix):]
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q must be %sbucket/key", domain.ErrUnsupportedSource, uri, prefix)
	}
	return bucket, key, nil
}
