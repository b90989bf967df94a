package artifactstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"insurance-prediction-service/internal/config"
	"insurance-prediction-service/internal/core/domain"
)

const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxArtifactBytes   = 64 << 20
)

// HTTPSource downloads artifacts from an http(s) URL, e.g. a model server's file endpoint.
type HTTPSource struct {
	httpClient  *http.Client
	bearerToken string
}

func NewHTTPSource(cfg *config.HTTPSourceConfig) *HTTPSource {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &HTTPSource{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		bearerToken: cfg.BearerToken,
	}
}

func (s *HTTPSource) Fetch(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedSource, err)
	}
	if s.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.bearerToken)
	}

	log.WithField("url", uri).Debug("downloading artifact")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download artifact: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", domain.ErrArtifactNotFound, uri)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("download artifact %s: unexpected status %d", uri, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read artifact body: %w", err)
	}
	if len(data) > maxArtifactBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrInvalidArtifact, uri, maxArtifactBytes)
	}
	return data, nil
}
