package artifactstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"insurance-prediction-service/internal/config"
	"insurance-prediction-service/internal/core/domain"
)

// GCSSource reads artifacts addressed as gs://bucket/object.
type GCSSource struct {
	client *storage.Client
}

// NewGCSSource builds a GCS client from inline service account JSON, or from
// application default credentials when none is configured.
func NewGCSSource(ctx context.Context, cfg *config.GCSConfig) (*GCSSource, error) {
	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSSource{client: client}, nil
}

func (s *GCSSource) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := splitObjectURI(uri, SchemeGCS)
	if err != nil {
		return nil, err
	}

	reader, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrArtifactNotFound, uri)
		}
		return nil, fmt.Errorf("open gcs object %s: %w", uri, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read gcs object %s: %w", uri, err)
	}
	return data, nil
}

func (s *GCSSource) Close() error {
	return s.client.Close()
}
