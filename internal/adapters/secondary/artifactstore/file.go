package artifactstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"insurance-prediction-service/internal/core/domain"
)

// FileSource reads artifacts from the local filesystem. Relative paths are
// resolved against baseDir, or the working directory when baseDir is empty.
type FileSource struct {
	baseDir string
}

func NewFileSource(baseDir string) *FileSource {
	return &FileSource{baseDir: baseDir}
}

func (s *FileSource) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := strings.TrimPrefix(uri, SchemeFile+"://")
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", domain.ErrArtifactNotFound)
	}
	if !filepath.IsAbs(path) && s.baseDir != "" {
		path = filepath.Join(s.baseDir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("read artifact file: %w", err)
	}
	return data, nil
}
