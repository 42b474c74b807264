package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Store mirrors model artifacts into <dir>/<model name>/.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) ModelDir(modelName string) string {
	return filepath.Join(s.dir, SanitizeName(modelName))
}

// SanitizeName turns a model id such as "org/model" into a single path element.
func SanitizeName(name string) string {
	name = unsafeNameChars.ReplaceAllString(strings.TrimSpace(name), "_")
	name = strings.Trim(name, ".")
	if name == "" {
		return "_"
	}
	return name
}

// Ensure makes sure every file (target name to source location) exists in the
// model directory, fetching only those that are missing. It returns the model
// directory.
func (s *Store) Ensure(ctx context.Context, modelName string, files map[string]string) (string, error) {
	dir := s.ModelDir(modelName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create model cache dir: %w", err)
	}
	for name, location := range files {
		if name != filepath.Base(name) || name == "." || name == ".." {
			return "", fmt.Errorf("invalid artifact file name %q", name)
		}
		dst := filepath.Join(dir, name)
		if st, err := os.Stat(dst); err == nil && st.Size() > 0 {
			logutil.GetLogger(ctx).Debug("model artifact cached", zap.String("model", modelName), zap.String("file", name))
			continue
		}
		if err := s.fetch(ctx, location, dst); err != nil {
			return "", fmt.Errorf("fetch %s for model %s: %w", name, modelName, err)
		}
		logutil.GetLogger(ctx).Info("model artifact fetched",
			zap.String("model", modelName), zap.String("file", name), zap.String("dst", dst))
	}
	return dir, nil
}

func (s *Store) fetch(ctx context.Context, location, dst string) error {
	src, err := Open(ctx, location)
	if err != nil {
		return err
	}
	defer src.Close()
	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, dst)
}
