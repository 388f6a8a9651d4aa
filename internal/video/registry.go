package video

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// ArtifactRegistry owns every temporary file of one pipeline run: slide
// images, narration audio, silent tracks, encoded segments, and the concat
// list. Cleanup removes them all along with the run directory, so callers
// defer it once and every exit path is covered.
type ArtifactRegistry struct {
	dir string

	mu    sync.Mutex
	paths []string
}

// NewArtifactRegistry creates a unique run directory under baseDir (the OS
// temp dir when empty).
func NewArtifactRegistry(baseDir string) (*ArtifactRegistry, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	dir := filepath.Join(baseDir, "run-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}
	return &ArtifactRegistry{dir: dir}, nil
}

// Dir returns the run directory.
func (r *ArtifactRegistry) Dir() string {
	return r.dir
}

// Path registers a named artifact inside the run directory and returns its
// full path. The file itself is created later by the component that owns it.
func (r *ArtifactRegistry) Path(name string) string {
	p := filepath.Join(r.dir, name)
	r.Register(p)
	return p
}

// Register tracks an externally created path for cleanup.
func (r *ArtifactRegistry) Register(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

// Cleanup deletes every registered artifact and the run directory. Missing
// files are not errors; a slide that failed to render never existed.
func (r *ArtifactRegistry) Cleanup() error {
	r.mu.Lock()
	paths := r.paths
	r.paths = nil
	r.mu.Unlock()

	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("remove %s: %w", p, err))
		}
	}
	if err := os.Remove(r.dir); err != nil && !os.IsNotExist(err) {
		errs = append(errs, fmt.Errorf("remove run dir: %w", err))
	}
	if len(errs) > 0 {
		slog.Warn("artifact cleanup incomplete", "errors", len(errs))
	}
	return errors.Join(errs...)
}
