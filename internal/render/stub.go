package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cutroom/cutroom-agent/internal/export"
)

// Stub stands in when no render service is configured. It writes the
// manifest's EDL next to the data dir so an export still produces a
// usable interchange artifact, and walks progress to completion.
type Stub struct {
	outputDir string
	logger    *slog.Logger
}

func NewStub(outputDir string, logger *slog.Logger) *Stub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stub{outputDir: outputDir, logger: logger}
}

func (s *Stub) Render(ctx context.Context, manifest export.Manifest, onProgress func(int)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	path := filepath.Join(s.outputDir, manifest.OutputName+".edl")
	if err := os.WriteFile(path, []byte(manifest.EDL()), 0644); err != nil {
		return "", fmt.Errorf("failed to write edl: %w", err)
	}

	for _, p := range []int{25, 50, 75} {
		if onProgress != nil {
			onProgress(p)
		}
	}

	s.logger.Info("stub render wrote edl", "job_id", manifest.JobID, "path", path)
	return path, nil
}
