// Package debugsink persists debugging artifacts (the assembled master
// prompt) on a best-effort basis: to a GCS bucket when running in a hosted
// container environment, to the local temp directory otherwise. Failures are
// logged and swallowed; nothing here may abort startup.
package debugsink

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
)

// Sink writes named text artifacts somewhere a developer can fetch them.
type Sink struct {
	bucket string
	logger *slog.Logger
	now    func() time.Time

	// hostedEnvVar is the env var whose presence marks a hosted container
	// runtime (Cloud Run sets K_SERVICE).
	hostedEnvVar string
}

// New creates a Sink targeting the given GCS bucket. bucket may be empty,
// which disables cloud uploads entirely.
func New(bucket string, logger *slog.Logger) *Sink {
	return &Sink{
		bucket:       bucket,
		logger:       logger,
		now:          time.Now,
		hostedEnvVar: "K_SERVICE",
	}
}

// SavePrompt stores the prompt under a timestamped filename. Never returns an
// error: any failure is logged and ignored.
func (s *Sink) SavePrompt(ctx context.Context, content string) {
	filename := fmt.Sprintf("prompt_%s.txt", s.now().Format("2006-01-02_15-04-05"))

	if os.Getenv(s.hostedEnvVar) != "" && s.bucket != "" {
		if err := s.uploadToGCS(ctx, filename, content); err != nil {
			s.logger.Warn("could not save prompt to GCS; continuing", "bucket", s.bucket, "err", err)
			return
		}
		s.logger.Info("saved full prompt to GCS", "object", fmt.Sprintf("gs://%s/%s", s.bucket, filename))
		return
	}

	path := filepath.Join(os.TempDir(), filename)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		s.logger.Warn("could not save prompt locally; continuing", "path", path, "err", err)
		return
	}
	s.logger.Info("saved full prompt locally", "path", path)
}

func (s *Sink) uploadToGCS(ctx context.Context, filename, content string) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	w := client.Bucket(s.bucket).Object(filename).NewWriter(ctx)
	if _, err := w.Write([]byte(content)); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
