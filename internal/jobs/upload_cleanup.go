package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/citybeat-app/server/internal/metrics"
	"github.com/citybeat-app/server/internal/uploads"
	"github.com/riverqueue/river"
	"github.com/rs/zerolog"
)

// UploadCleanupArgs defines the job that sweeps orphaned upload files.
type UploadCleanupArgs struct{}

func (UploadCleanupArgs) Kind() string { return JobKindUploadCleanup }

// UploadCleanupWorker deletes uploaded files that nothing references anymore.
// Files younger than MaxAge are left alone so an upload can sit unattached
// while its submission or profile edit is still in flight.
type UploadCleanupWorker struct {
	river.WorkerDefaults[UploadCleanupArgs]
	Store  *uploads.Store
	MaxAge time.Duration
}

func (UploadCleanupWorker) Kind() string { return JobKindUploadCleanup }

func (w *UploadCleanupWorker) Work(ctx context.Context, job *river.Job[UploadCleanupArgs]) error {
	if w.Store == nil {
		return fmt.Errorf("upload store not configured")
	}

	start := time.Now()
	removed, err := w.Store.SweepOrphans(ctx, w.MaxAge)
	if err != nil {
		return fmt.Errorf("sweep orphan uploads: %w", err)
	}

	metrics.UploadsSwept.Add(float64(removed))
	zerolog.Ctx(ctx).Info().
		Int("removed", removed).
		Dur("duration", time.Since(start)).
		Msg("upload cleanup finished")
	return nil
}
