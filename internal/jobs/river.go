package jobs

import (
	"log/slog"
	"time"

	"github.com/citybeat-app/server/internal/uploads"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

const (
	JobKindUploadCleanup = "upload_cleanup"
)

// NewClient creates a River client over pgx v5 with the upload cleanup worker
// registered and scheduled.
func NewClient(pool *pgxpool.Pool, store *uploads.Store, orphanMaxAge, sweepEvery time.Duration, logger *slog.Logger) (*river.Client[pgx.Tx], error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, &UploadCleanupWorker{Store: store, MaxAge: orphanMaxAge})

	config := &river.Config{
		Workers:      workers,
		MaxAttempts:  3,
		PeriodicJobs: NewPeriodicJobs(sweepEvery),
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 2},
		},
	}
	if logger != nil {
		config.Logger = logger
	}
	return river.NewClient(riverpgxv5.New(pool), config)
}

// NewPeriodicJobs schedules the recurring maintenance jobs.
func NewPeriodicJobs(sweepEvery time.Duration) []*river.PeriodicJob {
	if sweepEvery <= 0 {
		sweepEvery = 24 * time.Hour
	}
	return []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(sweepEvery),
			func() (river.JobArgs, *river.InsertOpts) {
				return UploadCleanupArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		),
	}
}
