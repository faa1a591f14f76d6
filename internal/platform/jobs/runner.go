package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	JobPerformanceBatch = "performance_calculate_batch"
	JobReportSync       = "feishu_sync"
)

type RunFunc func(context.Context) (any, error)

// Runner executes operations inline and keeps a job_runs row per execution.
// Bookkeeping failures are logged and never fail the run itself.
type Runner struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Runner {
	return &Runner{DB: db}
}

func (r *Runner) RunNow(ctx context.Context, jobType string, run RunFunc) (any, error) {
	start := time.Now()
	var runID int64
	if err := r.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1, 'running')
    RETURNING id
  `, jobType).Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "jobType", jobType, "err", err)
	}

	details, err := run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
		details = map[string]any{"error": err.Error()}
	}
	slog.Info("job finished", "jobType", jobType, "status", status, "durationMs", time.Since(start).Milliseconds())

	if runID == 0 {
		return details, err
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	// The request context may already be cancelled; the bookkeeping row
	// should still be closed.
	updateCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, updErr := r.DB.Exec(updateCtx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, detailsJSON, runID); updErr != nil {
		slog.Warn("job run update failed", "err", updErr)
	}
	return details, err
}

// Inline runs jobs without bookkeeping. Tests and tools without a database use it.
type Inline struct{}

func (Inline) RunNow(ctx context.Context, _ string, run RunFunc) (any, error) {
	return run(ctx)
}
