package jobs

import (
	"context"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Run struct {
	ID          int64           `json:"id"`
	JobType     string          `json:"job_type"`
	Status      string          `json:"status"`
	Details     json.RawMessage `json:"details,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt null.Time       `json:"completed_at"`
}

type RunFilter struct {
	JobType     null.String
	Status      null.String
	StartedFrom null.Time
	StartedTo   null.Time
}

func (f RunFilter) where() sq.And {
	where := sq.And{}
	if f.JobType.Valid {
		where = append(where, sq.Eq{"job_type": f.JobType.String})
	}
	if f.Status.Valid {
		where = append(where, sq.Eq{"status": f.Status.String})
	}
	if f.StartedFrom.Valid {
		where = append(where, sq.GtOrEq{"started_at": f.StartedFrom.Time})
	}
	if f.StartedTo.Valid {
		where = append(where, sq.LtOrEq{"started_at": f.StartedTo.Time})
	}
	return where
}

// List returns job runs newest first together with the unpaged total.
func (r *Runner) List(ctx context.Context, filter RunFilter, limit, offset uint64) ([]Run, int, error) {
	countSQL, countArgs, err := psql.Select("COUNT(1)").From("job_runs").Where(filter.where()).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.DB.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args, err := psql.Select("id, job_type, status, details_json, started_at, completed_at").
		From("job_runs").Where(filter.where()).
		OrderBy("started_at DESC", "id DESC").Limit(limit).Offset(offset).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Run{}
	for rows.Next() {
		var run Run
		var details []byte
		if err := rows.Scan(&run.ID, &run.JobType, &run.Status, &details, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, 0, err
		}
		if len(details) > 0 {
			run.Details = details
		}
		out = append(out, run)
	}
	return out, total, rows.Err()
}
