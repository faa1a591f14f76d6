package jobs

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunFilterWhere(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	filter := RunFilter{
		JobType:     null.StringFrom(JobReportSync),
		Status:      null.StringFrom("failed"),
		StartedFrom: null.TimeFrom(from),
	}
	query, args, err := psql.Select("id").From("job_runs").Where(filter.where()).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM job_runs WHERE (job_type = $1 AND status = $2 AND started_at >= $3)", query)
	assert.Equal(t, []any{JobReportSync, "failed", from}, args)
}

func TestRunFilterEmpty(t *testing.T) {
	query, args, err := psql.Select("id").From("job_runs").Where(RunFilter{}.where()).ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(query, "SELECT id FROM job_runs"))
	assert.Empty(t, args)
}

func TestInlineRunsWithoutBookkeeping(t *testing.T) {
	out, err := Inline{}.RunNow(t.Context(), JobPerformanceBatch, func(ctx context.Context) (any, error) {
		return 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, out)
}
