package performance

import (
	"context"
	"time"

	"github.com/aarondl/null/v8"

	"perfhub/internal/domain/auth"
)

type StoreAPI interface {
	// UserDepartment returns the department of a non-deleted user, or
	// ErrUserNotFound.
	UserDepartment(ctx context.Context, userID int64) (null.Int64, error)
	ExamAverage(ctx context.Context, userID int64, start, end time.Time) (float64, error)
	ReportDays(ctx context.Context, userID int64, start, end time.Time) (int, error)
	Upsert(ctx context.Context, userID int64, cycle string, scores Scores) (id int64, inserted bool, err error)
	ActiveUserIDs(ctx context.Context) ([]int64, error)

	List(ctx context.Context, scope auth.Scope, filter ReviewFilter, limit, offset uint64) ([]Review, int, error)
	Get(ctx context.Context, id int64) (Review, error)
	UpdateReview(ctx context.Context, id int64, comment null.String, status string, reviewerID int64) error
}

var _ StoreAPI = (*Store)(nil)
