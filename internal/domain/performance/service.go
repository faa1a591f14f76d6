package performance

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/aarondl/null/v8"

	"perfhub/internal/domain/auth"
	"perfhub/internal/platform/jobs"
	"perfhub/internal/platform/metrics"
)

// JobRunner runs a batch and keeps its bookkeeping.
type JobRunner interface {
	RunNow(ctx context.Context, jobType string, run jobs.RunFunc) (any, error)
}

type Service struct {
	Store   StoreAPI
	Jobs    JobRunner
	Metrics *metrics.Collector
}

func NewService(store StoreAPI, runner JobRunner, collector *metrics.Collector) *Service {
	return &Service{Store: store, Jobs: runner, Metrics: collector}
}

// Calculate recomputes and stores one user's scores for a cycle. Running it
// again with unchanged inputs leaves the stored review unchanged.
func (s *Service) Calculate(ctx context.Context, userID int64, cycle string) (CalculateResult, error) {
	start, end, err := ParseCycle(cycle)
	if err != nil {
		return CalculateResult{}, err
	}
	if _, err := s.Store.UserDepartment(ctx, userID); err != nil {
		return CalculateResult{}, err
	}
	return s.calculate(ctx, userID, cycle, start, end)
}

func (s *Service) calculate(ctx context.Context, userID int64, cycle string, start, end time.Time) (CalculateResult, error) {
	examAverage, err := s.Store.ExamAverage(ctx, userID, start, end)
	if err != nil {
		return CalculateResult{}, err
	}
	reportDays, err := s.Store.ReportDays(ctx, userID, start, end)
	if err != nil {
		return CalculateResult{}, err
	}
	scores := computeScores(examAverage, reportDays, daysIn(start, end))

	id, inserted, err := s.Store.Upsert(ctx, userID, cycle, scores)
	if err != nil {
		return CalculateResult{}, err
	}
	s.Metrics.Inc(metrics.EventPerformanceCalculated)
	return CalculateResult{Scores: scores, ReviewID: id, Created: inserted}, nil
}

// CalculateBatch runs Calculate for every active user. A failure for one user
// aborts the batch; reviews already written stay written.
func (s *Service) CalculateBatch(ctx context.Context, cycle string) ([]BatchItem, error) {
	start, end, err := ParseCycle(cycle)
	if err != nil {
		return nil, err
	}
	out, err := s.Jobs.RunNow(ctx, jobs.JobPerformanceBatch, func(ctx context.Context) (any, error) {
		ids, err := s.Store.ActiveUserIDs(ctx)
		if err != nil {
			return nil, err
		}
		items := make([]BatchItem, 0, len(ids))
		for _, id := range ids {
			res, err := s.calculate(ctx, id, cycle, start, end)
			if err != nil {
				return nil, err
			}
			status := BatchUpdated
			if res.Created {
				status = BatchCreated
			}
			items = append(items, BatchItem{UserID: id, Status: status, FinalScore: res.FinalScore})
		}
		slog.Info("performance batch calculated", "cycle", cycle, "users", len(items))
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	items, _ := out.([]BatchItem)
	return items, nil
}

func (s *Service) List(ctx context.Context, scope auth.Scope, filter ReviewFilter, limit, offset uint64) ([]Review, int, error) {
	return s.Store.List(ctx, scope, filter, limit, offset)
}

func (s *Service) My(ctx context.Context, userID int64) ([]Review, error) {
	items, _, err := s.Store.List(ctx, auth.Scope{UserID: userID, Role: auth.RoleEmployee},
		ReviewFilter{UserID: null.Int64From(userID)}, 0, 0)
	return items, err
}

func (s *Service) Get(ctx context.Context, scope auth.Scope, id int64) (Review, error) {
	review, err := s.Store.Get(ctx, id)
	if err != nil {
		return Review{}, err
	}
	if !scope.CanView(review.UserID, review.DepartmentID) {
		return Review{}, ErrReviewNotVisible
	}
	return review, nil
}

// Review records a manager's comment and status. Fields left out keep their
// stored values.
func (s *Service) Review(ctx context.Context, id int64, update ReviewUpdate, reviewerID int64) (before, after Review, err error) {
	before, err = s.Store.Get(ctx, id)
	if err != nil {
		return Review{}, Review{}, err
	}
	comment := before.ManagerComment
	if update.ManagerComment.Valid {
		comment = null.StringFrom(strings.TrimSpace(update.ManagerComment.String))
	}
	status := before.Status
	if update.Status.Valid {
		if !slices.Contains(Statuses, update.Status.String) {
			return Review{}, Review{}, ErrInvalidStatus
		}
		status = update.Status.String
	}
	if err := s.Store.UpdateReview(ctx, id, comment, status, reviewerID); err != nil {
		return Review{}, Review{}, err
	}
	after, err = s.Store.Get(ctx, id)
	return before, after, err
}
