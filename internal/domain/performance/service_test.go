package performance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfhub/internal/domain/auth"
	"perfhub/internal/platform/jobs"
	"perfhub/internal/platform/metrics"
)

type examScore struct {
	userID int64
	at     time.Time
	score  float64
}

type fakeStore struct {
	users      map[int64]null.Int64
	exams      []examScore
	reportDays map[int64]map[string]bool
	reviews    map[int64]*Review
	nextID     int64
	failUser   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      map[int64]null.Int64{},
		reportDays: map[int64]map[string]bool{},
		reviews:    map[int64]*Review{},
		nextID:     1,
	}
}

func (f *fakeStore) UserDepartment(_ context.Context, userID int64) (null.Int64, error) {
	dept, ok := f.users[userID]
	if !ok {
		return null.Int64{}, ErrUserNotFound
	}
	return dept, nil
}

func (f *fakeStore) ExamAverage(_ context.Context, userID int64, start, end time.Time) (float64, error) {
	if userID == f.failUser {
		return 0, errors.New("boom")
	}
	sum, n := 0.0, 0
	for _, e := range f.exams {
		if e.userID == userID && !e.at.Before(start) && e.at.Before(end) {
			sum += e.score
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

func (f *fakeStore) ReportDays(_ context.Context, userID int64, start, end time.Time) (int, error) {
	n := 0
	for day := range f.reportDays[userID] {
		d, _ := time.Parse(time.DateOnly, day)
		if !d.Before(start) && d.Before(end) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) Upsert(_ context.Context, userID int64, cycle string, scores Scores) (int64, bool, error) {
	for _, r := range f.reviews {
		if r.UserID == userID && r.Cycle == cycle {
			r.Scores = scores
			return r.ID, false, nil
		}
	}
	id := f.nextID
	f.nextID++
	f.reviews[id] = &Review{ID: id, UserID: userID, DepartmentID: f.users[userID], Cycle: cycle, Scores: scores, Status: StatusDraft}
	return id, true, nil
}

func (f *fakeStore) ActiveUserIDs(context.Context) ([]int64, error) {
	out := []int64{}
	for id := int64(1); id < 100; id++ {
		if _, ok := f.users[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeStore) List(_ context.Context, scope auth.Scope, filter ReviewFilter, _, _ uint64) ([]Review, int, error) {
	out := []Review{}
	for id := int64(1); id < f.nextID; id++ {
		r, ok := f.reviews[id]
		if !ok || !scope.CanView(r.UserID, r.DepartmentID) {
			continue
		}
		if filter.UserID.Valid && r.UserID != filter.UserID.Int64 {
			continue
		}
		if filter.Cycle.Valid && r.Cycle != filter.Cycle.String {
			continue
		}
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (f *fakeStore) Get(_ context.Context, id int64) (Review, error) {
	r, ok := f.reviews[id]
	if !ok {
		return Review{}, ErrReviewNotFound
	}
	return *r, nil
}

func (f *fakeStore) UpdateReview(_ context.Context, id int64, comment null.String, status string, reviewerID int64) error {
	r, ok := f.reviews[id]
	if !ok {
		return ErrReviewNotFound
	}
	r.ManagerComment = comment
	r.Status = status
	r.ReviewedBy = null.Int64From(reviewerID)
	return nil
}

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	return NewService(store, jobs.Inline{}, metrics.New()), store
}

func TestCalculateScenario(t *testing.T) {
	svc, store := newTestService()
	store.users[1] = null.Int64{}
	store.exams = append(store.exams,
		examScore{userID: 1, at: time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC), score: 80},
		examScore{userID: 1, at: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), score: 10},
	)

	res, err := svc.Calculate(context.Background(), 1, "2024-01")
	require.NoError(t, err)
	assert.Equal(t, Scores{ExamScore: 80, KPIScore: 80, DailyLogScore: 0, FinalScore: 64}, res.Scores)
	assert.True(t, res.Created)

	again, err := svc.Calculate(context.Background(), 1, "2024-01")
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, res.ReviewID, again.ReviewID)
	assert.Equal(t, res.Scores, again.Scores)
	assert.Len(t, store.reviews, 1)
}

func TestCalculateUsesReportDays(t *testing.T) {
	svc, store := newTestService()
	store.users[1] = null.Int64{}
	store.reportDays[1] = map[string]bool{"2024-04-01": true, "2024-04-02": true, "2024-04-03": true, "2024-05-01": true}

	res, err := svc.Calculate(context.Background(), 1, "2024-04")
	require.NoError(t, err)
	assert.InDelta(t, 10.0, res.DailyLogScore, 0.001)
	assert.InDelta(t, 42.0, res.FinalScore, 0.001)
}

func TestCalculateErrors(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Calculate(context.Background(), 1, "2024/01")
	assert.ErrorIs(t, err, ErrInvalidCycle)
	_, err = svc.Calculate(context.Background(), 404, "2024-01")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCalculateKeepsReviewState(t *testing.T) {
	svc, store := newTestService()
	store.users[1] = null.Int64{}
	res, err := svc.Calculate(context.Background(), 1, "2024-01")
	require.NoError(t, err)

	_, _, err = svc.Review(context.Background(), res.ReviewID, ReviewUpdate{
		ManagerComment: null.StringFrom("solid quarter"),
		Status:         null.StringFrom(StatusCompleted),
	}, 9)
	require.NoError(t, err)

	_, err = svc.Calculate(context.Background(), 1, "2024-01")
	require.NoError(t, err)
	review := store.reviews[res.ReviewID]
	assert.Equal(t, StatusCompleted, review.Status)
	assert.Equal(t, "solid quarter", review.ManagerComment.String)
}

func TestCalculateBatch(t *testing.T) {
	svc, store := newTestService()
	store.users[1] = null.Int64{}
	store.users[2] = null.Int64{}
	_, err := svc.Calculate(context.Background(), 2, "2024-01")
	require.NoError(t, err)

	items, err := svc.CalculateBatch(context.Background(), "2024-01")
	require.NoError(t, err)
	assert.Equal(t, []BatchItem{
		{UserID: 1, Status: BatchCreated, FinalScore: 40},
		{UserID: 2, Status: BatchUpdated, FinalScore: 40},
	}, items)

	store.failUser = 2
	_, err = svc.CalculateBatch(context.Background(), "2024-01")
	assert.Error(t, err)
}

func TestReviewValidationAndMerge(t *testing.T) {
	svc, store := newTestService()
	store.users[1] = null.Int64{}
	res, err := svc.Calculate(context.Background(), 1, "2024-01")
	require.NoError(t, err)

	_, _, err = svc.Review(context.Background(), res.ReviewID, ReviewUpdate{Status: null.StringFrom("archived")}, 9)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, _, err = svc.Review(context.Background(), 999, ReviewUpdate{}, 9)
	assert.ErrorIs(t, err, ErrReviewNotFound)

	_, after, err := svc.Review(context.Background(), res.ReviewID, ReviewUpdate{ManagerComment: null.StringFrom("  ok ")}, 9)
	require.NoError(t, err)
	assert.Equal(t, "ok", after.ManagerComment.String)
	assert.Equal(t, StatusDraft, after.Status)
	assert.Equal(t, int64(9), after.ReviewedBy.Int64)
}

func TestGetScoped(t *testing.T) {
	svc, store := newTestService()
	store.users[1] = null.Int64From(3)
	store.users[2] = null.Int64From(4)
	a, err := svc.Calculate(context.Background(), 1, "2024-01")
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), auth.Scope{UserID: 2, Role: auth.RoleEmployee}, a.ReviewID)
	assert.ErrorIs(t, err, ErrReviewNotVisible)

	_, err = svc.Get(context.Background(), auth.Scope{UserID: 5, Role: auth.RoleManager, DepartmentID: null.Int64From(3)}, a.ReviewID)
	assert.NoError(t, err)

	mine, err := svc.My(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
