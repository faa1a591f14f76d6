package exams

import (
	"context"
	"slices"
	"time"

	"github.com/aarondl/null/v8"

	"perfhub/internal/domain/auth"
	"perfhub/internal/domain/questions"
)

type fakeStore struct {
	exams   map[int64]Exam
	records map[int64]*Record
	nextID  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{exams: map[int64]Exam{}, records: map[int64]*Record{}, nextID: 1}
}

func (f *fakeStore) ListExams(context.Context, ExamFilter, uint64, uint64) ([]Exam, int, error) {
	out := []Exam{}
	for _, e := range f.exams {
		out = append(out, e)
	}
	return out, len(out), nil
}

func (f *fakeStore) GetExam(_ context.Context, id int64) (Exam, error) {
	e, ok := f.exams[id]
	if !ok {
		return Exam{}, ErrExamNotFound
	}
	return e, nil
}

func (f *fakeStore) CreateExam(_ context.Context, e Exam) (int64, error) {
	e.ID = f.nextID
	f.nextID++
	f.exams[e.ID] = e
	return e.ID, nil
}

func (f *fakeStore) UpdateExam(_ context.Context, e Exam) error {
	if _, ok := f.exams[e.ID]; !ok {
		return ErrExamNotFound
	}
	f.exams[e.ID] = e
	return nil
}

func (f *fakeStore) DeleteExam(_ context.Context, id int64) error {
	if _, ok := f.exams[id]; !ok {
		return ErrExamNotFound
	}
	delete(f.exams, id)
	return nil
}

func (f *fakeStore) Available(_ context.Context, _ int64, positionID null.Int64, now time.Time) ([]AvailableExam, error) {
	out := []AvailableExam{}
	for _, e := range f.exams {
		if e.Status != StatusActive || !e.Open(now) {
			continue
		}
		if e.TargetPositionID.Valid && e.TargetPositionID != positionID {
			continue
		}
		out = append(out, AvailableExam{Exam: e})
	}
	return out, nil
}

func (f *fakeStore) FindRecord(_ context.Context, userID, examID int64) (Record, error) {
	for _, r := range f.records {
		if r.UserID == userID && r.ExamID == examID {
			return *r, nil
		}
	}
	return Record{}, ErrRecordNotFound
}

func (f *fakeStore) EnsureRecord(ctx context.Context, userID, examID int64) (Record, error) {
	if r, err := f.FindRecord(ctx, userID, examID); err == nil {
		return r, nil
	}
	id := f.nextID
	f.nextID++
	f.records[id] = &Record{ID: id, UserID: userID, ExamID: examID, Status: RecordInProgress, QuestionIDs: []int64{}}
	return *f.records[id], nil
}

func (f *fakeStore) AssignQuestions(_ context.Context, recordID int64, ids []int64) ([]int64, error) {
	r, ok := f.records[recordID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	if len(r.QuestionIDs) == 0 {
		r.QuestionIDs = slices.Clone(ids)
	}
	return r.QuestionIDs, nil
}

func (f *fakeStore) CompleteRecord(_ context.Context, recordID int64, answers Answers, score float64) error {
	r, ok := f.records[recordID]
	if !ok || r.Status != RecordInProgress {
		return ErrAlreadySubmitted
	}
	r.Status = RecordCompleted
	r.Answers = answers
	r.Score = null.Float64From(score)
	r.SubmitTime = null.TimeFrom(time.Now())
	return nil
}

func (f *fakeStore) ListRecords(_ context.Context, scope auth.Scope, _ RecordFilter, _, _ uint64) ([]Record, int, error) {
	out := []Record{}
	for _, r := range f.records {
		if scope.CanView(r.UserID, r.UserDepartmentID) {
			out = append(out, *r)
		}
	}
	return out, len(out), nil
}

func (f *fakeStore) GetRecord(_ context.Context, id int64) (Record, error) {
	r, ok := f.records[id]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return *r, nil
}

func (f *fakeStore) RecordStats(_ context.Context, userID int64) (int, int, float64, error) {
	total, completed, sum := 0, 0, 0.0
	for _, r := range f.records {
		if r.UserID != userID {
			continue
		}
		total++
		if r.Status == RecordCompleted {
			completed++
			sum += r.Score.Float64
		}
	}
	if completed == 0 {
		return total, 0, 0, nil
	}
	return total, completed, sum / float64(completed), nil
}

func (f *fakeStore) RecentCompleted(_ context.Context, userID int64, limit uint64) ([]Record, error) {
	out := []Record{}
	for _, r := range f.records {
		if r.UserID == userID && r.Status == RecordCompleted && uint64(len(out)) < limit {
			out = append(out, *r)
		}
	}
	return out, nil
}

type fakeBank struct {
	items []questions.Question
}

func (b *fakeBank) ByIDs(_ context.Context, ids []int64) ([]questions.Question, error) {
	out := []questions.Question{}
	for _, id := range ids {
		for _, q := range b.items {
			if q.ID == id {
				out = append(out, q)
			}
		}
	}
	return out, nil
}

func (b *fakeBank) CandidateIDs(_ context.Context, category null.String) ([]int64, error) {
	out := []int64{}
	for _, q := range b.items {
		if category.Valid && q.Category != category {
			continue
		}
		out = append(out, q.ID)
	}
	return out, nil
}
