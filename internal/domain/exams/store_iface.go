package exams

import (
	"context"
	"time"

	"github.com/aarondl/null/v8"

	"perfhub/internal/domain/auth"
	"perfhub/internal/domain/questions"
)

type StoreAPI interface {
	ListExams(ctx context.Context, filter ExamFilter, limit, offset uint64) ([]Exam, int, error)
	GetExam(ctx context.Context, id int64) (Exam, error)
	CreateExam(ctx context.Context, exam Exam) (int64, error)
	UpdateExam(ctx context.Context, exam Exam) error
	DeleteExam(ctx context.Context, id int64) error
	Available(ctx context.Context, userID int64, positionID null.Int64, now time.Time) ([]AvailableExam, error)

	FindRecord(ctx context.Context, userID, examID int64) (Record, error)
	EnsureRecord(ctx context.Context, userID, examID int64) (Record, error)
	AssignQuestions(ctx context.Context, recordID int64, ids []int64) ([]int64, error)
	CompleteRecord(ctx context.Context, recordID int64, answers Answers, score float64) error
	ListRecords(ctx context.Context, scope auth.Scope, filter RecordFilter, limit, offset uint64) ([]Record, int, error)
	GetRecord(ctx context.Context, id int64) (Record, error)
	RecordStats(ctx context.Context, userID int64) (total, completed int, average float64, err error)
	RecentCompleted(ctx context.Context, userID int64, limit uint64) ([]Record, error)
}

// QuestionSource is the slice of the question bank the exam engine draws from.
type QuestionSource interface {
	ByIDs(ctx context.Context, ids []int64) ([]questions.Question, error)
	CandidateIDs(ctx context.Context, category null.String) ([]int64, error)
}

var (
	_ StoreAPI       = (*Store)(nil)
	_ QuestionSource = (*questions.Store)(nil)
)
