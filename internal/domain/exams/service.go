package exams

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aarondl/null/v8"

	"perfhub/internal/domain/auth"
	"perfhub/internal/domain/questions"
	"perfhub/internal/platform/metrics"
)

type Service struct {
	Store     StoreAPI
	Questions QuestionSource
	Metrics   *metrics.Collector
	Now       func() time.Time
	rand      intSource
}

func NewService(store StoreAPI, questionSource QuestionSource, collector *metrics.Collector) *Service {
	return &Service{
		Store:     store,
		Questions: questionSource,
		Metrics:   collector,
		Now:       time.Now,
		rand:      globalSource{},
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Service) List(ctx context.Context, filter ExamFilter, limit, offset uint64) ([]Exam, int, error) {
	return s.Store.ListExams(ctx, filter, limit, offset)
}

func (s *Service) Get(ctx context.Context, id int64) (Exam, error) {
	return s.Store.GetExam(ctx, id)
}

func (s *Service) Create(ctx context.Context, input ExamInput, actorID int64) (Exam, error) {
	exam := Exam{
		DurationMinutes: DefaultDurationMinutes,
		QuestionCount:   DefaultQuestionCount,
		TotalScore:      DefaultTotalScore,
		Status:          StatusPending,
		CreatedBy:       null.Int64From(actorID),
	}
	exam, err := applyInput(exam, input)
	if err != nil {
		return Exam{}, err
	}
	id, err := s.Store.CreateExam(ctx, exam)
	if err != nil {
		return Exam{}, err
	}
	return s.Store.GetExam(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, input ExamInput) (Exam, error) {
	existing, err := s.Store.GetExam(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	exam, err := applyInput(existing, input)
	if err != nil {
		return Exam{}, err
	}
	if err := s.Store.UpdateExam(ctx, exam); err != nil {
		return Exam{}, err
	}
	return s.Store.GetExam(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.Store.DeleteExam(ctx, id)
}

func applyInput(exam Exam, input ExamInput) (Exam, error) {
	if !input.StartTime.Before(input.EndTime) {
		return Exam{}, ErrInvalidWindow
	}
	exam.Title = strings.TrimSpace(input.Title)
	exam.Description = input.Description
	exam.StartTime = input.StartTime.UTC()
	exam.EndTime = input.EndTime.UTC()
	exam.TargetPositionID = input.TargetPositionID
	if input.DurationMinutes.Valid {
		exam.DurationMinutes = int(input.DurationMinutes.Int64)
	}
	if input.QuestionCount.Valid {
		exam.QuestionCount = int(input.QuestionCount.Int64)
	}
	if input.TotalScore.Valid {
		exam.TotalScore = input.TotalScore.Float64
	}
	if exam.DurationMinutes <= 0 || exam.QuestionCount <= 0 || exam.TotalScore <= 0 {
		return Exam{}, ErrInvalidParameters
	}
	if input.Status.Valid {
		if !slices.Contains(Statuses, input.Status.String) {
			return Exam{}, ErrInvalidStatus
		}
		exam.Status = input.Status.String
	}
	return exam, nil
}

func (s *Service) Available(ctx context.Context, scope auth.Scope) ([]AvailableExam, error) {
	return s.Store.Available(ctx, scope.UserID, scope.PositionID, s.now())
}

// FetchQuestions starts (or resumes) the caller's attempt. The first fetch
// samples the question set and pins it on the record; later fetches return
// the same set.
func (s *Service) FetchQuestions(ctx context.Context, examID, userID int64) (Paper, error) {
	exam, err := s.Store.GetExam(ctx, examID)
	if err != nil {
		return Paper{}, err
	}
	existing, err := s.Store.FindRecord(ctx, userID, examID)
	switch {
	case err == nil && existing.Status == RecordCompleted:
		return Paper{}, ErrAlreadyCompleted
	case err != nil && !errors.Is(err, ErrRecordNotFound):
		return Paper{}, err
	}
	if !exam.Open(s.now()) {
		return Paper{}, ErrOutsideWindow
	}

	record, err := s.Store.EnsureRecord(ctx, userID, examID)
	if err != nil {
		return Paper{}, err
	}
	if record.Status == RecordCompleted {
		return Paper{}, ErrAlreadyCompleted
	}

	ids := record.QuestionIDs
	if len(ids) == 0 {
		var candidates []int64
		if category, ok := examCategory(exam); ok {
			candidates, err = s.Questions.CandidateIDs(ctx, category)
			if err != nil {
				return Paper{}, err
			}
		}
		sampled := sampleQuestionIDs(candidates, exam.QuestionCount, s.rand)
		if len(sampled) > 0 {
			ids, err = s.Store.AssignQuestions(ctx, record.ID, sampled)
			if err != nil {
				return Paper{}, err
			}
		}
		s.Metrics.Inc(metrics.EventExamStarted)
		slog.Info("exam started", "examId", examID, "userId", userID, "questions", len(ids))
	}

	items, err := s.Questions.ByIDs(ctx, ids)
	if err != nil {
		return Paper{}, err
	}
	return Paper{
		Exam:            exam,
		Questions:       questions.PublicList(items),
		Duration:        exam.DurationMinutes,
		DurationSeconds: exam.DurationMinutes * 60,
		RecordID:        record.ID,
	}, nil
}

// examCategory is the bank category an exam draws from: the target
// position's name, or every category when the exam is untargeted. A target
// whose position no longer exists matches no questions and reports false.
func examCategory(exam Exam) (null.String, bool) {
	if !exam.TargetPositionID.Valid {
		return null.String{}, true
	}
	return exam.TargetPositionName, exam.TargetPositionName.Valid
}

// Submit scores the answers against the set pinned at first fetch and closes
// the record. Submissions after the window or duration are still accepted.
func (s *Service) Submit(ctx context.Context, examID, userID int64, answers Answers) (SubmitResult, error) {
	exam, err := s.Store.GetExam(ctx, examID)
	if err != nil {
		return SubmitResult{}, err
	}
	record, err := s.Store.FindRecord(ctx, userID, examID)
	if errors.Is(err, ErrRecordNotFound) {
		return SubmitResult{}, ErrNotStarted
	}
	if err != nil {
		return SubmitResult{}, err
	}
	if record.Status == RecordCompleted {
		return SubmitResult{}, ErrAlreadySubmitted
	}

	items, err := s.Questions.ByIDs(ctx, record.QuestionIDs)
	if err != nil {
		return SubmitResult{}, err
	}
	result, kept := score(items, len(record.QuestionIDs), exam.TotalScore, answers)

	if err := s.Store.CompleteRecord(ctx, record.ID, kept, result.Score); err != nil {
		return SubmitResult{}, err
	}
	s.Metrics.Inc(metrics.EventExamSubmitted)
	slog.Info("exam submitted", "examId", examID, "userId", userID, "score", result.Score)
	return result, nil
}

// score grades items and returns the answers restricted to the graded set.
func score(items []questions.Question, total int, totalScore float64, answers Answers) (SubmitResult, Answers) {
	kept := Answers{}
	correct := 0
	for _, q := range items {
		key := strconv.FormatInt(q.ID, 10)
		given, ok := answers[key]
		if !ok {
			continue
		}
		kept[key] = given
		if questions.Matches(q.CorrectAnswer, given) {
			correct++
		}
	}
	result := SubmitResult{CorrectCount: correct, TotalCount: total}
	if total > 0 {
		result.Score = round2(float64(correct) / float64(total) * totalScore)
	}
	return result, kept
}

func (s *Service) ListRecords(ctx context.Context, scope auth.Scope, filter RecordFilter, limit, offset uint64) ([]Record, int, error) {
	return s.Store.ListRecords(ctx, scope, filter, limit, offset)
}

// GetRecord returns a record with its questions, answer key and the
// caller's answers.
func (s *Service) GetRecord(ctx context.Context, scope auth.Scope, id int64) (RecordDetail, error) {
	record, err := s.Store.GetRecord(ctx, id)
	if err != nil {
		return RecordDetail{}, err
	}
	if !scope.CanView(record.UserID, record.UserDepartmentID) {
		return RecordDetail{}, ErrRecordNotVisible
	}
	items, err := s.Questions.ByIDs(ctx, record.QuestionIDs)
	if err != nil {
		return RecordDetail{}, err
	}
	detail := RecordDetail{Record: record, Questions: make([]AnsweredQuestion, 0, len(items))}
	for _, q := range items {
		given := record.Answers[strconv.FormatInt(q.ID, 10)]
		detail.Questions = append(detail.Questions, AnsweredQuestion{
			ID:            q.ID,
			Type:          q.Type,
			Content:       q.Content,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			UserAnswer:    given,
			Correct:       questions.Matches(q.CorrectAnswer, given),
		})
	}
	return detail, nil
}

func (s *Service) MyStats(ctx context.Context, userID int64) (Stats, error) {
	total, completed, average, err := s.Store.RecordStats(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	recent, err := s.Store.RecentCompleted(ctx, userID, RecentRecordsLimit)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		TotalExams:     total,
		CompletedExams: completed,
		AverageScore:   round2(average),
		RecentRecords:  recent,
	}, nil
}
