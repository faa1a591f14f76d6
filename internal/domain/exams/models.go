package exams

import (
	"time"

	"github.com/aarondl/null/v8"

	"perfhub/internal/domain/questions"
)

const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

var Statuses = []string{StatusPending, StatusActive, StatusCompleted}

const (
	RecordInProgress = "in_progress"
	RecordCompleted  = "completed"
)

const (
	DefaultDurationMinutes = 60
	DefaultQuestionCount   = 10
	DefaultTotalScore      = 100.0
	RecentRecordsLimit     = 5
)

type Exam struct {
	ID                 int64       `json:"id"`
	Title              string      `json:"title"`
	Description        null.String `json:"description"`
	StartTime          time.Time   `json:"start_time"`
	EndTime            time.Time   `json:"end_time"`
	DurationMinutes    int         `json:"duration_minutes"`
	TargetPositionID   null.Int64  `json:"target_position_id"`
	TargetPositionName null.String `json:"target_position_name"`
	QuestionCount      int         `json:"question_count"`
	TotalScore         float64     `json:"total_score"`
	Status             string      `json:"status"`
	CreatedBy          null.Int64  `json:"created_by"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// Open reports whether now falls inside the exam window, bounds included.
func (e Exam) Open(now time.Time) bool {
	return !now.Before(e.StartTime) && !now.After(e.EndTime)
}

// ExamInput is a parsed create or update payload. Zero optional fields take
// the defaults on create and keep the stored value on update.
type ExamInput struct {
	Title            string
	Description      null.String
	StartTime        time.Time
	EndTime          time.Time
	DurationMinutes  null.Int64
	TargetPositionID null.Int64
	QuestionCount    null.Int64
	TotalScore       null.Float64
	Status           null.String
}

type ExamFilter struct {
	Status     null.String
	PositionID null.Int64
}

type AvailableExam struct {
	Exam
	RecordStatus null.String `json:"record_status"`
}

type Answers map[string][]string

type Record struct {
	ID               int64        `json:"id"`
	UserID           int64        `json:"user_id"`
	Username         null.String  `json:"username"`
	UserDepartmentID null.Int64   `json:"department_id"`
	ExamID           int64        `json:"exam_id"`
	ExamTitle        null.String  `json:"exam_title"`
	ExamTotalScore   null.Float64 `json:"total_score"`
	QuestionIDs      []int64      `json:"question_ids"`
	Answers          Answers      `json:"answers"`
	Score            null.Float64 `json:"score"`
	Status           string       `json:"status"`
	StartTime        time.Time    `json:"start_time"`
	SubmitTime       null.Time    `json:"submit_time"`
}

type RecordFilter struct {
	ExamID null.Int64
	UserID null.Int64
	Status null.String
}

type AnsweredQuestion struct {
	ID            int64    `json:"id"`
	Type          string   `json:"type"`
	Content       string   `json:"content"`
	Options       []string `json:"options"`
	CorrectAnswer []string `json:"correct_answer"`
	UserAnswer    []string `json:"user_answer"`
	Correct       bool     `json:"correct"`
}

type RecordDetail struct {
	Record
	Questions []AnsweredQuestion `json:"questions"`
}

type Paper struct {
	Exam            Exam                       `json:"exam"`
	Questions       []questions.PublicQuestion `json:"questions"`
	Duration        int                        `json:"duration"`
	DurationSeconds int                        `json:"duration_seconds"`
	RecordID        int64                      `json:"record_id"`
}

type SubmitResult struct {
	Score        float64 `json:"score"`
	CorrectCount int     `json:"correct_count"`
	TotalCount   int     `json:"total_count"`
}

type Stats struct {
	TotalExams     int      `json:"total_exams"`
	CompletedExams int      `json:"completed_exams"`
	AverageScore   float64  `json:"average_score"`
	RecentRecords  []Record `json:"recent_records"`
}
