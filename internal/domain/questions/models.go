package questions

import (
	"time"

	"github.com/aarondl/null/v8"
)

const (
	TypeSingle   = "single"
	TypeMultiple = "multiple"
	TypeJudge    = "judge"
)

var Types = []string{TypeSingle, TypeMultiple, TypeJudge}

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

var Difficulties = []string{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Judge questions created without options get these.
var DefaultJudgeOptions = []string{"true", "false"}

const MaxRandomCount = 100

type Question struct {
	ID            int64       `json:"id"`
	Type          string      `json:"type"`
	Content       string      `json:"content"`
	Options       []string    `json:"options"`
	CorrectAnswer []string    `json:"correct_answer"`
	Category      null.String `json:"category"`
	Difficulty    string      `json:"difficulty"`
	CreatedBy     null.Int64  `json:"created_by"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// PublicQuestion is what examinees see: no answer key.
type PublicQuestion struct {
	ID         int64       `json:"id"`
	Type       string      `json:"type"`
	Content    string      `json:"content"`
	Options    []string    `json:"options"`
	Category   null.String `json:"category"`
	Difficulty string      `json:"difficulty"`
}

func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:         q.ID,
		Type:       q.Type,
		Content:    q.Content,
		Options:    q.Options,
		Category:   q.Category,
		Difficulty: q.Difficulty,
	}
}

func PublicList(items []Question) []PublicQuestion {
	out := make([]PublicQuestion, 0, len(items))
	for _, q := range items {
		out = append(out, q.Public())
	}
	return out
}

type Input struct {
	Type          string      `json:"type" validate:"required,oneof=single multiple judge"`
	Content       string      `json:"content" validate:"required,max=5000"`
	Options       []string    `json:"options" validate:"omitempty,max=26,dive,required,max=500"`
	CorrectAnswer []string    `json:"correct_answer" validate:"required,min=1,dive,required"`
	Category      null.String `json:"category" validate:"omitempty,max=100"`
	Difficulty    string      `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

type Filter struct {
	Category null.String
	Type     null.String
}
