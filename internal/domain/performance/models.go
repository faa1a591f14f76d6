package performance

import (
	"time"

	"github.com/aarondl/null/v8"
)

const (
	StatusDraft     = "draft"
	StatusCompleted = "completed"
)

var Statuses = []string{StatusDraft, StatusCompleted}

const (
	BatchCreated = "created"
	BatchUpdated = "updated"
)

type Review struct {
	ID             int64       `json:"id"`
	UserID         int64       `json:"user_id"`
	Username       null.String `json:"username"`
	DepartmentID   null.Int64  `json:"department_id"`
	DepartmentName null.String `json:"department_name"`
	PositionName   null.String `json:"position_name"`
	Cycle          string      `json:"cycle"`
	Scores
	ManagerComment null.String `json:"manager_comment"`
	Status         string      `json:"status"`
	ReviewedBy     null.Int64  `json:"reviewed_by"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

type ReviewFilter struct {
	UserID null.Int64
	Cycle  null.String
	Status null.String
}

type ReviewUpdate struct {
	ManagerComment null.String `json:"manager_comment" validate:"omitempty,max=5000"`
	Status         null.String `json:"status" validate:"omitempty,oneof=draft completed"`
}

type CalculateResult struct {
	Scores
	ReviewID int64 `json:"review_id"`
	Created  bool  `json:"created"`
}

type BatchItem struct {
	UserID     int64   `json:"user_id"`
	Status     string  `json:"status"`
	FinalScore float64 `json:"final_score"`
}
