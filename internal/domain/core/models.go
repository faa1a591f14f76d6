package core

import (
	"time"

	"github.com/aarondl/null/v8"
)

type User struct {
	ID             int64       `json:"id"`
	Username       string      `json:"username"`
	Email          null.String `json:"email"`
	Phone          null.String `json:"phone"`
	Role           string      `json:"role"`
	DepartmentID   null.Int64  `json:"department_id"`
	DepartmentName null.String `json:"department_name"`
	PositionID     null.Int64  `json:"position_id"`
	PositionName   null.String `json:"position_name"`
	FeishuUserID   null.String `json:"feishu_user_id"`
	Status         string      `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

type UserFilter struct {
	DepartmentID null.Int64
	PositionID   null.Int64
	Role         null.String
}

type UserUpdate struct {
	Email        null.String `json:"email" validate:"omitempty,email,max=255"`
	Phone        null.String `json:"phone" validate:"omitempty,max=32"`
	DepartmentID null.Int64  `json:"department_id" validate:"omitempty,gt=0"`
	PositionID   null.Int64  `json:"position_id" validate:"omitempty,gt=0"`
}

type Department struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description null.String `json:"description"`
	ManagerID   null.Int64  `json:"manager_id"`
	ManagerName null.String `json:"manager_name"`
	ParentID    null.Int64  `json:"parent_id"`
	ParentName  null.String `json:"parent_name"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type DepartmentInput struct {
	Name        string      `json:"name" validate:"required,max=100"`
	Description null.String `json:"description" validate:"omitempty,max=1000"`
	ManagerID   null.Int64  `json:"manager_id" validate:"omitempty,gt=0"`
	ParentID    null.Int64  `json:"parent_id" validate:"omitempty,gt=0"`
}

const (
	MinPositionLevel     = 1
	MaxPositionLevel     = 10
	DefaultPositionLevel = 1
)

type Position struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	DepartmentID   null.Int64  `json:"department_id"`
	DepartmentName null.String `json:"department_name"`
	Level          int         `json:"level"`
	Description    null.String `json:"description"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

type PositionInput struct {
	Name         string      `json:"name" validate:"required,max=100"`
	DepartmentID null.Int64  `json:"department_id" validate:"omitempty,gt=0"`
	Level        null.Int64  `json:"level" validate:"omitempty,gte=1,lte=10"`
	Description  null.String `json:"description" validate:"omitempty,max=1000"`
}

const DefaultResponsibilityWeight = 10.0

type Responsibility struct {
	ID           int64       `json:"id"`
	PositionID   int64       `json:"position_id"`
	PositionName null.String `json:"position_name"`
	Content      string      `json:"content"`
	Weight       float64     `json:"weight"`
	KPICriteria  null.String `json:"kpi_criteria"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type ResponsibilityInput struct {
	PositionID  int64        `json:"position_id" validate:"required,gt=0"`
	Content     string       `json:"content" validate:"required,max=2000"`
	Weight      null.Float64 `json:"weight" validate:"omitempty,gte=0,lte=100"`
	KPICriteria null.String  `json:"kpi_criteria" validate:"omitempty,max=2000"`
}
