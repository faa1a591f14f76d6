package auth

import (
	"time"

	"github.com/aarondl/null/v8"
)

const (
	UserStatusActive  = "active"
	UserStatusDeleted = "deleted"
)

// UserContext is the authenticated caller as decoded from the token.
type UserContext struct {
	UserID   int64
	Username string
	Role     string
}

type Credentials struct {
	ID           int64
	Username     string
	PasswordHash string
	Email        null.String
	Role         string
	DepartmentID null.Int64
	PositionID   null.Int64
	Status       string
}

type NewUser struct {
	Username     string
	PasswordHash string
	Email        null.String
	Phone        null.String
	Role         string
	DepartmentID null.Int64
	PositionID   null.Int64
}

type RegisterInput struct {
	Username     string
	Password     string
	Email        null.String
	Phone        null.String
	DepartmentID null.Int64
	PositionID   null.Int64
}

type UserSummary struct {
	ID           int64       `json:"id"`
	Username     string      `json:"username"`
	Email        null.String `json:"email"`
	Role         string      `json:"role"`
	DepartmentID null.Int64  `json:"department_id"`
	PositionID   null.Int64  `json:"position_id"`
}

type LoginResult struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

type Profile struct {
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
}
