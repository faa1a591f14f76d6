package feishu

import (
	"time"

	"github.com/aarondl/null/v8"
)

// TokenRefreshSkew is how long before expiry a cached token stops being used.
const TokenRefreshSkew = 60 * time.Second

const tokenRefreshTimeout = 15 * time.Second

const tokenPrefixLength = 20

// Config is the integration settings as shown to admins; secrets never leave
// the store.
type Config struct {
	AppID          string    `json:"app_id"`
	Status         string    `json:"status"`
	HasToken       bool      `json:"has_token"`
	TokenExpiresAt null.Time `json:"token_expires_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type storedConfig struct {
	Config
	SealedSecret string
	SealedToken  null.String
}

type ConfigInput struct {
	AppID     string `json:"app_id" validate:"required,max=128"`
	AppSecret string `json:"app_secret" validate:"required,max=256"`
}

type Report struct {
	ID           int64       `json:"id"`
	UserID       null.Int64  `json:"user_id"`
	Username     null.String `json:"username"`
	FeishuUserID null.String `json:"feishu_user_id"`
	ReportDate   string      `json:"report_date"`
	Content      null.String `json:"content"`
	SubmitTime   null.Time   `json:"submit_time"`
	SourceID     null.String `json:"source_id"`
	SyncedAt     time.Time   `json:"synced_at"`
}

type ReportFilter struct {
	UserID    null.Int64
	StartDate null.Time
	EndDate   null.Time
}

type SyncResult struct {
	Date      string `json:"date"`
	Processed int    `json:"processed"`
	Matched   int    `json:"matched"`
}

type TestResult struct {
	TokenPrefix string `json:"token_prefix"`
}

type BindInput struct {
	FeishuUserID string     `json:"feishu_user_id" validate:"required,max=128"`
	UserID       null.Int64 `json:"user_id" validate:"omitempty,gt=0"`
}

type BindResult struct {
	UserID       int64  `json:"user_id"`
	FeishuUserID string `json:"feishu_user_id"`
}
