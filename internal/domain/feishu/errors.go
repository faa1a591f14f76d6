package feishu

import "perfhub/internal/platform/apperr"

var (
	ErrNotConfigured = apperr.Validation("the report integration is not configured").WithCode("not_configured")
	ErrUserNotFound  = apperr.NotFound("user not found")
	ErrInvalidDate   = apperr.Validation("date must be in YYYY-MM-DD format").WithCode("invalid_date")
	ErrBindForbidden = apperr.Forbidden("only admins may bind another user")
)
