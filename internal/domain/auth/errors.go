package auth

import "perfhub/internal/platform/apperr"

var (
	ErrUsernameTaken      = apperr.Conflict("username already exists").WithCode("username_taken")
	ErrInvalidCredentials = apperr.Unauthorized("invalid username or password").WithCode("invalid_credentials")
	ErrWrongPassword      = apperr.Validation("old password is incorrect").WithCode("wrong_password")
	ErrUserNotFound       = apperr.NotFound("user not found")
	ErrInactiveUser       = apperr.Unauthorized("account is no longer active")
)
