package performance

import "perfhub/internal/platform/apperr"

var (
	ErrReviewNotFound   = apperr.NotFound("performance review not found")
	ErrUserNotFound     = apperr.NotFound("user not found")
	ErrInvalidCycle     = apperr.Validation("cycle must be in YYYY-MM format").WithCode("invalid_cycle")
	ErrInvalidStatus    = apperr.Validation("status must be draft or completed").WithCode("invalid_status")
	ErrReviewNotVisible = apperr.Forbidden("you may not access this performance review")
)
