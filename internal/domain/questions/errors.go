package questions

import "perfhub/internal/platform/apperr"

var (
	ErrQuestionNotFound = apperr.NotFound("question not found")
	ErrInvalidType      = apperr.Validation("type must be single, multiple or judge").WithCode("invalid_type")
	ErrInvalidDiff      = apperr.Validation("difficulty must be easy, medium or hard").WithCode("invalid_difficulty")
	ErrEmptyContent     = apperr.Validation("content is required").WithCode("validation_error")
	ErrNoAnswer         = apperr.Validation("correct_answer must contain at least one option").WithCode("invalid_answer")
	ErrAnswerNotOption  = apperr.Validation("every correct answer must be one of the options").WithCode("invalid_answer")
	ErrSingleAnswer     = apperr.Validation("single and judge questions take exactly one correct answer").WithCode("invalid_answer")
	ErrNoOptions        = apperr.Validation("options are required for choice questions").WithCode("invalid_options")
	ErrInvalidCount     = apperr.Validation("count must be between 1 and 100").WithCode("invalid_count")
)
