package exams

import "perfhub/internal/platform/apperr"

var (
	ErrExamNotFound      = apperr.NotFound("exam not found")
	ErrRecordNotFound    = apperr.NotFound("exam record not found")
	ErrAlreadyCompleted  = apperr.Conflict("you have already completed this exam").WithCode("exam_completed")
	ErrAlreadySubmitted  = apperr.Conflict("this exam has already been submitted").WithCode("exam_completed")
	ErrOutsideWindow     = apperr.Validation("the exam is not open at this time").WithCode("exam_closed")
	ErrNotStarted        = apperr.Validation("the exam has not been started").WithCode("exam_not_started")
	ErrInvalidWindow     = apperr.Validation("start_time must be before end_time").WithCode("validation_error")
	ErrInvalidStatus     = apperr.Validation("status must be pending, active or completed").WithCode("invalid_status")
	ErrInvalidParameters = apperr.Validation("duration, question count and total score must be positive").WithCode("validation_error")
	ErrRecordNotVisible  = apperr.Forbidden("you may not access this exam record")
)
