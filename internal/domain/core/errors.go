package core

import "perfhub/internal/platform/apperr"

var (
	ErrUserNotFound           = apperr.NotFound("user not found")
	ErrDepartmentNotFound     = apperr.NotFound("department not found")
	ErrPositionNotFound       = apperr.NotFound("position not found")
	ErrResponsibilityNotFound = apperr.NotFound("responsibility not found")
	ErrCannotDeleteSelf       = apperr.Validation("you cannot delete your own account").WithCode("cannot_delete_self")
	ErrInvalidRole            = apperr.Validation("role must be admin, manager or employee").WithCode("invalid_role")
	ErrDepartmentOwnParent    = apperr.Validation("a department cannot be its own parent").WithCode("invalid_parent")
	ErrUserNotVisible         = apperr.Forbidden("you may not access this user")
	ErrUserNotEditable        = apperr.Forbidden("you may only edit your own profile")
)
