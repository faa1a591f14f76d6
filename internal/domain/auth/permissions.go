package auth

import "context"

const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

var Roles = []string{RoleAdmin, RoleManager, RoleEmployee}

func IsValidRole(role string) bool {
	for _, candidate := range Roles {
		if role == candidate {
			return true
		}
	}
	return false
}

const (
	PermDirectoryRead        = "directory.read"
	PermDirectoryWrite       = "directory.write"
	PermUsersRead            = "users.read"
	PermUsersManage          = "users.manage"
	PermQuestionsRead        = "questions.read"
	PermQuestionsWrite       = "questions.write"
	PermQuestionsSample      = "questions.sample"
	PermExamsRead            = "exams.read"
	PermExamsWrite           = "exams.write"
	PermExamsTake            = "exams.take"
	PermExamRecordsRead      = "exam_records.read"
	PermPerformanceRead      = "performance.read"
	PermPerformanceCalculate = "performance.calculate"
	PermPerformanceBatch     = "performance.batch"
	PermPerformanceReview    = "performance.review"
	PermPerformanceExport    = "performance.export"
	PermReportsRead          = "reports.read"
	PermReportsBind          = "reports.bind"
	PermReportsAdmin         = "reports.admin"
	PermAuditRead            = "audit.read"
)

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermDirectoryRead,
		PermUsersRead,
		PermQuestionsSample,
		PermExamsRead,
		PermExamsTake,
		PermExamRecordsRead,
		PermPerformanceRead,
		PermReportsRead,
		PermReportsBind,
	},
	RoleManager: {
		PermDirectoryRead,
		PermDirectoryWrite,
		PermUsersRead,
		PermQuestionsRead,
		PermQuestionsSample,
		PermExamsRead,
		PermExamsTake,
		PermExamRecordsRead,
		PermPerformanceRead,
		PermPerformanceCalculate,
		PermPerformanceReview,
		PermPerformanceExport,
		PermReportsRead,
		PermReportsBind,
	},
	RoleAdmin: {
		PermDirectoryRead,
		PermDirectoryWrite,
		PermUsersRead,
		PermUsersManage,
		PermQuestionsRead,
		PermQuestionsWrite,
		PermQuestionsSample,
		PermExamsRead,
		PermExamsWrite,
		PermExamsTake,
		PermExamRecordsRead,
		PermPerformanceRead,
		PermPerformanceCalculate,
		PermPerformanceBatch,
		PermPerformanceReview,
		PermPerformanceExport,
		PermReportsRead,
		PermReportsBind,
		PermReportsAdmin,
		PermAuditRead,
	},
}

func HasPermission(role, permission string) bool {
	for _, perm := range RolePermissions[role] {
		if perm == permission {
			return true
		}
	}
	return false
}

// StaticPermissions answers permission checks from RolePermissions.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(_ context.Context, role, permission string) (bool, error) {
	return HasPermission(role, permission), nil
}
