package auth

import (
	"context"
	"testing"
)

func TestRolePermissions(t *testing.T) {
	tests := []struct {
		role       string
		permission string
		want       bool
	}{
		{RoleEmployee, PermExamsTake, true},
		{RoleEmployee, PermDirectoryWrite, false},
		{RoleEmployee, PermPerformanceCalculate, false},
		{RoleManager, PermDirectoryWrite, true},
		{RoleManager, PermPerformanceReview, true},
		{RoleManager, PermPerformanceBatch, false},
		{RoleManager, PermQuestionsWrite, false},
		{RoleAdmin, PermQuestionsWrite, true},
		{RoleAdmin, PermReportsAdmin, true},
		{"ghost", PermExamsRead, false},
	}

	for _, tc := range tests {
		got, err := StaticPermissions{}.HasPermission(context.Background(), tc.role, tc.permission)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tc.want {
			t.Fatalf("%s/%s: expected %v, got %v", tc.role, tc.permission, tc.want, got)
		}
	}
}

func TestAdminHoldsEveryPermission(t *testing.T) {
	for role, perms := range RolePermissions {
		for _, perm := range perms {
			if !HasPermission(RoleAdmin, perm) {
				t.Fatalf("admin lacks %s granted to %s", perm, role)
			}
		}
	}
}
