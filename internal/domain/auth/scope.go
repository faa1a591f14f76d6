package auth

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
)

// Scope is the caller's visibility over user-owned rows: admins see
// everything, managers their own department, employees only themselves.
type Scope struct {
	UserID       int64
	Role         string
	DepartmentID null.Int64
	PositionID   null.Int64
	// Unscoped marks an anonymous read on a route configured for optional
	// authentication. Such reads are not filtered.
	Unscoped bool
}

func UnscopedRead() Scope {
	return Scope{Unscoped: true}
}

func (s Scope) IsAdmin() bool {
	return s.Role == RoleAdmin
}

func (s Scope) IsManager() bool {
	return s.Role == RoleManager
}

// Filter returns the predicate restricting a listing to visible rows, or nil
// when nothing needs filtering. ownerCol is the owning user's id column and
// deptCol that user's department column.
func (s Scope) Filter(ownerCol, deptCol string) sq.Sqlizer {
	if s.Unscoped || s.IsAdmin() {
		return nil
	}
	if s.IsManager() && s.DepartmentID.Valid {
		return sq.Or{
			sq.Eq{deptCol: s.DepartmentID.Int64},
			sq.Eq{ownerCol: s.UserID},
		}
	}
	return sq.Eq{ownerCol: s.UserID}
}

func (s Scope) CanView(ownerID int64, ownerDepartment null.Int64) bool {
	if s.Unscoped || s.IsAdmin() || ownerID == s.UserID {
		return true
	}
	return s.IsManager() && s.DepartmentID.Valid && ownerDepartment.Valid &&
		s.DepartmentID.Int64 == ownerDepartment.Int64
}
