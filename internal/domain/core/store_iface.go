package core

import (
	"context"

	"github.com/aarondl/null/v8"

	"perfhub/internal/domain/auth"
)

type StoreAPI interface {
	ListUsers(ctx context.Context, scope auth.Scope, filter UserFilter, limit, offset uint64) ([]User, int, error)
	GetUser(ctx context.Context, id int64) (User, error)
	UpdateUser(ctx context.Context, id int64, update UserUpdate) error
	SoftDeleteUser(ctx context.Context, id int64) error
	SetUserRole(ctx context.Context, id int64, role string) error

	ListDepartments(ctx context.Context) ([]Department, error)
	GetDepartment(ctx context.Context, id int64) (Department, error)
	CreateDepartment(ctx context.Context, input DepartmentInput) (int64, error)
	UpdateDepartment(ctx context.Context, id int64, input DepartmentInput) error
	DeleteDepartment(ctx context.Context, id int64) error

	ListPositions(ctx context.Context, departmentID null.Int64) ([]Position, error)
	GetPosition(ctx context.Context, id int64) (Position, error)
	CreatePosition(ctx context.Context, input PositionInput) (int64, error)
	UpdatePosition(ctx context.Context, id int64, input PositionInput) error
	DeletePosition(ctx context.Context, id int64) error

	ListResponsibilities(ctx context.Context, positionID null.Int64) ([]Responsibility, error)
	GetResponsibility(ctx context.Context, id int64) (Responsibility, error)
	CreateResponsibility(ctx context.Context, input ResponsibilityInput) (int64, error)
	UpdateResponsibility(ctx context.Context, id int64, input ResponsibilityInput) error
	DeleteResponsibility(ctx context.Context, id int64) error
}

var _ StoreAPI = (*Store)(nil)
