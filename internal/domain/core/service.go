package core

import (
	"context"
	"strings"

	"github.com/aarondl/null/v8"

	"perfhub/internal/domain/auth"
)

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

func (s *Service) ListUsers(ctx context.Context, scope auth.Scope, filter UserFilter, limit, offset uint64) ([]User, int, error) {
	return s.Store.ListUsers(ctx, scope, filter, limit, offset)
}

func (s *Service) GetUser(ctx context.Context, scope auth.Scope, id int64) (User, error) {
	user, err := s.Store.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if !scope.CanView(user.ID, user.DepartmentID) {
		return User{}, ErrUserNotVisible
	}
	return user, nil
}

// UpdateUser lets callers edit their own contact details. Only admins may
// edit other users or move anyone between departments and positions.
func (s *Service) UpdateUser(ctx context.Context, scope auth.Scope, id int64, update UserUpdate) (User, error) {
	if !scope.IsAdmin() && scope.UserID != id {
		return User{}, ErrUserNotEditable
	}
	existing, err := s.Store.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if existing.Status != auth.UserStatusActive {
		return User{}, ErrUserNotFound
	}
	if !scope.IsAdmin() {
		update.DepartmentID = existing.DepartmentID
		update.PositionID = existing.PositionID
	}
	if err := s.Store.UpdateUser(ctx, id, update); err != nil {
		return User{}, err
	}
	return s.Store.GetUser(ctx, id)
}

func (s *Service) DeleteUser(ctx context.Context, scope auth.Scope, id int64) (User, error) {
	if scope.UserID == id {
		return User{}, ErrCannotDeleteSelf
	}
	before, err := s.Store.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := s.Store.SoftDeleteUser(ctx, id); err != nil {
		return User{}, err
	}
	return before, nil
}

func (s *Service) SetRole(ctx context.Context, id int64, role string) (before, after User, err error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if !auth.IsValidRole(role) {
		return User{}, User{}, ErrInvalidRole
	}
	before, err = s.Store.GetUser(ctx, id)
	if err != nil {
		return User{}, User{}, err
	}
	if err := s.Store.SetUserRole(ctx, id, role); err != nil {
		return User{}, User{}, err
	}
	after = before
	after.Role = role
	return before, after, nil
}

func (s *Service) ListDepartments(ctx context.Context) ([]Department, error) {
	return s.Store.ListDepartments(ctx)
}

func (s *Service) GetDepartment(ctx context.Context, id int64) (Department, error) {
	return s.Store.GetDepartment(ctx, id)
}

func (s *Service) CreateDepartment(ctx context.Context, input DepartmentInput) (Department, error) {
	input.Name = strings.TrimSpace(input.Name)
	id, err := s.Store.CreateDepartment(ctx, input)
	if err != nil {
		return Department{}, err
	}
	return s.Store.GetDepartment(ctx, id)
}

func (s *Service) UpdateDepartment(ctx context.Context, id int64, input DepartmentInput) (Department, error) {
	if input.ParentID.Valid && input.ParentID.Int64 == id {
		return Department{}, ErrDepartmentOwnParent
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := s.Store.UpdateDepartment(ctx, id, input); err != nil {
		return Department{}, err
	}
	return s.Store.GetDepartment(ctx, id)
}

func (s *Service) DeleteDepartment(ctx context.Context, id int64) error {
	return s.Store.DeleteDepartment(ctx, id)
}

// DepartmentUsers lists the live members of a department the caller can see.
func (s *Service) DepartmentUsers(ctx context.Context, scope auth.Scope, id int64) ([]User, error) {
	if _, err := s.Store.GetDepartment(ctx, id); err != nil {
		return nil, err
	}
	users, _, err := s.Store.ListUsers(ctx, scope, UserFilter{DepartmentID: null.Int64From(id)}, 1000, 0)
	return users, err
}

func (s *Service) ListPositions(ctx context.Context, departmentID null.Int64) ([]Position, error) {
	return s.Store.ListPositions(ctx, departmentID)
}

func (s *Service) GetPosition(ctx context.Context, id int64) (Position, error) {
	return s.Store.GetPosition(ctx, id)
}

func (s *Service) CreatePosition(ctx context.Context, input PositionInput) (Position, error) {
	input = normalizePosition(input)
	id, err := s.Store.CreatePosition(ctx, input)
	if err != nil {
		return Position{}, err
	}
	return s.Store.GetPosition(ctx, id)
}

func (s *Service) UpdatePosition(ctx context.Context, id int64, input PositionInput) (Position, error) {
	input = normalizePosition(input)
	if err := s.Store.UpdatePosition(ctx, id, input); err != nil {
		return Position{}, err
	}
	return s.Store.GetPosition(ctx, id)
}

func (s *Service) DeletePosition(ctx context.Context, id int64) error {
	return s.Store.DeletePosition(ctx, id)
}

func normalizePosition(input PositionInput) PositionInput {
	input.Name = strings.TrimSpace(input.Name)
	if !input.Level.Valid {
		input.Level = null.Int64From(DefaultPositionLevel)
	}
	return input
}

func (s *Service) ListResponsibilities(ctx context.Context, positionID null.Int64) ([]Responsibility, error) {
	return s.Store.ListResponsibilities(ctx, positionID)
}

func (s *Service) GetResponsibility(ctx context.Context, id int64) (Responsibility, error) {
	return s.Store.GetResponsibility(ctx, id)
}

func (s *Service) CreateResponsibility(ctx context.Context, input ResponsibilityInput) (Responsibility, error) {
	input = normalizeResponsibility(input)
	id, err := s.Store.CreateResponsibility(ctx, input)
	if err != nil {
		return Responsibility{}, err
	}
	return s.Store.GetResponsibility(ctx, id)
}

func (s *Service) UpdateResponsibility(ctx context.Context, id int64, input ResponsibilityInput) (Responsibility, error) {
	input = normalizeResponsibility(input)
	if err := s.Store.UpdateResponsibility(ctx, id, input); err != nil {
		return Responsibility{}, err
	}
	return s.Store.GetResponsibility(ctx, id)
}

func (s *Service) DeleteResponsibility(ctx context.Context, id int64) error {
	return s.Store.DeleteResponsibility(ctx, id)
}

// ResponsibilitiesForEmployee returns the responsibilities attached to the
// user's current position, or none when the user has no position.
func (s *Service) ResponsibilitiesForEmployee(ctx context.Context, scope auth.Scope, userID int64) ([]Responsibility, error) {
	user, err := s.GetUser(ctx, scope, userID)
	if err != nil {
		return nil, err
	}
	if !user.PositionID.Valid {
		return []Responsibility{}, nil
	}
	return s.Store.ListResponsibilities(ctx, user.PositionID)
}

func normalizeResponsibility(input ResponsibilityInput) ResponsibilityInput {
	input.Content = strings.TrimSpace(input.Content)
	if !input.Weight.Valid {
		input.Weight = null.Float64From(DefaultResponsibilityWeight)
	}
	return input
}
