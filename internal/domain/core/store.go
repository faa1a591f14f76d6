package core

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"perfhub/internal/domain/auth"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const userColumns = `u.id, u.username, u.email, u.phone, u.role,
  u.department_id, d.name, u.position_id, p.name,
  u.feishu_user_id, u.status, u.created_at, u.updated_at`

func userSelect(columns string) sq.SelectBuilder {
	return psql.Select(columns).
		From("users u").
		LeftJoin("departments d ON d.id = u.department_id").
		LeftJoin("positions p ON p.id = u.position_id")
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Phone, &u.Role,
		&u.DepartmentID, &u.DepartmentName, &u.PositionID, &u.PositionName,
		&u.FeishuUserID, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *Store) ListUsers(ctx context.Context, scope auth.Scope, filter UserFilter, limit, offset uint64) ([]User, int, error) {
	where := sq.And{sq.NotEq{"u.status": auth.UserStatusDeleted}}
	if filter.DepartmentID.Valid {
		where = append(where, sq.Eq{"u.department_id": filter.DepartmentID.Int64})
	}
	if filter.PositionID.Valid {
		where = append(where, sq.Eq{"u.position_id": filter.PositionID.Int64})
	}
	if filter.Role.Valid {
		where = append(where, sq.Eq{"u.role": filter.Role.String})
	}
	if visible := scope.Filter("u.id", "u.department_id"); visible != nil {
		where = append(where, visible)
	}

	countSQL, countArgs, err := userSelect("COUNT(1)").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.DB.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args, err := userSelect(userColumns).Where(where).OrderBy("u.id").Limit(limit).Offset(offset).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// GetUser also returns deleted users so historical joins keep resolving.
func (s *Store) GetUser(ctx context.Context, id int64) (User, error) {
	query, args, err := userSelect(userColumns).Where(sq.Eq{"u.id": id}).ToSql()
	if err != nil {
		return User{}, err
	}
	u, err := scanUser(s.DB.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (s *Store) UpdateUser(ctx context.Context, id int64, update UserUpdate) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users
    SET email = $1, phone = $2, department_id = $3, position_id = $4, updated_at = now()
    WHERE id = $5 AND status = 'active'
  `, update.Email, update.Phone, update.DepartmentID, update.PositionID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Store) SoftDeleteUser(ctx context.Context, id int64) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users SET status = 'deleted', updated_at = now()
    WHERE id = $1 AND status = 'active'
  `, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Store) SetUserRole(ctx context.Context, id int64, role string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users SET role = $1, updated_at = now()
    WHERE id = $2 AND status = 'active'
  `, role, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
