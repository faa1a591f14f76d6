package core

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
)

const departmentColumns = `d.id, d.name, d.description, d.manager_id, m.username,
  d.parent_id, parent.name, d.created_at, d.updated_at`

func departmentSelect() sq.SelectBuilder {
	return psql.Select(departmentColumns).
		From("departments d").
		LeftJoin("users m ON m.id = d.manager_id").
		LeftJoin("departments parent ON parent.id = d.parent_id")
}

func scanDepartment(row pgx.Row) (Department, error) {
	var d Department
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.ManagerID, &d.ManagerName,
		&d.ParentID, &d.ParentName, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (s *Store) ListDepartments(ctx context.Context) ([]Department, error) {
	query, args, err := departmentSelect().OrderBy("d.id").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) GetDepartment(ctx context.Context, id int64) (Department, error) {
	query, args, err := departmentSelect().Where(sq.Eq{"d.id": id}).ToSql()
	if err != nil {
		return Department{}, err
	}
	d, err := scanDepartment(s.DB.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Department{}, ErrDepartmentNotFound
	}
	return d, err
}

func (s *Store) CreateDepartment(ctx context.Context, input DepartmentInput) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO departments (name, description, manager_id, parent_id)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, input.Name, input.Description, input.ManagerID, input.ParentID).Scan(&id)
	return id, err
}

func (s *Store) UpdateDepartment(ctx context.Context, id int64, input DepartmentInput) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE departments
    SET name = $1, description = $2, manager_id = $3, parent_id = $4, updated_at = now()
    WHERE id = $5
  `, input.Name, input.Description, input.ManagerID, input.ParentID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDepartmentNotFound
	}
	return nil
}

func (s *Store) DeleteDepartment(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "departments", id, ErrDepartmentNotFound)
}

const positionColumns = `p.id, p.name, p.department_id, d.name, p.level, p.description, p.created_at, p.updated_at`

func scanPosition(row pgx.Row) (Position, error) {
	var p Position
	err := row.Scan(&p.ID, &p.Name, &p.DepartmentID, &p.DepartmentName, &p.Level, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Store) ListPositions(ctx context.Context, departmentID null.Int64) ([]Position, error) {
	builder := psql.Select(positionColumns).
		From("positions p").
		LeftJoin("departments d ON d.id = p.department_id").
		OrderBy("p.id")
	if departmentID.Valid {
		builder = builder.Where(sq.Eq{"p.department_id": departmentID.Int64})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetPosition(ctx context.Context, id int64) (Position, error) {
	p, err := scanPosition(s.DB.QueryRow(ctx, `
    SELECT `+positionColumns+`
    FROM positions p
    LEFT JOIN departments d ON d.id = p.department_id
    WHERE p.id = $1
  `, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Position{}, ErrPositionNotFound
	}
	return p, err
}

func (s *Store) CreatePosition(ctx context.Context, input PositionInput) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO positions (name, department_id, level, description)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, input.Name, input.DepartmentID, input.Level.Int64, input.Description).Scan(&id)
	return id, err
}

func (s *Store) UpdatePosition(ctx context.Context, id int64, input PositionInput) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE positions
    SET name = $1, department_id = $2, level = $3, description = $4, updated_at = now()
    WHERE id = $5
  `, input.Name, input.DepartmentID, input.Level.Int64, input.Description, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPositionNotFound
	}
	return nil
}

func (s *Store) DeletePosition(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "positions", id, ErrPositionNotFound)
}

const responsibilityColumns = `r.id, r.position_id, p.name, r.content, r.weight, r.kpi_criteria, r.created_at, r.updated_at`

func scanResponsibility(row pgx.Row) (Responsibility, error) {
	var r Responsibility
	err := row.Scan(&r.ID, &r.PositionID, &r.PositionName, &r.Content, &r.Weight, &r.KPICriteria, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (s *Store) ListResponsibilities(ctx context.Context, positionID null.Int64) ([]Responsibility, error) {
	builder := psql.Select(responsibilityColumns).
		From("job_responsibilities r").
		LeftJoin("positions p ON p.id = r.position_id").
		OrderBy("r.position_id", "r.id")
	if positionID.Valid {
		builder = builder.Where(sq.Eq{"r.position_id": positionID.Int64})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Responsibility
	for rows.Next() {
		r, err := scanResponsibility(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) GetResponsibility(ctx context.Context, id int64) (Responsibility, error) {
	r, err := scanResponsibility(s.DB.QueryRow(ctx, `
    SELECT `+responsibilityColumns+`
    FROM job_responsibilities r
    LEFT JOIN positions p ON p.id = r.position_id
    WHERE r.id = $1
  `, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Responsibility{}, ErrResponsibilityNotFound
	}
	return r, err
}

func (s *Store) CreateResponsibility(ctx context.Context, input ResponsibilityInput) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO job_responsibilities (position_id, content, weight, kpi_criteria)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, input.PositionID, input.Content, input.Weight.Float64, input.KPICriteria).Scan(&id)
	return id, err
}

func (s *Store) UpdateResponsibility(ctx context.Context, id int64, input ResponsibilityInput) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE job_responsibilities
    SET position_id = $1, content = $2, weight = $3, kpi_criteria = $4, updated_at = now()
    WHERE id = $5
  `, input.PositionID, input.Content, input.Weight.Float64, input.KPICriteria, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrResponsibilityNotFound
	}
	return nil
}

func (s *Store) DeleteResponsibility(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "job_responsibilities", id, ErrResponsibilityNotFound)
}

// deleteByID removes one row. table is always a package constant.
func (s *Store) deleteByID(ctx context.Context, table string, id int64, notFound error) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}
