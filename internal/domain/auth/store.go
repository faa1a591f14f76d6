package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const credentialColumns = "id, username, password_hash, email, role, department_id, position_id, status"

func scanCredentials(row pgx.Row) (Credentials, error) {
	var c Credentials
	err := row.Scan(&c.ID, &c.Username, &c.PasswordHash, &c.Email, &c.Role, &c.DepartmentID, &c.PositionID, &c.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return Credentials{}, ErrUserNotFound
	}
	return c, err
}

func (s *Store) FindActiveByUsername(ctx context.Context, username string) (Credentials, error) {
	return scanCredentials(s.DB.QueryRow(ctx, `
    SELECT `+credentialColumns+`
    FROM users
    WHERE username = $1 AND status = 'active'
  `, username))
}

func (s *Store) FindByID(ctx context.Context, id int64) (Credentials, error) {
	return scanCredentials(s.DB.QueryRow(ctx, "SELECT "+credentialColumns+" FROM users WHERE id = $1", id))
}

func (s *Store) Profile(ctx context.Context, id int64) (Profile, error) {
	var p Profile
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, u.username, u.email, u.phone, u.role,
           u.department_id, d.name, u.position_id, p.name,
           u.feishu_user_id, u.status, u.created_at
    FROM users u
    LEFT JOIN departments d ON d.id = u.department_id
    LEFT JOIN positions p ON p.id = u.position_id
    WHERE u.id = $1
  `, id).Scan(&p.ID, &p.Username, &p.Email, &p.Phone, &p.Role,
		&p.DepartmentID, &p.DepartmentName, &p.PositionID, &p.PositionName,
		&p.FeishuUserID, &p.Status, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrUserNotFound
	}
	return p, err
}

func (s *Store) CreateUser(ctx context.Context, user NewUser) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (username, password_hash, email, phone, role, department_id, position_id, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,'active')
    RETURNING id
  `, user.Username, user.PasswordHash, user.Email, user.Phone, user.Role, user.DepartmentID, user.PositionID).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ErrUsernameTaken
	}
	return id, err
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2 AND status = 'active'", hash, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
