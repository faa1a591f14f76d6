package feishu

import (
	"context"
	"errors"
	"time"

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

func (s *Store) GetConfig(ctx context.Context) (storedConfig, error) {
	var c storedConfig
	err := s.DB.QueryRow(ctx, `
    SELECT app_id, app_secret, access_token, token_expires_at, status, created_at, updated_at
    FROM feishu_config WHERE id = 1
  `).Scan(&c.AppID, &c.SealedSecret, &c.SealedToken, &c.TokenExpiresAt, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return storedConfig{}, ErrNotConfigured
	}
	c.HasToken = c.SealedToken.Valid && c.SealedToken.String != ""
	return c, err
}

// SaveConfig upserts the single settings row and drops any cached token,
// since it belonged to the previous credentials.
func (s *Store) SaveConfig(ctx context.Context, appID, sealedSecret string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO feishu_config (id, app_id, app_secret, status)
    VALUES (1, $1, $2, 'active')
    ON CONFLICT (id) DO UPDATE
    SET app_id = EXCLUDED.app_id,
        app_secret = EXCLUDED.app_secret,
        access_token = NULL,
        token_expires_at = NULL,
        status = 'active',
        updated_at = now()
  `, appID, sealedSecret)
	return err
}

func (s *Store) SaveToken(ctx context.Context, sealedToken string, expiresAt time.Time) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE feishu_config
    SET access_token = $1, token_expires_at = $2, updated_at = now()
    WHERE id = 1
  `, sealedToken, expiresAt)
	return err
}

func (s *Store) ListReports(ctx context.Context, scope auth.Scope, filter ReportFilter, limit, offset uint64) ([]Report, int, error) {
	where := sq.And{}
	if filter.UserID.Valid {
		where = append(where, sq.Eq{"r.user_id": filter.UserID.Int64})
	}
	if filter.StartDate.Valid {
		where = append(where, sq.Expr("r.report_date >= ?::date", filter.StartDate.Time))
	}
	if filter.EndDate.Valid {
		where = append(where, sq.Expr("r.report_date <= ?::date", filter.EndDate.Time))
	}
	if visible := scope.Filter("r.user_id", "u.department_id"); visible != nil {
		where = append(where, visible)
	}

	base := func(columns string) sq.SelectBuilder {
		return psql.Select(columns).From("feishu_reports r").LeftJoin("users u ON u.id = r.user_id").Where(where)
	}

	countSQL, countArgs, err := base("COUNT(1)").ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.DB.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args, err := base(`r.id, r.user_id, u.username, r.feishu_user_id,
      to_char(r.report_date, 'YYYY-MM-DD'), r.content, r.submit_time, r.source_id, r.synced_at`).
		OrderBy("r.report_date DESC", "r.id DESC").Limit(limit).Offset(offset).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Report{}
	for rows.Next() {
		var r Report
		if err := rows.Scan(&r.ID, &r.UserID, &r.Username, &r.FeishuUserID,
			&r.ReportDate, &r.Content, &r.SubmitTime, &r.SourceID, &r.SyncedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// MatchUsers maps provider open ids to active local user ids.
func (s *Store) MatchUsers(ctx context.Context, openIDs []string) (map[string]int64, error) {
	out := map[string]int64{}
	if len(openIDs) == 0 {
		return out, nil
	}
	rows, err := s.DB.Query(ctx, `
    SELECT feishu_user_id, id FROM users
    WHERE feishu_user_id = ANY($1) AND status = 'active'
  `, openIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			openID string
			id     int64
		)
		if err := rows.Scan(&openID, &id); err != nil {
			return nil, err
		}
		out[openID] = id
	}
	return out, rows.Err()
}

func (s *Store) BindUser(ctx context.Context, userID int64, feishuUserID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users SET feishu_user_id = $1, updated_at = now()
    WHERE id = $2 AND status = 'active'
  `, feishuUserID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
