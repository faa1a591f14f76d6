package performance

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
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

func (s *Store) UserDepartment(ctx context.Context, userID int64) (null.Int64, error) {
	var dept null.Int64
	err := s.DB.QueryRow(ctx, `
    SELECT department_id FROM users WHERE id = $1 AND status <> 'deleted'
  `, userID).Scan(&dept)
	if errors.Is(err, pgx.ErrNoRows) {
		return null.Int64{}, ErrUserNotFound
	}
	return dept, err
}

func (s *Store) ExamAverage(ctx context.Context, userID int64, start, end time.Time) (float64, error) {
	var avg float64
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(AVG(score), 0)
    FROM exam_records
    WHERE user_id = $1 AND status = 'completed'
      AND submit_time >= $2 AND submit_time < $3
  `, userID, start, end).Scan(&avg)
	return avg, err
}

func (s *Store) ReportDays(ctx context.Context, userID int64, start, end time.Time) (int, error) {
	var days int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(DISTINCT report_date)
    FROM feishu_reports
    WHERE user_id = $1 AND report_date >= $2::date AND report_date < $3::date
  `, userID, start, end).Scan(&days)
	return days, err
}

// Upsert writes the scores for (user, cycle). New rows start as drafts; an
// existing row keeps its status and comment.
func (s *Store) Upsert(ctx context.Context, userID int64, cycle string, scores Scores) (int64, bool, error) {
	var (
		id       int64
		inserted bool
	)
	err := s.DB.QueryRow(ctx, `
    INSERT INTO performance_reviews (user_id, cycle, exam_score, kpi_score, daily_log_score, final_score, status)
    VALUES ($1, $2, $3, $4, $5, $6, 'draft')
    ON CONFLICT (user_id, cycle) DO UPDATE
    SET exam_score = EXCLUDED.exam_score,
        kpi_score = EXCLUDED.kpi_score,
        daily_log_score = EXCLUDED.daily_log_score,
        final_score = EXCLUDED.final_score,
        updated_at = now()
    RETURNING id, (xmax = 0)
  `, userID, cycle, scores.ExamScore, scores.KPIScore, scores.DailyLogScore, scores.FinalScore).Scan(&id, &inserted)
	return id, inserted, err
}

func (s *Store) ActiveUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.DB.Query(ctx, `SELECT id FROM users WHERE status = 'active' ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

const reviewColumns = `r.id, r.user_id, u.username, u.department_id, d.name, p.name, r.cycle,
  r.exam_score, r.kpi_score, r.daily_log_score, r.final_score,
  r.manager_comment, r.status, r.reviewed_by, r.created_at, r.updated_at`

func reviewSelect(columns string) sq.SelectBuilder {
	return psql.Select(columns).
		From("performance_reviews r").
		LeftJoin("users u ON u.id = r.user_id").
		LeftJoin("departments d ON d.id = u.department_id").
		LeftJoin("positions p ON p.id = u.position_id")
}

func scanReview(row pgx.Row) (Review, error) {
	var r Review
	err := row.Scan(&r.ID, &r.UserID, &r.Username, &r.DepartmentID, &r.DepartmentName, &r.PositionName, &r.Cycle,
		&r.ExamScore, &r.KPIScore, &r.DailyLogScore, &r.FinalScore,
		&r.ManagerComment, &r.Status, &r.ReviewedBy, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// List pages reviews newest cycle first. A zero limit returns every match.
func (s *Store) List(ctx context.Context, scope auth.Scope, filter ReviewFilter, limit, offset uint64) ([]Review, int, error) {
	where := sq.And{}
	if filter.UserID.Valid {
		where = append(where, sq.Eq{"r.user_id": filter.UserID.Int64})
	}
	if filter.Cycle.Valid {
		where = append(where, sq.Eq{"r.cycle": filter.Cycle.String})
	}
	if filter.Status.Valid {
		where = append(where, sq.Eq{"r.status": filter.Status.String})
	}
	if visible := scope.Filter("r.user_id", "u.department_id"); visible != nil {
		where = append(where, visible)
	}

	countSQL, countArgs, err := reviewSelect("COUNT(1)").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.DB.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	builder := reviewSelect(reviewColumns).Where(where).OrderBy("r.cycle DESC", "r.final_score DESC", "r.id")
	if limit > 0 {
		builder = builder.Limit(limit).Offset(offset)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

func (s *Store) Get(ctx context.Context, id int64) (Review, error) {
	query, args, err := reviewSelect(reviewColumns).Where(sq.Eq{"r.id": id}).ToSql()
	if err != nil {
		return Review{}, err
	}
	r, err := scanReview(s.DB.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Review{}, ErrReviewNotFound
	}
	return r, err
}

func (s *Store) UpdateReview(ctx context.Context, id int64, comment null.String, status string, reviewerID int64) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE performance_reviews
    SET manager_comment = $1, status = $2, reviewed_by = $3, updated_at = now()
    WHERE id = $4
  `, comment, status, reviewerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}
