package exams

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const examColumns = `e.id, e.title, e.description, e.start_time, e.end_time, e.duration_minutes,
  e.target_position_id, p.name, e.question_count, e.total_score, e.status,
  e.created_by, e.created_at, e.updated_at`

func examSelect(columns string) sq.SelectBuilder {
	return psql.Select(columns).
		From("exams e").
		LeftJoin("positions p ON p.id = e.target_position_id")
}

func examDest(e *Exam) []any {
	return []any{&e.ID, &e.Title, &e.Description, &e.StartTime, &e.EndTime, &e.DurationMinutes,
		&e.TargetPositionID, &e.TargetPositionName, &e.QuestionCount, &e.TotalScore, &e.Status,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt}
}

func (s *Store) ListExams(ctx context.Context, filter ExamFilter, limit, offset uint64) ([]Exam, int, error) {
	where := sq.And{}
	if filter.Status.Valid {
		where = append(where, sq.Eq{"e.status": filter.Status.String})
	}
	if filter.PositionID.Valid {
		where = append(where, sq.Eq{"e.target_position_id": filter.PositionID.Int64})
	}

	countSQL, countArgs, err := examSelect("COUNT(1)").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.DB.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args, err := examSelect(examColumns).Where(where).
		OrderBy("e.start_time DESC", "e.id DESC").Limit(limit).Offset(offset).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Exam{}
	for rows.Next() {
		var e Exam
		if err := rows.Scan(examDest(&e)...); err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (s *Store) GetExam(ctx context.Context, id int64) (Exam, error) {
	query, args, err := examSelect(examColumns).Where(sq.Eq{"e.id": id}).ToSql()
	if err != nil {
		return Exam{}, err
	}
	var e Exam
	err = s.DB.QueryRow(ctx, query, args...).Scan(examDest(&e)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return Exam{}, ErrExamNotFound
	}
	return e, err
}

func (s *Store) CreateExam(ctx context.Context, e Exam) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO exams (title, description, start_time, end_time, duration_minutes,
      target_position_id, question_count, total_score, status, created_by)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    RETURNING id
  `, e.Title, e.Description, e.StartTime, e.EndTime, e.DurationMinutes,
		e.TargetPositionID, e.QuestionCount, e.TotalScore, e.Status, e.CreatedBy).Scan(&id)
	return id, err
}

func (s *Store) UpdateExam(ctx context.Context, e Exam) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE exams
    SET title = $1, description = $2, start_time = $3, end_time = $4, duration_minutes = $5,
        target_position_id = $6, question_count = $7, total_score = $8, status = $9,
        updated_at = now()
    WHERE id = $10
  `, e.Title, e.Description, e.StartTime, e.EndTime, e.DurationMinutes,
		e.TargetPositionID, e.QuestionCount, e.TotalScore, e.Status, e.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExamNotFound
	}
	return nil
}

func (s *Store) DeleteExam(ctx context.Context, id int64) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExamNotFound
	}
	return nil
}

// Available lists active exams open at now that target the given position or
// nobody in particular, with the user's record status when one exists.
func (s *Store) Available(ctx context.Context, userID int64, positionID null.Int64, now time.Time) ([]AvailableExam, error) {
	query, args, err := examSelect(examColumns+", r.status").
		LeftJoin("exam_records r ON r.exam_id = e.id AND r.user_id = ?", userID).
		Where(sq.Eq{"e.status": StatusActive}).
		Where(sq.LtOrEq{"e.start_time": now}).
		Where(sq.GtOrEq{"e.end_time": now}).
		Where(sq.Or{sq.Eq{"e.target_position_id": nil}, sq.Eq{"e.target_position_id": positionID}}).
		OrderBy("e.start_time DESC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []AvailableExam{}
	for rows.Next() {
		var a AvailableExam
		if err := rows.Scan(append(examDest(&a.Exam), &a.RecordStatus)...); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
