package exams

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"perfhub/internal/domain/auth"
)

const recordColumns = `r.id, r.user_id, u.username, u.department_id, r.exam_id, e.title, e.total_score,
  r.question_ids, r.answers, r.score, r.status, r.start_time, r.submit_time`

func recordSelect(columns string) sq.SelectBuilder {
	return psql.Select(columns).
		From("exam_records r").
		LeftJoin("users u ON u.id = r.user_id").
		LeftJoin("exams e ON e.id = r.exam_id")
}

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.UserID, &r.Username, &r.UserDepartmentID, &r.ExamID, &r.ExamTitle,
		&r.ExamTotalScore, &r.QuestionIDs, &r.Answers, &r.Score, &r.Status, &r.StartTime, &r.SubmitTime)
	return r, err
}

func (s *Store) queryRecords(ctx context.Context, builder sq.SelectBuilder) ([]Record, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) getRecord(ctx context.Context, where sq.Sqlizer) (Record, error) {
	query, args, err := recordSelect(recordColumns).Where(where).ToSql()
	if err != nil {
		return Record{}, err
	}
	r, err := scanRecord(s.DB.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrRecordNotFound
	}
	return r, err
}

func (s *Store) FindRecord(ctx context.Context, userID, examID int64) (Record, error) {
	return s.getRecord(ctx, sq.Eq{"r.user_id": userID, "r.exam_id": examID})
}

func (s *Store) GetRecord(ctx context.Context, id int64) (Record, error) {
	return s.getRecord(ctx, sq.Eq{"r.id": id})
}

// EnsureRecord creates the in-progress record on first use; concurrent
// callers all end up reading the same row.
func (s *Store) EnsureRecord(ctx context.Context, userID, examID int64) (Record, error) {
	if _, err := s.DB.Exec(ctx, `
    INSERT INTO exam_records (user_id, exam_id, status)
    VALUES ($1, $2, 'in_progress')
    ON CONFLICT (user_id, exam_id) DO NOTHING
  `, userID, examID); err != nil {
		return Record{}, err
	}
	return s.FindRecord(ctx, userID, examID)
}

// AssignQuestions stores the sampled set only if the record has none yet and
// returns whatever set the record ends up holding.
func (s *Store) AssignQuestions(ctx context.Context, recordID int64, ids []int64) ([]int64, error) {
	var stored []int64
	err := s.DB.QueryRow(ctx, `
    UPDATE exam_records SET question_ids = $2
    WHERE id = $1 AND cardinality(question_ids) = 0 AND status = 'in_progress'
    RETURNING question_ids
  `, recordID, ids).Scan(&stored)
	if errors.Is(err, pgx.ErrNoRows) {
		err = s.DB.QueryRow(ctx, `SELECT question_ids FROM exam_records WHERE id = $1`, recordID).Scan(&stored)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
	}
	return stored, err
}

// CompleteRecord moves an in-progress record to completed exactly once.
func (s *Store) CompleteRecord(ctx context.Context, recordID int64, answers Answers, score float64) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE exam_records
    SET answers = $2, score = $3, submit_time = now(), status = 'completed'
    WHERE id = $1 AND status = 'in_progress'
  `, recordID, answers, score)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadySubmitted
	}
	return nil
}

func (s *Store) ListRecords(ctx context.Context, scope auth.Scope, filter RecordFilter, limit, offset uint64) ([]Record, int, error) {
	where := sq.And{}
	if filter.ExamID.Valid {
		where = append(where, sq.Eq{"r.exam_id": filter.ExamID.Int64})
	}
	if filter.UserID.Valid {
		where = append(where, sq.Eq{"r.user_id": filter.UserID.Int64})
	}
	if filter.Status.Valid {
		where = append(where, sq.Eq{"r.status": filter.Status.String})
	}
	if visible := scope.Filter("r.user_id", "u.department_id"); visible != nil {
		where = append(where, visible)
	}

	countSQL, countArgs, err := recordSelect("COUNT(1)").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.DB.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	items, err := s.queryRecords(ctx, recordSelect(recordColumns).Where(where).
		OrderBy("r.start_time DESC", "r.id DESC").Limit(limit).Offset(offset))
	return items, total, err
}

func (s *Store) RecordStats(ctx context.Context, userID int64) (total, completed int, average float64, err error) {
	err = s.DB.QueryRow(ctx, `
    SELECT COUNT(1),
           COUNT(1) FILTER (WHERE status = 'completed'),
           COALESCE(AVG(score) FILTER (WHERE status = 'completed'), 0)
    FROM exam_records
    WHERE user_id = $1
  `, userID).Scan(&total, &completed, &average)
	return total, completed, average, err
}

func (s *Store) RecentCompleted(ctx context.Context, userID int64, limit uint64) ([]Record, error) {
	return s.queryRecords(ctx, recordSelect(recordColumns).
		Where(sq.Eq{"r.user_id": userID, "r.status": RecordCompleted}).
		OrderBy("r.submit_time DESC").
		Limit(limit))
}
