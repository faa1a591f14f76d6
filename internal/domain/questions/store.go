package questions

import (
	"context"
	"errors"

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

const questionColumns = `id, type, content, options, correct_answer, category,
  difficulty, created_by, created_at, updated_at`

func scanQuestion(row pgx.Row) (Question, error) {
	var q Question
	err := row.Scan(&q.ID, &q.Type, &q.Content, &q.Options, &q.CorrectAnswer, &q.Category,
		&q.Difficulty, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt)
	return q, err
}

func collect(rows pgx.Rows) ([]Question, error) {
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) List(ctx context.Context, filter Filter, limit, offset uint64) ([]Question, int, error) {
	where := sq.And{}
	if filter.Category.Valid {
		where = append(where, sq.Eq{"category": filter.Category.String})
	}
	if filter.Type.Valid {
		where = append(where, sq.Eq{"type": filter.Type.String})
	}

	countSQL, countArgs, err := psql.Select("COUNT(1)").From("question_bank").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.DB.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args, err := psql.Select(questionColumns).From("question_bank").Where(where).
		OrderBy("id DESC").Limit(limit).Offset(offset).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := collect(rows)
	return items, total, err
}

func (s *Store) Get(ctx context.Context, id int64) (Question, error) {
	q, err := scanQuestion(s.DB.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM question_bank WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Question{}, ErrQuestionNotFound
	}
	return q, err
}

func (s *Store) Create(ctx context.Context, input Input, createdBy null.Int64) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO question_bank (type, content, options, correct_answer, category, difficulty, created_by)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING id
  `, input.Type, input.Content, input.Options, input.CorrectAnswer, input.Category, input.Difficulty, createdBy).Scan(&id)
	return id, err
}

func (s *Store) Update(ctx context.Context, id int64, input Input) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE question_bank
    SET type = $1, content = $2, options = $3, correct_answer = $4,
        category = $5, difficulty = $6, updated_at = now()
    WHERE id = $7
  `, input.Type, input.Content, input.Options, input.CorrectAnswer, input.Category, input.Difficulty, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM question_bank WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (s *Store) Random(ctx context.Context, count int, category null.String) ([]Question, error) {
	builder := psql.Select(questionColumns).From("question_bank")
	if category.Valid {
		builder = builder.Where(sq.Eq{"category": category.String})
	}
	query, args, err := builder.OrderBy("random()").Limit(uint64(count)).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// ByIDs returns the questions in the order of ids; unknown ids are skipped.
func (s *Store) ByIDs(ctx context.Context, ids []int64) ([]Question, error) {
	if len(ids) == 0 {
		return []Question{}, nil
	}
	rows, err := s.DB.Query(ctx,
		`SELECT `+questionColumns+` FROM question_bank WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	found, err := collect(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]Question, len(found))
	for _, q := range found {
		byID[q.ID] = q
	}
	out := make([]Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *Store) CandidateIDs(ctx context.Context, category null.String) ([]int64, error) {
	builder := psql.Select("id").From("question_bank")
	if category.Valid {
		builder = builder.Where(sq.Eq{"category": category.String})
	}
	query, args, err := builder.OrderBy("id").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}
