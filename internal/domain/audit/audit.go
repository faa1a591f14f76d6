package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	ActionUserDelete         = "user.delete"
	ActionUserRoleChange     = "user.role_change"
	ActionReviewUpdate       = "performance.review_update"
	ActionReportConfigUpdate = "feishu.config_update"
	ActionReportBind         = "feishu.bind"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Event struct {
	ID          int64           `json:"id"`
	ActorUserID null.Int64      `json:"actor_user_id"`
	Action      string          `json:"action"`
	EntityType  string          `json:"entity_type"`
	EntityID    string          `json:"entity_id"`
	RequestID   null.String     `json:"request_id"`
	IP          null.String     `json:"ip"`
	CreatedAt   time.Time       `json:"created_at"`
	Before      json.RawMessage `json:"before,omitempty"`
	After       json.RawMessage `json:"after,omitempty"`
}

type Entry struct {
	ActorUserID int64
	Action      string
	EntityType  string
	EntityID    string
	RequestID   string
	IP          string
	Before      any
	After       any
}

type Filter struct {
	Action      null.String
	EntityType  null.String
	ActorUserID null.Int64
}

// Recorder is what mutating handlers depend on.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Log records entry and only logs a failure; the audited change has already
// been committed.
func Log(ctx context.Context, rec Recorder, entry Entry) {
	if rec == nil {
		return
	}
	if err := rec.Record(ctx, entry); err != nil {
		slog.Warn("audit "+entry.Action+" failed", "entityId", entry.EntityID, "err", err)
	}
}

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

func marshalOptional(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func (s *Service) Record(ctx context.Context, entry Entry) error {
	beforeJSON, err := marshalOptional(entry.Before)
	if err != nil {
		return err
	}
	afterJSON, err := marshalOptional(entry.After)
	if err != nil {
		return err
	}
	var actor null.Int64
	if entry.ActorUserID > 0 {
		actor = null.Int64From(entry.ActorUserID)
	}

	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_events (actor_user_id, action, entity_type, entity_id, before_json, after_json, request_id, ip)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
  `, actor, entry.Action, entry.EntityType, entry.EntityID, beforeJSON, afterJSON,
		null.NewString(entry.RequestID, entry.RequestID != ""), null.NewString(entry.IP, entry.IP != ""))
	return err
}

func (f Filter) where() sq.And {
	where := sq.And{}
	if f.Action.Valid {
		where = append(where, sq.Eq{"action": f.Action.String})
	}
	if f.EntityType.Valid {
		where = append(where, sq.Eq{"entity_type": f.EntityType.String})
	}
	if f.ActorUserID.Valid {
		where = append(where, sq.Eq{"actor_user_id": f.ActorUserID.Int64})
	}
	return where
}

func (s *Service) List(ctx context.Context, filter Filter, includeDetails bool, limit, offset uint64) ([]Event, int, error) {
	countSQL, countArgs, err := psql.Select("COUNT(1)").From("audit_events").Where(filter.where()).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.DB.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	columns := "id, actor_user_id, action, entity_type, entity_id, request_id, ip, created_at"
	if includeDetails {
		columns += ", before_json, after_json"
	}
	query, args, err := psql.Select(columns).From("audit_events").Where(filter.where()).
		OrderBy("created_at DESC", "id DESC").Limit(limit).Offset(offset).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var evt Event
		dest := []any{&evt.ID, &evt.ActorUserID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &evt.CreatedAt}
		if includeDetails {
			dest = append(dest, &evt.Before, &evt.After)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, err
		}
		out = append(out, evt)
	}
	return out, total, rows.Err()
}
