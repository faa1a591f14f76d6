package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureRecorder struct {
	entries []Entry
	err     error
}

func (c *captureRecorder) Record(_ context.Context, entry Entry) error {
	c.entries = append(c.entries, entry)
	return c.err
}

func TestLogSwallowsFailures(t *testing.T) {
	rec := &captureRecorder{err: errors.New("db down")}
	Log(context.Background(), rec, Entry{Action: ActionUserDelete, EntityType: "user", EntityID: "4"})
	require.Len(t, rec.entries, 1)
	assert.Equal(t, ActionUserDelete, rec.entries[0].Action)

	Log(context.Background(), nil, Entry{Action: ActionUserDelete})
}

func TestFilterWhere(t *testing.T) {
	sql, args, err := Filter{}.where().ToSql()
	require.NoError(t, err)
	assert.Equal(t, "(1=1)", sql)
	assert.Empty(t, args)

	sql, args, err = Filter{Action: null.StringFrom(ActionReviewUpdate), ActorUserID: null.Int64From(3)}.where().ToSql()
	require.NoError(t, err)
	assert.Equal(t, "(action = ? AND actor_user_id = ?)", sql)
	assert.Equal(t, []any{ActionReviewUpdate, int64(3)}, args)
}

func TestMarshalOptional(t *testing.T) {
	raw, err := marshalOptional(nil)
	require.NoError(t, err)
	assert.Nil(t, raw)

	raw, err = marshalOptional(map[string]string{"role": "manager"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"manager"}`, string(raw))
}
