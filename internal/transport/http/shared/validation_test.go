package shared

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Username string     `json:"username" validate:"required,min=3"`
	Level    null.Int64 `json:"level" validate:"omitempty,gte=1,lte=10"`
	Role     string     `json:"role" validate:"omitempty,oneof=admin manager employee"`
	Owner    null.Int64 `json:"owner_id" validate:"required"`
}

func TestValidatorStruct(t *testing.T) {
	tests := []struct {
		name   string
		input  samplePayload
		fields []string
	}{
		{
			name:  "valid",
			input: samplePayload{Username: "alice", Level: null.Int64From(3), Owner: null.Int64From(1)},
		},
		{
			name:   "missing",
			input:  samplePayload{},
			fields: []string{"owner_id", "username"},
		},
		{
			name:   "out of range",
			input:  samplePayload{Username: "al", Level: null.Int64From(11), Role: "root", Owner: null.Int64From(1)},
			fields: []string{"level", "role", "username"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := NewValidator()
			v.Struct(tc.input)
			var got []string
			for _, issue := range v.Issues() {
				got = append(got, issue.Field)
			}
			assert.Equal(t, tc.fields, got)
		})
	}
}

func TestInstantOrder(t *testing.T) {
	v := NewValidator()
	start, ok := v.Instant("start_time", "2024-01-02T10:00:00Z")
	require.True(t, ok)
	end, ok := v.Instant("end_time", "2024-01-02 09:00:00")
	require.True(t, ok)
	v.InstantOrder("start_time", start, "end_time", end)

	require.True(t, v.HasIssues())
	assert.Equal(t, "start_time", v.Issues()[0].Field)

	_, ok = v.Instant("end_time", "yesterday")
	assert.False(t, ok)
	assert.Equal(t, time.UTC, end.Location())
}

func TestRejectWritesFieldList(t *testing.T) {
	v := NewValidator()
	v.Required("title", " ", "is required")

	rec := httptest.NewRecorder()
	assert.True(t, v.Reject(rec, "r1"))
	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"title"`)
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query  string
		page   int
		size   int
		offset uint64
	}{
		{"", 1, 20, 0},
		{"page=3&pageSize=10", 3, 10, 20},
		{"page=2&page_size=5", 2, 5, 5},
		{"page=-1&pageSize=1000", 1, 100, 0},
	}
	for _, tc := range tests {
		req := httptest.NewRequest("GET", "/x?"+tc.query, nil)
		p := ParsePagination(req, 20, 100)
		assert.Equal(t, tc.page, p.Page, tc.query)
		assert.Equal(t, tc.size, p.PageSize, tc.query)
		assert.Equal(t, tc.offset, p.Offset(), tc.query)
	}
}
