package questions

import (
	"context"

	"github.com/aarondl/null/v8"
)

type StoreAPI interface {
	List(ctx context.Context, filter Filter, limit, offset uint64) ([]Question, int, error)
	Get(ctx context.Context, id int64) (Question, error)
	Create(ctx context.Context, input Input, createdBy null.Int64) (int64, error)
	Update(ctx context.Context, id int64, input Input) error
	Delete(ctx context.Context, id int64) error
	Random(ctx context.Context, count int, category null.String) ([]Question, error)
	ByIDs(ctx context.Context, ids []int64) ([]Question, error)
	CandidateIDs(ctx context.Context, category null.String) ([]int64, error)
}

var _ StoreAPI = (*Store)(nil)
