package questions

import (
	"context"

	"github.com/aarondl/null/v8"
)

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset uint64) ([]Question, int, error) {
	return s.Store.List(ctx, filter, limit, offset)
}

func (s *Service) Get(ctx context.Context, id int64) (Question, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, input Input, actorID int64) (Question, error) {
	input, err := input.Normalize()
	if err != nil {
		return Question{}, err
	}
	id, err := s.Store.Create(ctx, input, null.Int64From(actorID))
	if err != nil {
		return Question{}, err
	}
	return s.Store.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, input Input) (Question, error) {
	input, err := input.Normalize()
	if err != nil {
		return Question{}, err
	}
	if err := s.Store.Update(ctx, id, input); err != nil {
		return Question{}, err
	}
	return s.Store.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.Store.Delete(ctx, id)
}

// Random draws up to count questions, optionally from one category, with the
// answer key removed.
func (s *Service) Random(ctx context.Context, count int, category null.String) ([]PublicQuestion, error) {
	if count < 1 || count > MaxRandomCount {
		return nil, ErrInvalidCount
	}
	items, err := s.Store.Random(ctx, count, category)
	if err != nil {
		return nil, err
	}
	return PublicList(items), nil
}
