package auth

import "context"

type StoreAPI interface {
	FindActiveByUsername(ctx context.Context, username string) (Credentials, error)
	FindByID(ctx context.Context, id int64) (Credentials, error)
	Profile(ctx context.Context, id int64) (Profile, error)
	CreateUser(ctx context.Context, user NewUser) (int64, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}

var _ StoreAPI = (*Store)(nil)
