package feishu

import (
	"context"
	"time"

	"perfhub/internal/domain/auth"
	feishuapi "perfhub/internal/platform/feishu"
)

type StoreAPI interface {
	GetConfig(ctx context.Context) (storedConfig, error)
	SaveConfig(ctx context.Context, appID, sealedSecret string) error
	SaveToken(ctx context.Context, sealedToken string, expiresAt time.Time) error
	ListReports(ctx context.Context, scope auth.Scope, filter ReportFilter, limit, offset uint64) ([]Report, int, error)
	MatchUsers(ctx context.Context, openIDs []string) (map[string]int64, error)
	BindUser(ctx context.Context, userID int64, feishuUserID string) error
}

// Provider is the remote API the service talks to.
type Provider interface {
	TenantAccessToken(ctx context.Context, appID, appSecret string) (feishuapi.Token, error)
	ListUsers(ctx context.Context, token, pageToken string) (feishuapi.UserPage, error)
}

var (
	_ StoreAPI = (*Store)(nil)
	_ Provider = (*feishuapi.Client)(nil)
)
