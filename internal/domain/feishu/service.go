package feishu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"perfhub/internal/domain/auth"
	"perfhub/internal/platform/apperr"
	feishuapi "perfhub/internal/platform/feishu"
	"perfhub/internal/platform/jobs"
	"perfhub/internal/platform/metrics"
)

const maxSyncPages = 1000

// SecretSealer protects the app secret and cached token at rest.
type SecretSealer interface {
	SealString(plain string) (string, error)
	OpenString(stored string) (string, error)
}

type JobRunner interface {
	RunNow(ctx context.Context, jobType string, run jobs.RunFunc) (any, error)
}

type Service struct {
	Store    StoreAPI
	Provider Provider
	Sealer   SecretSealer
	Jobs     JobRunner
	Metrics  *metrics.Collector
	Now      func() time.Time

	refresh singleflight.Group
}

func NewService(store StoreAPI, provider Provider, sealer SecretSealer, runner JobRunner, collector *metrics.Collector) *Service {
	return &Service{
		Store:    store,
		Provider: provider,
		Sealer:   sealer,
		Jobs:     runner,
		Metrics:  collector,
		Now:      time.Now,
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Service) GetConfig(ctx context.Context) (Config, error) {
	cfg, err := s.Store.GetConfig(ctx)
	if err != nil {
		return Config{}, err
	}
	return cfg.Config, nil
}

func (s *Service) SaveConfig(ctx context.Context, input ConfigInput) (Config, error) {
	sealed, err := s.Sealer.SealString(strings.TrimSpace(input.AppSecret))
	if err != nil {
		return Config{}, fmt.Errorf("seal app secret: %w", err)
	}
	if err := s.Store.SaveConfig(ctx, strings.TrimSpace(input.AppID), sealed); err != nil {
		return Config{}, err
	}
	return s.GetConfig(ctx)
}

// Token returns a tenant token, reusing the cached one until it is within
// TokenRefreshSkew of expiry. Concurrent refreshes share one provider call.
func (s *Service) Token(ctx context.Context) (string, error) {
	cfg, err := s.Store.GetConfig(ctx)
	if err != nil {
		return "", err
	}
	if token, ok := s.cachedToken(cfg); ok {
		return token, nil
	}
	// The shared refresh outlives any one caller; each waiter still honours
	// its own context.
	ch := s.refresh.DoChan("tenant_token", func() (any, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), tokenRefreshTimeout)
		defer cancel()
		return s.refreshToken(refreshCtx, cfg)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (s *Service) cachedToken(cfg storedConfig) (string, bool) {
	if !cfg.HasToken || !cfg.TokenExpiresAt.Valid {
		return "", false
	}
	if !cfg.TokenExpiresAt.Time.After(s.now().Add(TokenRefreshSkew)) {
		return "", false
	}
	token, err := s.Sealer.OpenString(cfg.SealedToken.String)
	if err != nil {
		slog.Warn("cached report token unreadable", "err", err)
		return "", false
	}
	return token, true
}

func (s *Service) refreshToken(ctx context.Context, cfg storedConfig) (string, error) {
	secret, err := s.Sealer.OpenString(cfg.SealedSecret)
	if err != nil {
		return "", fmt.Errorf("open app secret: %w", err)
	}
	token, err := s.Provider.TenantAccessToken(ctx, cfg.AppID, secret)
	if err != nil {
		return "", providerError(err)
	}
	sealed, err := s.Sealer.SealString(token.Value)
	if err != nil {
		return "", fmt.Errorf("seal token: %w", err)
	}
	if err := s.Store.SaveToken(ctx, sealed, s.now().Add(token.ExpiresIn)); err != nil {
		return "", err
	}
	s.Metrics.Inc(metrics.EventReportTokenRefreshed)
	return token.Value, nil
}

func providerError(err error) error {
	var apiErr *feishuapi.APIError
	if errors.As(err, &apiErr) {
		return apperr.Wrap(err, apperr.KindUpstream, "report provider rejected the request: "+apiErr.Msg)
	}
	return apperr.Wrap(err, apperr.KindUpstream, "the report provider could not be reached")
}

// Test checks connectivity by obtaining a token.
func (s *Service) Test(ctx context.Context) (TestResult, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return TestResult{}, err
	}
	prefix := token
	if len(prefix) > tokenPrefixLength {
		prefix = prefix[:tokenPrefixLength]
	}
	return TestResult{TokenPrefix: prefix + "..."}, nil
}

func (s *Service) Reports(ctx context.Context, scope auth.Scope, filter ReportFilter, limit, offset uint64) ([]Report, int, error) {
	return s.Store.ListReports(ctx, scope, filter, limit, offset)
}

// Sync walks the provider's user directory and matches it against bound
// local users. Report content is not imported.
func (s *Service) Sync(ctx context.Context, date string) (SyncResult, error) {
	if date == "" {
		date = s.now().UTC().Format(time.DateOnly)
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return SyncResult{}, ErrInvalidDate
	}
	out, err := s.Jobs.RunNow(ctx, jobs.JobReportSync, func(ctx context.Context) (any, error) {
		return s.syncUsers(ctx, date)
	})
	if err != nil {
		return SyncResult{}, err
	}
	result, _ := out.(SyncResult)
	return result, nil
}

func (s *Service) syncUsers(ctx context.Context, date string) (SyncResult, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return SyncResult{}, err
	}
	result := SyncResult{Date: date}
	pageToken := ""
	for page := 0; page < maxSyncPages; page++ {
		users, err := s.Provider.ListUsers(ctx, token, pageToken)
		if err != nil {
			return SyncResult{}, providerError(err)
		}
		openIDs := make([]string, 0, len(users.Items))
		for _, u := range users.Items {
			if u.OpenID != "" {
				openIDs = append(openIDs, u.OpenID)
			}
		}
		matches, err := s.Store.MatchUsers(ctx, openIDs)
		if err != nil {
			return SyncResult{}, err
		}
		for _, u := range users.Items {
			if userID, ok := matches[u.OpenID]; ok {
				slog.Info("report sync matched user", "date", date, "userId", userID, "name", u.Name)
				result.Matched++
			}
		}
		result.Processed += len(users.Items)

		if !users.HasMore || users.PageToken == "" {
			break
		}
		pageToken = users.PageToken
	}
	s.Metrics.Inc(metrics.EventReportSyncRun)
	return result, nil
}

// Bind links a provider user id to the caller, or to another user when the
// caller is an admin.
func (s *Service) Bind(ctx context.Context, scope auth.Scope, input BindInput) (BindResult, error) {
	target := scope.UserID
	if input.UserID.Valid && input.UserID.Int64 != scope.UserID {
		if !scope.IsAdmin() {
			return BindResult{}, ErrBindForbidden
		}
		target = input.UserID.Int64
	}
	feishuUserID := strings.TrimSpace(input.FeishuUserID)
	if err := s.Store.BindUser(ctx, target, feishuUserID); err != nil {
		return BindResult{}, err
	}
	return BindResult{UserID: target, FeishuUserID: feishuUserID}, nil
}
