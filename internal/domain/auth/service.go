package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"perfhub/internal/platform/metrics"
)

// DefaultTokenTTL is how long an issued bearer token stays valid.
const DefaultTokenTTL = 7 * 24 * time.Hour

// dummyHash keeps login timing similar for unknown usernames.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z4mM1xHr5Sxv9Jt2z9T0Ebq6"

type Service struct {
	Store    StoreAPI
	Secret   string
	TokenTTL time.Duration
	Metrics  *metrics.Collector
}

func NewService(store StoreAPI, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{Store: store, Secret: secret, TokenTTL: ttl}
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (int64, error) {
	hash, err := HashPassword(input.Password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	return s.Store.CreateUser(ctx, NewUser{
		Username:     strings.TrimSpace(input.Username),
		PasswordHash: hash,
		Email:        input.Email,
		Phone:        input.Phone,
		Role:         RoleEmployee,
		DepartmentID: input.DepartmentID,
		PositionID:   input.PositionID,
	})
}

func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	creds, err := s.Store.FindActiveByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrUserNotFound) {
		_ = CheckPassword(dummyHash, password)
		s.Metrics.Inc(metrics.EventLoginFailed)
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if err := CheckPassword(creds.PasswordHash, password); err != nil {
		s.Metrics.Inc(metrics.EventLoginFailed)
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.Secret, Claims{UserID: creds.ID, Username: creds.Username, Role: creds.Role}, s.TokenTTL)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}
	return LoginResult{
		Token: token,
		User: UserSummary{
			ID:           creds.ID,
			Username:     creds.Username,
			Email:        creds.Email,
			Role:         creds.Role,
			DepartmentID: creds.DepartmentID,
			PositionID:   creds.PositionID,
		},
	}, nil
}

func (s *Service) Me(ctx context.Context, userID int64) (Profile, error) {
	profile, err := s.Store.Profile(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return Profile{}, ErrInactiveUser
	}
	if err != nil {
		return Profile{}, err
	}
	if profile.Status != UserStatusActive {
		return Profile{}, ErrInactiveUser
	}
	return profile, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	creds, err := s.Store.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if creds.Status != UserStatusActive {
		return ErrInactiveUser
	}
	if err := CheckPassword(creds.PasswordHash, oldPassword); err != nil {
		return ErrWrongPassword
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.Store.UpdatePasswordHash(ctx, userID, hash)
}

// Resolve loads the caller's current role and department. A token whose user
// has since been deleted no longer resolves.
func (s *Service) Resolve(ctx context.Context, user UserContext) (Scope, error) {
	creds, err := s.Store.FindByID(ctx, user.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return Scope{}, ErrInactiveUser
	}
	if err != nil {
		return Scope{}, err
	}
	if creds.Status != UserStatusActive {
		return Scope{}, ErrInactiveUser
	}
	return Scope{
		UserID:       creds.ID,
		Role:         creds.Role,
		DepartmentID: creds.DepartmentID,
		PositionID:   creds.PositionID,
	}, nil
}
