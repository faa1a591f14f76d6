package auth

import (
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("super-secret")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}

	if err := CheckPassword(hash, "super-secret"); err != nil {
		t.Fatalf("expected password to match, got %v", err)
	}

	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	secret := "test-secret"
	claims := Claims{UserID: 7, Username: "alice", Role: RoleManager}

	token, err := GenerateToken(secret, claims, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	parsed, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if parsed.UserID != claims.UserID || parsed.Username != claims.Username || parsed.Role != claims.Role {
		t.Fatalf("claims mismatch: %+v", parsed)
	}
	if got := parsed.ExpiresAt.Sub(parsed.IssuedAt.Time); got != time.Hour {
		t.Fatalf("expected 1h lifetime, got %s", got)
	}
}

func TestParseTokenRejects(t *testing.T) {
	valid, err := GenerateToken("secret", Claims{UserID: 1, Username: "a", Role: RoleEmployee}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	expired, err := GenerateToken("secret", Claims{UserID: 1, Username: "a", Role: RoleEmployee}, -time.Minute)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	badRole, err := GenerateToken("secret", Claims{UserID: 1, Username: "a", Role: "root"}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{name: "wrong secret", secret: "other", token: valid},
		{name: "expired", secret: "secret", token: expired},
		{name: "unknown role", secret: "secret", token: badRole},
		{name: "garbage", secret: "secret", token: "not-a-token"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseToken(tc.secret, tc.token); err == nil {
				t.Fatal("expected parse error")
			}
		})
	}
}
