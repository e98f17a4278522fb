package jwt

import (
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	j := NewJWT("test-secret", time.Minute, time.Hour)

	token, err := j.GenerateAccessToken(42)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := j.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("userID = %d, want 42", claims.UserID)
	}
	if claims.Refresh {
		t.Fatal("access token carries the refresh flag")
	}
}

func TestRefreshTokenCarriesFlag(t *testing.T) {
	j := NewJWT("test-secret", time.Minute, time.Hour)

	token, err := j.GenerateRefreshToken(7)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := j.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !claims.Refresh {
		t.Fatal("refresh token missing the refresh flag")
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := NewJWT("secret-a", time.Minute, time.Hour)
	verifier := NewJWT("secret-b", time.Minute, time.Hour)

	token, err := issuer.GenerateAccessToken(1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := verifier.ValidateToken(token); err == nil {
		t.Fatal("token signed with another secret validated")
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	j := NewJWT("test-secret", -time.Minute, time.Hour)

	token, err := j.GenerateAccessToken(1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := j.ValidateToken(token); err == nil {
		t.Fatal("expired token validated")
	}
}
