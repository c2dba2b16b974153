package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testSecret = "test-secret-for-review-service-tokens-0123456789"

func TestGenerateAndValidate(t *testing.T) {
	tm, err := NewTokenManager(testSecret, time.Hour, false)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}

	token, err := tm.Generate(7, "critic", "user")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	claims, err := tm.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserAccountID != 7 || claims.Nickname != "critic" || claims.Role != "user" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Subject != "7" {
		t.Fatalf("expected subject 7, got %q", claims.Subject)
	}
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	issuerTM, _ := NewTokenManager(testSecret, time.Hour, false)
	otherTM, _ := NewTokenManager(strings.Repeat("x", 40), time.Hour, false)

	token, err := issuerTM.Generate(1, "a", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := otherTM.Validate(token); err == nil {
		t.Fatal("expected signature mismatch")
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	tm, _ := NewTokenManager(testSecret, time.Minute, false)
	m := tm.(*jwtManager)
	issued := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issued }
	token, err := tm.Generate(3, "late", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	m.now = time.Now
	if _, err := tm.Validate(token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestNewTokenManagerSecretChecks(t *testing.T) {
	if _, err := NewTokenManager("", time.Hour, true); err == nil {
		t.Fatal("expected empty secret error")
	}
	if _, err := NewTokenManager("short", time.Hour, false); !errors.Is(err, ErrShortSecret) {
		t.Fatalf("expected ErrShortSecret, got %v", err)
	}
	if _, err := NewTokenManager("short", time.Hour, true); err != nil {
		t.Fatalf("short secret allowed in dev: %v", err)
	}
	if _, err := NewTokenManager(testSecret, 0, false); err == nil {
		t.Fatal("expected duration error")
	}
}

func TestGenerateRejectsMissingAccount(t *testing.T) {
	tm, _ := NewTokenManager(testSecret, time.Hour, false)
	if _, err := tm.Generate(0, "nobody", ""); err == nil {
		t.Fatal("expected error for account 0")
	}
}
