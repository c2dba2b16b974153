package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/pkg/auth"
)

const testSecret = "service-test-secret-service-test-secret"

func TestTokenMint(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)
	t.Setenv("JWT_TOKEN_DURATION", "1h")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "mint", "--user-id", "21", "--nickname", "reviewer"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	tm, err := auth.NewTokenManager(testSecret, time.Hour, false)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	claims, err := tm.Validate(strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserAccountID != 21 || claims.Nickname != "reviewer" || claims.Role != "user" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestTokenMintRequiresFlags(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)

	for _, args := range [][]string{
		{"token", "mint", "--nickname", "x"},
		{"token", "mint", "--user-id", "3"},
	} {
		cmd := newRootCommand()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs(args)
		if err := cmd.Execute(); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestInvalidConfigFailsBeforeRunning(t *testing.T) {
	t.Setenv("REVIEW_SERVICE_HTTP_PORT", "not-a-port")

	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"token", "mint", "--user-id", "1", "--nickname", "x"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected config error")
	}
}
