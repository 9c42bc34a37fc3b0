package middleware

import (
	"context"
	"testing"
)

func TestCheckAdminAccessEmptyEmail(t *testing.T) {
	decision, reason := CheckAdminAccess(context.Background(), "")
	if decision != AdminUnauthorized {
		t.Fatalf("expected AdminUnauthorized, got %v", decision)
	}
	if reason == "" {
		t.Fatalf("expected a reason for the denial")
	}
}
