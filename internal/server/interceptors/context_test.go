package interceptors

import (
	"context"
	"testing"
)

func TestWithIdentity_SetsAllValues(t *testing.T) {
	ctx := WithIdentity(context.Background(), "user-1", "tenant-1", "session-1")

	userID, ok := GetUserID(ctx)
	if !ok || userID != "user-1" {
		t.Errorf("GetUserID = %q, %v", userID, ok)
	}
	tenantID, ok := GetTenantID(ctx)
	if !ok || tenantID != "tenant-1" {
		t.Errorf("GetTenantID = %q, %v", tenantID, ok)
	}
	sessionID, ok := GetSessionID(ctx)
	if !ok || sessionID != "session-1" {
		t.Errorf("GetSessionID = %q, %v", sessionID, ok)
	}
}

func TestGetters_UnsetContext(t *testing.T) {
	ctx := context.Background()
	if v, ok := GetUserID(ctx); ok || v != "" {
		t.Errorf("GetUserID = %q, %v", v, ok)
	}
	if v, ok := GetTenantID(ctx); ok || v != "" {
		t.Errorf("GetTenantID = %q, %v", v, ok)
	}
	if v, ok := GetSessionID(ctx); ok || v != "" {
		t.Errorf("GetSessionID = %q, %v", v, ok)
	}
	if v, ok := GetClientIP(ctx); ok || v != "" {
		t.Errorf("GetClientIP = %q, %v", v, ok)
	}
}

func TestWithClientIP(t *testing.T) {
	ctx := WithClientIP(context.Background(), "203.0.113.9")
	ip, ok := GetClientIP(ctx)
	if !ok || ip != "203.0.113.9" {
		t.Errorf("GetClientIP = %q, %v", ip, ok)
	}
}
