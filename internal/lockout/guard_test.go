package lockout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/authkeep/authkeep/internal/audit/domain"
)

// fakeAuditRepo serves canned failure timestamps per (tenant, subject).
type fakeAuditRepo struct {
	failures map[string][]time.Time
	err      error
}

func (f *fakeAuditRepo) GetByID(ctx context.Context, tenantID, id string) (*domain.AuditLog, error) {
	return nil, nil
}

func (f *fakeAuditRepo) ListByTenant(ctx context.Context, tenantID string, limit, offset int32) ([]*domain.AuditLog, error) {
	return nil, nil
}

func (f *fakeAuditRepo) Create(ctx context.Context, a *domain.AuditLog) error {
	return nil
}

func (f *fakeAuditRepo) FailureTimes(ctx context.Context, tenantID, action, subject string, since time.Time) ([]time.Time, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []time.Time
	for _, ts := range f.failures[tenantID+"/"+subject] {
		if ts.After(since) {
			out = append(out, ts)
		}
	}
	return out, nil
}

func newTestGuard(repo *fakeAuditRepo, now time.Time) *Guard {
	g := NewGuard(repo, 5, 15*time.Minute, 15*time.Minute)
	g.nowF = func() time.Time { return now }
	return g
}

func failuresEvery(now time.Time, n int, gap time.Duration) []time.Time {
	// newest first, matching the repository query contract
	out := make([]time.Time, n)
	for i := 0; i < n; i++ {
		out[i] = now.Add(-time.Duration(i+1) * gap)
	}
	return out
}

func TestGuard_Check_BelowThreshold(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakeAuditRepo{failures: map[string][]time.Time{
		"tenant-1/user@example.com": failuresEvery(now, 4, time.Minute),
	}}
	g := newTestGuard(repo, now)

	st, err := g.Check(context.Background(), "tenant-1", "user@example.com")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if st.Locked {
		t.Error("locked below threshold")
	}
}

func TestGuard_Check_AtThresholdLocks(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakeAuditRepo{failures: map[string][]time.Time{
		"tenant-1/user@example.com": failuresEvery(now, 5, time.Minute),
	}}
	g := newTestGuard(repo, now)

	st, err := g.Check(context.Background(), "tenant-1", "user@example.com")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !st.Locked {
		t.Fatal("expected locked at threshold")
	}
	wantUnlock := now.Add(-time.Minute).Add(15 * time.Minute)
	if !st.UnlockAt.Equal(wantUnlock) {
		t.Errorf("unlock_at = %v, want %v", st.UnlockAt, wantUnlock)
	}
}

func TestGuard_Check_OldFailuresOutsideWindow(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakeAuditRepo{failures: map[string][]time.Time{
		// 5 failures but all older than the 15m window
		"tenant-1/user@example.com": failuresEvery(now.Add(-20*time.Minute), 5, time.Minute),
	}}
	g := newTestGuard(repo, now)

	st, err := g.Check(context.Background(), "tenant-1", "user@example.com")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if st.Locked {
		t.Error("failures outside window should not lock")
	}
}

func TestGuard_Check_LockExpiresLazily(t *testing.T) {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakeAuditRepo{failures: map[string][]time.Time{
		"tenant-1/user@example.com": failuresEvery(base, 5, time.Second),
	}}

	// Shorter lockDuration than window: failures stay in the window while the
	// lock runs out, so the expiry path is exercised.
	g := NewGuard(repo, 5, 15*time.Minute, time.Minute)
	g.nowF = func() time.Time { return base.Add(2 * time.Minute) }

	st, err := g.Check(context.Background(), "tenant-1", "user@example.com")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if st.Locked {
		t.Errorf("lock should have expired, unlock_at=%v", st.UnlockAt)
	}
}

func TestGuard_Check_TenantScoped(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakeAuditRepo{failures: map[string][]time.Time{
		"tenant-1/user@example.com": failuresEvery(now, 5, time.Minute),
	}}
	g := newTestGuard(repo, now)

	st, err := g.Check(context.Background(), "tenant-2", "user@example.com")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if st.Locked {
		t.Error("failures in another tenant must not lock this tenant")
	}
}

func TestGuard_CheckBoth_EitherKeyLocks(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakeAuditRepo{failures: map[string][]time.Time{
		"tenant-1/203.0.113.9": failuresEvery(now, 5, time.Minute),
	}}
	g := newTestGuard(repo, now)

	st, err := g.CheckBoth(context.Background(), "tenant-1", "user@example.com", "203.0.113.9")
	if err != nil {
		t.Fatalf("CheckBoth: %v", err)
	}
	if !st.Locked {
		t.Error("IP lock should block even when identity key is clean")
	}
}

func TestGuard_CheckBoth_IndependentKeys(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakeAuditRepo{failures: map[string][]time.Time{
		"tenant-1/user@example.com": failuresEvery(now, 2, time.Minute),
		"tenant-1/203.0.113.9":      failuresEvery(now, 3, time.Minute),
	}}
	g := newTestGuard(repo, now)

	st, err := g.CheckBoth(context.Background(), "tenant-1", "user@example.com", "203.0.113.9")
	if err != nil {
		t.Fatalf("CheckBoth: %v", err)
	}
	if st.Locked {
		t.Error("counts must not combine across keys")
	}
}

func TestGuard_Check_EmptyKey(t *testing.T) {
	g := newTestGuard(&fakeAuditRepo{}, time.Now())
	st, err := g.Check(context.Background(), "tenant-1", "")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if st.Locked {
		t.Error("empty key must never lock")
	}
}

func TestGuard_Check_RepoError(t *testing.T) {
	repo := &fakeAuditRepo{err: errors.New("db down")}
	g := newTestGuard(repo, time.Now())
	if _, err := g.Check(context.Background(), "tenant-1", "user@example.com"); err == nil {
		t.Fatal("expected error")
	}
}

func TestGuard_JustLocked(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakeAuditRepo{failures: map[string][]time.Time{
		"tenant-1/user@example.com":  failuresEvery(now, 5, time.Minute),
		"tenant-1/other@example.com": failuresEvery(now, 6, time.Minute),
	}}
	g := newTestGuard(repo, now)

	just, err := g.JustLocked(context.Background(), "tenant-1", "user@example.com")
	if err != nil {
		t.Fatalf("JustLocked: %v", err)
	}
	if !just {
		t.Error("5th failure should report the lock transition")
	}

	just, err = g.JustLocked(context.Background(), "tenant-1", "other@example.com")
	if err != nil {
		t.Fatalf("JustLocked: %v", err)
	}
	if just {
		t.Error("6th failure is past the transition, not at it")
	}
}

func TestNormalizeIdentity(t *testing.T) {
	if got := NormalizeIdentity("  User@Example.COM "); got != "user@example.com" {
		t.Errorf("NormalizeIdentity = %q", got)
	}
}
