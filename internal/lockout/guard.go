// Package lockout implements brute-force protection over the audit log.
// The guard keeps no state of its own: it recomputes windowed failure counts
// from login_failure audit events on every check, so locks expire lazily and
// no background sweep is needed.
package lockout

import (
	"context"
	"strings"
	"time"

	auditdomain "github.com/authkeep/authkeep/internal/audit/domain"
	auditrepo "github.com/authkeep/authkeep/internal/audit/repository"
)

// Status is the result of a lockout check for one key.
type Status struct {
	Locked   bool
	UnlockAt time.Time
}

// Guard evaluates lockout state for identity and IP keys within a tenant.
// A lock on the IP does not imply a lock on the email and vice versa; callers
// check both keys before attempting authentication.
type Guard struct {
	repo         auditrepo.Repository
	maxAttempts  int
	window       time.Duration
	lockDuration time.Duration
	nowF         func() time.Time
}

// NewGuard returns a Guard that reads failures from repo.
// maxAttempts is the failure count at which the key locks, window is the
// sliding interval the failures must fall in, and lockDuration is how long
// the lock holds from the newest counted failure.
func NewGuard(repo auditrepo.Repository, maxAttempts int, window, lockDuration time.Duration) *Guard {
	return &Guard{
		repo:         repo,
		maxAttempts:  maxAttempts,
		window:       window,
		lockDuration: lockDuration,
		nowF:         func() time.Time { return time.Now().UTC() },
	}
}

// NormalizeIdentity canonicalizes an email for use as a lockout key.
func NormalizeIdentity(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Check reports the lockout status of a single key (normalized email or IP)
// within the tenant. The window slides from now; failures older than the
// window never count, so a lock decays without any state change.
func (g *Guard) Check(ctx context.Context, tenantID, key string) (Status, error) {
	if key == "" {
		return Status{}, nil
	}
	now := g.nowF()
	times, err := g.repo.FailureTimes(ctx, tenantID, auditdomain.ActionLoginFailure, key, now.Add(-g.window))
	if err != nil {
		return Status{}, err
	}
	if len(times) < g.maxAttempts {
		return Status{}, nil
	}
	// times is newest first; the lock runs from the newest failure.
	unlockAt := times[0].Add(g.lockDuration)
	if !now.Before(unlockAt) {
		return Status{}, nil
	}
	return Status{Locked: true, UnlockAt: unlockAt}, nil
}

// CheckBoth evaluates both the identity key and the IP key and returns the
// first lock found. Either key alone is enough to block the attempt.
func (g *Guard) CheckBoth(ctx context.Context, tenantID, identityKey, ipKey string) (Status, error) {
	st, err := g.Check(ctx, tenantID, identityKey)
	if err != nil || st.Locked {
		return st, err
	}
	return g.Check(ctx, tenantID, ipKey)
}

// JustLocked reports whether the failure that was just recorded is the one
// that crossed the threshold, so the caller can emit a single account_locked
// audit event at the transition instead of on every subsequent check.
func (g *Guard) JustLocked(ctx context.Context, tenantID, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	now := g.nowF()
	times, err := g.repo.FailureTimes(ctx, tenantID, auditdomain.ActionLoginFailure, key, now.Add(-g.window))
	if err != nil {
		return false, err
	}
	return len(times) == g.maxAttempts, nil
}
