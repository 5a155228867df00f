package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/authkeep/authkeep/internal/apperr"
	"github.com/authkeep/authkeep/internal/audit"
	auditdomain "github.com/authkeep/authkeep/internal/audit/domain"
	identitydomain "github.com/authkeep/authkeep/internal/identity/domain"
	"github.com/authkeep/authkeep/internal/lockout"
	"github.com/authkeep/authkeep/internal/security"
	"github.com/authkeep/authkeep/internal/server/interceptors"
	sessiondomain "github.com/authkeep/authkeep/internal/session/domain"
	sessionservice "github.com/authkeep/authkeep/internal/session/service"
	tenantdomain "github.com/authkeep/authkeep/internal/tenant/domain"
	userdomain "github.com/authkeep/authkeep/internal/user/domain"
)

// Sentinel errors for the auth service; the transport layer maps them to
// status codes. All credential failure modes collapse into
// ErrInvalidCredentials so callers cannot probe which accounts exist.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidRefreshToken    = errors.New("invalid or expired refresh token")
	ErrRefreshTokenReuse      = errors.New("refresh token reuse detected; all sessions revoked")
	ErrAccountLocked          = errors.New("account temporarily locked")
	ErrMFARequired            = errors.New("totp code required")
)

// AuthResult holds the outcome of Register (user_id only), Login, or Refresh.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UserID       string
	TenantID     string
	SessionID    string
}

// TenantRepo is the minimal tenant repository needed by the auth service.
type TenantRepo interface {
	GetByID(ctx context.Context, id string) (*tenantdomain.Tenant, error)
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByEmail(ctx context.Context, tenantID, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// IdentityRepo is the minimal identity repository needed by the auth service.
type IdentityRepo interface {
	GetByUserAndProvider(ctx context.Context, tenantID, userID string, provider identitydomain.IdentityProvider) (*identitydomain.Identity, error)
	Create(ctx context.Context, i *identitydomain.Identity) error
}

// Sessions is the session lifecycle surface the auth service drives.
type Sessions interface {
	Create(ctx context.Context, tenantID, userID, refreshJti, refreshHash string, meta sessionservice.DeviceMeta) (*sessiondomain.Session, error)
	GetByRefreshHash(ctx context.Context, tenantID, hash string) (*sessiondomain.Session, error)
	RotateRefresh(ctx context.Context, tenantID, id, jti, hash string) error
	Revoke(ctx context.Context, tenantID, id string) error
	RevokeAllForUser(ctx context.Context, tenantID, userID string) error
	Touch(ctx context.Context, tenantID, id string) error
}

// LockoutGuard gates login attempts on windowed failure counts.
type LockoutGuard interface {
	CheckBoth(ctx context.Context, tenantID, identityKey, ipKey string) (lockout.Status, error)
	JustLocked(ctx context.Context, tenantID, key string) (bool, error)
}

// TOTPVerifier checks a login-time TOTP code.
type TOTPVerifier interface {
	VerifyCode(ctx context.Context, tenantID, userID, code string) error
}

// AuthService implements register, login with lockout and MFA gates,
// refresh-token rotation with reuse detection, and logout.
type AuthService struct {
	tenantRepo   TenantRepo
	userRepo     UserRepo
	identityRepo IdentityRepo
	sessions     Sessions
	guard        LockoutGuard
	totp         TOTPVerifier
	hasher       *security.Hasher
	tokens       *security.TokenProvider
	auditLog     audit.AuditLogger
}

// NewAuthService returns an AuthService with the given dependencies.
// totp and auditLog may be nil; then MFA is skipped and events are not recorded.
func NewAuthService(
	tenantRepo TenantRepo,
	userRepo UserRepo,
	identityRepo IdentityRepo,
	sessions Sessions,
	guard LockoutGuard,
	totp TOTPVerifier,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	auditLog audit.AuditLogger,
) *AuthService {
	return &AuthService{
		tenantRepo:   tenantRepo,
		userRepo:     userRepo,
		identityRepo: identityRepo,
		sessions:     sessions,
		guard:        guard,
		totp:         totp,
		hasher:       hasher,
		tokens:       tokens,
		auditLog:     auditLog,
	}
}

// Register creates a user and local identity within the tenant.
// Returns AuthResult with UserID only; the caller logs in to get tokens.
func (s *AuthService) Register(ctx context.Context, tenantID, email, password, name string) (*AuthResult, error) {
	email = lockout.NormalizeIdentity(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil || tenant.Status != tenantdomain.TenantStatusActive {
		return nil, apperr.NotFound("tenant")
	}
	existing, err := s.userRepo.GetByEmail(ctx, tenantID, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	userID := uuid.New().String()
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:        userID,
		TenantID:  tenantID,
		Email:     email,
		Name:      strings.TrimSpace(name),
		Status:    userdomain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	identity := &identitydomain.Identity{
		ID:           uuid.New().String(),
		TenantID:     tenantID,
		UserID:       userID,
		Provider:     identitydomain.IdentityProviderLocal,
		ProviderID:   email,
		PasswordHash: hashed,
		CreatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.identityRepo.Create(ctx, identity); err != nil {
		return nil, err
	}
	return &AuthResult{UserID: userID, TenantID: tenantID}, nil
}

// Login authenticates email/password (and TOTP when enrolled) within the
// tenant, creates a session under the per-user cap, and returns an access
// token plus an opaque refresh token. The lockout guard runs before any
// credential work so locked keys cannot be brute-forced or probed.
func (s *AuthService) Login(ctx context.Context, tenantID, email, password, totpCode string, meta sessionservice.DeviceMeta) (*AuthResult, error) {
	email = lockout.NormalizeIdentity(email)
	tenantID = strings.TrimSpace(tenantID)
	if email == "" || password == "" || tenantID == "" {
		return nil, ErrInvalidCredentials
	}

	// Resolve the client IP once: prefer the caller-supplied device metadata,
	// fall back to what the auth interceptor resolved. The lockout key and
	// the IP stamped on audited rows must come from the same value.
	ip := strings.TrimSpace(meta.IPAddress)
	if ip == "" {
		ip, _ = interceptors.GetClientIP(ctx)
	}
	meta.IPAddress = ip
	if ip != "" {
		ctx = interceptors.WithClientIP(ctx, ip)
	}

	st, err := s.guard.CheckBoth(ctx, tenantID, email, ip)
	if err != nil {
		return nil, err
	}
	if st.Locked {
		return nil, ErrAccountLocked
	}

	user, err := s.userRepo.GetByEmail(ctx, tenantID, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status != userdomain.UserStatusActive {
		return nil, s.loginFailed(ctx, tenantID, "", email, ip)
	}
	ident, err := s.identityRepo.GetByUserAndProvider(ctx, tenantID, user.ID, identitydomain.IdentityProviderLocal)
	if err != nil {
		return nil, err
	}
	if ident == nil || ident.PasswordHash == "" {
		return nil, s.loginFailed(ctx, tenantID, user.ID, email, ip)
	}
	if err := s.hasher.Compare(ident.PasswordHash, password); err != nil {
		return nil, s.loginFailed(ctx, tenantID, user.ID, email, ip)
	}
	if ident.TOTPEnabled {
		if s.totp == nil || totpCode == "" {
			return nil, ErrMFARequired
		}
		if err := s.totp.VerifyCode(ctx, tenantID, user.ID, totpCode); err != nil {
			return nil, s.loginFailed(ctx, tenantID, user.ID, email, ip)
		}
	}

	refreshToken, err := security.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	jti := uuid.New().String()
	sess, err := s.sessions.Create(ctx, tenantID, user.ID, jti, security.HashSecret(refreshToken), meta)
	if err != nil {
		return nil, err
	}
	accessToken, _, accessExp, err := s.tokens.IssueAccess(sess.ID, user.ID, tenantID)
	if err != nil {
		return nil, err
	}
	if s.auditLog != nil {
		s.auditLog.LogEvent(ctx, tenantID, user.ID, auditdomain.ActionLoginSuccess, "auth", email, "")
	}
	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExp,
		UserID:       user.ID,
		TenantID:     tenantID,
		SessionID:    sess.ID,
	}, nil
}

// Refresh validates the opaque refresh token, rotates it, and returns new
// tokens. A token matching only the previous rotation's hash is a replay:
// every session of the user is revoked and the caller gets
// ErrRefreshTokenReuse.
func (s *AuthService) Refresh(ctx context.Context, tenantID, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" || tenantID == "" {
		return nil, ErrInvalidRefreshToken
	}
	hash := security.HashSecret(refreshToken)
	sess, err := s.sessions.GetByRefreshHash(ctx, tenantID, hash)
	if err != nil {
		return nil, err
	}
	if sess == nil || !sess.IsActive(time.Now().UTC()) {
		return nil, ErrInvalidRefreshToken
	}
	if hash != sess.RefreshTokenHash {
		// Matched refresh_prev_hash: this token was already rotated out.
		if err := s.sessions.RevokeAllForUser(ctx, tenantID, sess.UserID); err != nil {
			return nil, err
		}
		return nil, ErrRefreshTokenReuse
	}

	_ = s.sessions.Touch(ctx, tenantID, sess.ID)
	newRefresh, err := security.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	newJti := uuid.New().String()
	if err := s.sessions.RotateRefresh(ctx, tenantID, sess.ID, newJti, security.HashSecret(newRefresh)); err != nil {
		return nil, err
	}
	accessToken, _, accessExp, err := s.tokens.IssueAccess(sess.ID, sess.UserID, tenantID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		ExpiresAt:    accessExp,
		UserID:       sess.UserID,
		TenantID:     tenantID,
		SessionID:    sess.ID,
	}, nil
}

// Logout revokes the session identified by the refresh token, or by the
// identity the auth interceptor put in context when no token is given.
// Unknown tokens are a no-op; logout never leaks whether a token was valid.
func (s *AuthService) Logout(ctx context.Context, tenantID, refreshToken string) error {
	if refreshToken != "" {
		sess, err := s.sessions.GetByRefreshHash(ctx, tenantID, security.HashSecret(refreshToken))
		if err != nil {
			return err
		}
		if sess == nil || sess.RevokedAt != nil {
			return nil
		}
		return s.sessions.Revoke(ctx, tenantID, sess.ID)
	}
	sessionID, ok := interceptors.GetSessionID(ctx)
	if !ok {
		return nil
	}
	if err := s.sessions.Revoke(ctx, tenantID, sessionID); err != nil && !apperr.IsNotFound(err) && !apperr.IsBusinessRule(err) {
		return err
	}
	return nil
}

// loginFailed records the failure against both lockout keys and emits the
// account_locked transition event when this attempt crossed the threshold.
// Always returns ErrInvalidCredentials.
func (s *AuthService) loginFailed(ctx context.Context, tenantID, userID, email, ip string) error {
	if s.auditLog != nil {
		s.auditLog.LogEvent(ctx, tenantID, userID, auditdomain.ActionLoginFailure, "auth", email, "")
	}
	keys := []string{email}
	if ip != "" {
		keys = append(keys, ip)
	}
	for _, key := range keys {
		just, err := s.guard.JustLocked(ctx, tenantID, key)
		if err == nil && just && s.auditLog != nil {
			s.auditLog.LogEvent(ctx, tenantID, userID, auditdomain.ActionAccountLocked, "auth", key, "")
		}
	}
	return ErrInvalidCredentials
}

func validateEmail(email string) error {
	if email == "" {
		return apperr.Validation("EMAIL_REQUIRED", "email is required")
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return apperr.Validation("EMAIL_INVALID", "invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 12 {
		return apperr.Validation("PASSWORD_TOO_SHORT", "password must be at least 12 characters")
	}
	var hasUpper, hasLower, hasNumber, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasNumber = true
		default:
			hasSymbol = true
		}
	}
	if !hasUpper || !hasLower || !hasNumber || !hasSymbol {
		return apperr.Validation("PASSWORD_TOO_WEAK", "password must contain upper and lower case letters, a number, and a symbol")
	}
	return nil
}
