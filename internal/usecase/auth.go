package usecase

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/argon2"

	"binna-crm/internal/domain"
)

// argon2id parameters.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// Auth handles account registration and opaque-token login sessions.
type Auth struct {
	users      domain.UserStore
	sessions   domain.SessionStore
	sessionTTL time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewAuth creates the auth use case.
func NewAuth(users domain.UserStore, sessions domain.SessionStore, sessionTTL time.Duration, logger *slog.Logger) *Auth {
	return &Auth{
		users:      users,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Register creates a new account. The username must be unique.
func (a *Auth) Register(ctx context.Context, username, email, password, firstName, businessDescription string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, domain.NewDomainError("Auth.Register", domain.ErrInvalidInput, "username and password are required")
	}
	if existing, err := a.users.GetUserByUsername(ctx, username); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.WrapOp("Auth.Register", err)
	} else if existing != nil {
		return nil, domain.NewDomainError("Auth.Register", domain.ErrDuplicate, username)
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return nil, domain.WrapOp("Auth.Register", err)
	}

	u := &domain.User{
		Username:            username,
		Email:               email,
		FirstName:           firstName,
		BusinessDescription: businessDescription,
		HashedPassword:      hashed,
	}
	if err := a.users.CreateUser(ctx, u); err != nil {
		return nil, domain.WrapOp("Auth.Register", err)
	}
	a.logger.Info("user registered", "user_id", u.ID, "username", username)
	return u, nil
}

// Login verifies credentials and creates a session, returning its token.
// Wrong username, wrong password and disabled accounts are all reported as
// domain.ErrAuthInvalid so callers cannot probe for accounts.
func (a *Auth) Login(ctx context.Context, username, password string) (*domain.UserSession, error) {
	u, err := a.users.GetUserByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewDomainError("Auth.Login", domain.ErrAuthInvalid, "")
	}
	if err != nil {
		return nil, domain.WrapOp("Auth.Login", err)
	}
	if u.Disabled || !VerifyPassword(password, u.HashedPassword) {
		return nil, domain.NewDomainError("Auth.Login", domain.ErrAuthInvalid, "")
	}

	s := &domain.UserSession{
		Token:     ulid.Make().String(),
		UserID:    u.ID,
		ExpiresAt: a.now().Add(a.sessionTTL),
	}
	if err := a.sessions.CreateSession(ctx, s); err != nil {
		return nil, domain.WrapOp("Auth.Login", err)
	}
	a.logger.Info("user logged in", "user_id", u.ID)
	return s, nil
}

// Authenticate resolves a session token to its user. Expired sessions are
// deleted on sight.
func (a *Auth) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	s, err := a.sessions.GetSession(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewDomainError("Auth.Authenticate", domain.ErrAuthInvalid, "")
	}
	if err != nil {
		return nil, domain.WrapOp("Auth.Authenticate", err)
	}
	if a.now().After(s.ExpiresAt) {
		if err := a.sessions.DeleteSession(ctx, token); err != nil {
			a.logger.Warn("expired session not deleted", "error", err)
		}
		return nil, domain.NewDomainError("Auth.Authenticate", domain.ErrAuthInvalid, "session expired")
	}

	u, err := a.users.GetUser(ctx, s.UserID)
	if err != nil {
		return nil, domain.WrapOp("Auth.Authenticate", err)
	}
	if u.Disabled {
		return nil, domain.NewDomainError("Auth.Authenticate", domain.ErrAuthInvalid, "")
	}
	return u, nil
}

// Logout deletes the session for the given token.
func (a *Auth) Logout(ctx context.Context, token string) error {
	return domain.WrapOp("Auth.Logout", a.sessions.DeleteSession(ctx, token))
}

// HashPassword derives an argon2id hash in the standard encoded form.
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword checks a password against an encoded argon2id hash in
// constant time. Malformed hashes verify as false.
func VerifyPassword(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var memory, timeCost uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &threads); err != nil {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	got := argon2.IDKey([]byte(password), salt, timeCost, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}
