// Package auth validates credentials, issues access/refresh token pairs and
// exposes the profile operations that ride on an authenticated identity.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"soscancer.org/internal/obs"
	"soscancer.org/internal/rbac"
	"soscancer.org/internal/user"
)

const (
	defaultIssuer     = "soscancer"
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// dummyHash absorbs a bcrypt comparison when the email is unknown, so login
// latency does not reveal whether an account exists.
const dummyHash = "$2a$12$C6UzMDM.H6dfI/f/IKcEeO5oTWfqdW5IXXPzMO9/6hDUZFtq1uRxi"

// Service implements the authentication flows over a user.Repository.
type Service struct {
	users      user.Repository
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// Option configures Service behavior.
type Option func(*Service) error

// WithIssuer overrides the token issuer claim.
func WithIssuer(issuer string) Option {
	return func(s *Service) error {
		if v := strings.TrimSpace(issuer); v != "" {
			s.issuer = v
		}
		return nil
	}
}

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) Option {
	return func(s *Service) error {
		if ttl > 0 {
			s.accessTTL = ttl
		}
		return nil
	}
}

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) Option {
	return func(s *Service) error {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
		return nil
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewService constructs the auth service. The signing secret is required.
func NewService(users user.Repository, secret string, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, errors.New("user repository is required")
	}
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret is not configured")
	}
	s := &Service{
		users:      users,
		secret:     []byte(secret),
		issuer:     defaultIssuer,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// TokenResponse is the wire shape returned by login and register. The
// user_* fields are denormalized for client convenience.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	UserEmail    string    `json:"user_email"`
	UserRole     rbac.Role `json:"user_role"`
}

// RefreshResponse carries the re-issued access token.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// Login verifies credentials and issues a token pair. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (TokenResponse, error) {
	email = user.NormalizeEmail(email)
	if email == "" || password == "" {
		return TokenResponse{}, ErrInvalidCredentials
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return TokenResponse{}, err
	}
	if u == nil {
		// Burn the same bcrypt cost as a real mismatch.
		_ = user.VerifyPassword(dummyHash, password)
		obs.CountLogin("denied")
		return TokenResponse{}, ErrInvalidCredentials
	}
	if err := user.VerifyPassword(u.PasswordHash, password); err != nil {
		obs.CountLogin("denied")
		return TokenResponse{}, ErrInvalidCredentials
	}
	obs.CountLogin("ok")
	return s.issuePair(u)
}

// Register creates the user and immediately issues tokens, so registration
// doubles as a login.
func (s *Service) Register(ctx context.Context, input user.CreateInput) (TokenResponse, error) {
	u, err := user.New(input)
	if err != nil {
		return TokenResponse{}, err
	}
	if err := s.users.Create(ctx, u); err != nil {
		return TokenResponse{}, err
	}
	return s.issuePair(u)
}

// Refresh validates a refresh token and re-issues an access token. The user
// is re-fetched so the new token carries the current role, not the one
// embedded when the refresh token was minted.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (RefreshResponse, error) {
	claims, err := s.parseToken(refreshToken, tokenTypeRefresh)
	if err != nil {
		return RefreshResponse{}, ErrInvalidToken
	}
	u, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return RefreshResponse{}, ErrInvalidToken
		}
		return RefreshResponse{}, err
	}
	access, _, err := s.signToken(u.ID, u.Email, u.Role, tokenTypeAccess, s.accessTTL)
	if err != nil {
		return RefreshResponse{}, err
	}
	return RefreshResponse{AccessToken: access}, nil
}

// VerifyAccessToken validates a bearer token and returns the principal it
// asserts. No store lookup happens here; the role is trusted as issued.
func (s *Service) VerifyAccessToken(token string) (Principal, error) {
	claims, err := s.parseToken(token, tokenTypeAccess)
	if err != nil {
		return Principal{}, err
	}
	return Principal{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

// Profile returns the public view of the user.
func (s *Service) Profile(ctx context.Context, userID string) (user.Profile, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return user.Profile{}, err
	}
	return u.Profile(), nil
}

// UpdateProfile applies a partial patch. The patch type has no password
// field; password changes must go through ChangePassword.
func (s *Service) UpdateProfile(ctx context.Context, userID string, patch user.UpdateInput) (user.Profile, error) {
	u, err := s.users.Update(ctx, userID, patch)
	if err != nil {
		return user.Profile{}, err
	}
	return u.Profile(), nil
}

// ChangePassword re-verifies the current password before accepting the new
// one. Mismatch maps to user.ErrWrongPassword.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	return s.users.ChangePassword(ctx, userID, current, next)
}

func (s *Service) issuePair(u *user.User) (TokenResponse, error) {
	access, _, err := s.signToken(u.ID, u.Email, u.Role, tokenTypeAccess, s.accessTTL)
	if err != nil {
		return TokenResponse{}, err
	}
	refresh, _, err := s.signToken(u.ID, u.Email, u.Role, tokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		UserID:       u.ID,
		UserName:     u.Name,
		UserEmail:    u.Email,
		UserRole:     u.Role,
	}, nil
}
