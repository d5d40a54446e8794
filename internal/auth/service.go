package auth

import (
	"context"
	"strings"
	"time"

	"github.com/mkowalczyk/terrastock-backend/internal/users"
	"github.com/mkowalczyk/terrastock-backend/pkg/auth"
	"github.com/mkowalczyk/terrastock-backend/pkg/auth/session"
	"github.com/mkowalczyk/terrastock-backend/pkg/config"
	pkgerrors "github.com/mkowalczyk/terrastock-backend/pkg/errors"
	"github.com/mkowalczyk/terrastock-backend/pkg/logger"
	"github.com/mkowalczyk/terrastock-backend/pkg/security"
)

// SessionStore opens and revokes the server-side session markers backing
// issued tokens. Satisfied by session.Manager.
type SessionStore interface {
	Create(ctx context.Context, accessID string) error
	Revoke(ctx context.Context, accessID string) error
}

// Service handles the login and logout flow. Tokens are stateless JWTs paired
// with a server-side session marker so logout revokes immediately.
type Service struct {
	users    *users.Repository
	sessions SessionStore
	jwtCfg   config.JWTConfig
	logg     *logger.Logger
	now      func() time.Time
}

type ServiceParams struct {
	Users    *users.Repository
	Sessions SessionStore
	JWTCfg   config.JWTConfig
	Logger   *logger.Logger
}

func NewService(p ServiceParams) *Service {
	return &Service{
		users:    p.Users,
		sessions: p.Sessions,
		jwtCfg:   p.JWTCfg,
		logg:     p.Logger,
		now:      time.Now,
	}
}

// invalidCredentials is returned for every authentication failure so the
// response does not leak whether the email exists.
func invalidCredentials() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}

// Login verifies the credentials, records the login time, mints an access
// token and opens a server-side session for it.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, invalidCredentials()
	}
	if !user.IsActive {
		return nil, invalidCredentials()
	}

	ok, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, invalidCredentials()
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logg.Warn(ctx, "recording last login failed: "+err.Error())
	}

	accessID := session.NewAccessID()
	token, err := auth.MintAccessToken(s.jwtCfg, now, auth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}
	if err := s.sessions.Create(ctx, accessID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating session")
	}

	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "user logged in")

	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute / time.Second),
		User: UserDTO{
			ID:          user.ID.String(),
			Email:       user.Email,
			DisplayName: user.DisplayName,
			LastLoginAt: &now,
		},
	}, nil
}

// Logout revokes the session behind the presented token. Revoking an already
// revoked session succeeds.
func (s *Service) Logout(ctx context.Context, accessID string) error {
	if accessID == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoking session")
	}
	return nil
}
