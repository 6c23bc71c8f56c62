package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lumina-backend/application/ports"
	"lumina-backend/domain/entities"
	"lumina-backend/pkg/auth"
	"lumina-backend/pkg/common"
	apperrors "lumina-backend/pkg/errors"
)

// AuthService is the session pipeline: login mints a session row and a
// token referencing it, resolution walks token to session to user, and
// logout revokes the row so the token dies with it.
type AuthService struct {
	users    *UserService
	sessions ports.SessionRepository
	tokens   *auth.TokenIssuer
	limiter  *auth.LoginLimiter
	logger   *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	users *UserService,
	sessions ports.SessionRepository,
	tokens *auth.TokenIssuer,
	limiter *auth.LoginLimiter,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		limiter:  limiter,
		logger:   logger,
	}
}

// LoginResult carries the outcome of a successful login.
type LoginResult struct {
	Token     string         `json:"token"`
	ExpiresAt string         `json:"expiresAt"`
	User      *entities.User `json:"user"`
}

// Login checks credentials, creates a session and returns its token.
// clientKey identifies the caller for attempt throttling.
func (s *AuthService) Login(ctx context.Context, email, password, clientKey string) (*LoginResult, error) {
	if s.limiter != nil && clientKey != "" && !s.limiter.Allow(clientKey) {
		return nil, apperrors.NewUnauthorizedError("too many login attempts, try again later")
	}

	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	expires := now.Add(s.tokens.TTL())
	session := &entities.Session{
		SessionID: uuid.New().String(),
		UserID:    user.UserID,
		Email:     user.Email,
		CreatedAt: now.Format(time.RFC3339),
		ExpiresAt: expires.Format(time.RFC3339),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(session.SessionID, user.UserID, now)
	if err != nil {
		return nil, err
	}

	if s.limiter != nil && clientKey != "" {
		s.limiter.Reset(clientKey)
	}
	s.logger.Info("User logged in",
		zap.String("userID", user.UserID),
		zap.String("sessionID", session.SessionID),
	)

	return &LoginResult{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      user,
	}, nil
}

// Resolve is the single identity resolution path. Every authenticated
// entry point, the HTTP middleware and the Lambda authorizer alike, goes
// through here; there is no second, subtly different version to drift.
func (s *AuthService) Resolve(ctx context.Context, token string) (common.Identity, error) {
	sessionID, userID, err := s.tokens.Parse(token)
	if err != nil {
		return common.Identity{}, err
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return common.Identity{}, apperrors.NewUnauthorizedError("session expired or revoked")
		}
		return common.Identity{}, err
	}
	if session.UserID != userID {
		return common.Identity{}, apperrors.NewUnauthorizedError("session does not match token")
	}

	user, err := s.users.Get(ctx, session.UserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return common.Identity{}, apperrors.NewUnauthorizedError("account no longer exists")
		}
		return common.Identity{}, err
	}
	if !user.IsActive {
		return common.Identity{}, apperrors.NewUnauthorizedError("account is deactivated")
	}

	return common.Identity{
		UserID:    user.UserID,
		Email:     user.Email,
		Role:      user.Role,
		SessionID: session.SessionID,
	}, nil
}

// Logout revokes a session. Idempotent; logging out twice is fine.
func (s *AuthService) Logout(ctx context.Context, identity common.Identity) error {
	if err := s.sessions.Delete(ctx, identity.SessionID); err != nil {
		return err
	}
	s.logger.Info("User logged out",
		zap.String("userID", identity.UserID),
		zap.String("sessionID", identity.SessionID),
	)
	return nil
}
