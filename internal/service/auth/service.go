package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/mohd-abex/abex-okr/internal/access"
	"github.com/mohd-abex/abex-okr/internal/domain"
	"github.com/mohd-abex/abex-okr/internal/repository"
	"github.com/mohd-abex/abex-okr/pkg/config"
	"github.com/mohd-abex/abex-okr/pkg/crypto"
	jwtpkg "github.com/mohd-abex/abex-okr/pkg/jwt"
)

// Service resolves bearer credentials into verified identities and issues
// tokens at login. Everything downstream of it receives the identity as an
// explicit parameter.
type Service struct {
	users  repository.UserRepository
	logger *slog.Logger
	cfg    config.APIConfig
}

// New constructs a Service.
func New(users repository.UserRepository, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{users: users, logger: logger, cfg: cfg}
}

// TokenPair contains access and refresh tokens.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    time.Duration `json:"expires_in"`
}

// Login authenticates a user, records the activity and returns tokens.
func (s Service) Login(ctx context.Context, email, password string) (*domain.User, TokenPair, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, access.ErrUnauthenticated
		}
		return nil, TokenPair{}, fmt.Errorf("load user: %w", err)
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, TokenPair{}, access.ErrUnauthenticated
	}
	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if err := s.users.TouchUserActivity(ctx, user.ID); err != nil {
		s.logger.Warn("failed to record login activity", "user_id", user.ID, "error", err)
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return user, tokens, nil
}

// Authorize validates a bearer token and returns the caller's identity. The
// stored account is the source of truth for role, organization and team, so a
// stale token cannot widen a caller's scope.
func (s Service) Authorize(ctx context.Context, token string) (domain.Identity, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return domain.Identity{}, access.ErrUnauthenticated
	}
	claims, err := jwtpkg.Parse(trimmed, s.cfg.JWTSecret)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %s", access.ErrUnauthenticated, err)
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Identity{}, access.ErrUnauthenticated
		}
		return domain.Identity{}, fmt.Errorf("load user: %w", err)
	}
	if _, err := domain.ParseRole(string(user.Role)); err != nil {
		// Fail closed on roles the policy table does not know.
		return domain.Identity{}, fmt.Errorf("%w: %s", access.ErrUnauthenticated, err)
	}
	return domain.Identity{
		ID:             user.ID,
		OrganizationID: user.OrganizationID,
		TeamID:         user.TeamID,
		Role:           user.Role,
	}, nil
}

func (s Service) issueTokens(user *domain.User) (TokenPair, error) {
	claims := jwtpkg.Claims{
		UserID:         user.ID,
		OrganizationID: user.OrganizationID,
		TeamID:         user.TeamID,
		Role:           string(user.Role),
	}
	accessToken, err := jwtpkg.GenerateToken(claims, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, err := jwtpkg.GenerateToken(claims, s.cfg.JWTSecret, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken, ExpiresIn: s.cfg.AccessTokenTTL}, nil
}
