package service

import (
	"context"
	"errors"
	"fmt"

	"market_chat/internal/config"
	"market_chat/internal/domain"
	"market_chat/internal/repository"
	apperrors "market_chat/pkg/errors"
	"market_chat/pkg/jwt"
	"market_chat/pkg/logger"
)

// AuthService verifies bearer tokens issued by the marketplace account service.
type AuthService interface {
	ValidateToken(ctx context.Context, tokenString string) (*domain.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	jwtCfg   config.JWTConfig
	log      logger.Logger
}

func NewAuthService(userRepo repository.UserRepository, jwtCfg config.JWTConfig, log logger.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		jwtCfg:   jwtCfg,
		log:      log,
	}
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := jwt.ValidateToken(tokenString, s.jwtCfg.AccessSecret)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: unknown user %s", apperrors.ErrUnauthorized, claims.UserID)
		}
		return nil, err
	}

	return user, nil
}
