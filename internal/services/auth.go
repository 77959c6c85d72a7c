package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"gpit-system/internal/dto"
	"gpit-system/internal/repositories"
	"gpit-system/pkg/config"
	"gpit-system/pkg/constants"
	apperrors "gpit-system/pkg/errors"
	"gpit-system/pkg/service"
)

// AuthService issues and rotates token pairs. Failed logins are counted in
// Redis per email; too many in a row lock the account out for a while.
// Refresh tokens are single-use: each jti is whitelisted in Redis and
// consumed on rotation.
type AuthService struct {
	userRepo   repositories.UserRepositoryInterface
	cacheRepo  repositories.CacheRepositoryInterface
	jwtService service.JWTService
	authConfig config.AuthConfig
	logger     *zap.Logger
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	jwtService service.JWTService,
	authConfig config.AuthConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		cacheRepo:  cacheRepo,
		jwtService: jwtService,
		authConfig: authConfig,
		logger:     logger,
	}
}

func (s *AuthService) Login(ctx context.Context, d dto.LoginDTO) (*dto.TokenPairDTO, error) {
	email := strings.ToLower(strings.TrimSpace(d.Email))

	lockoutKey := fmt.Sprintf(constants.CacheKeyLockout, email)
	if _, err := s.cacheRepo.Get(ctx, lockoutKey); err == nil {
		s.logger.Warn("login attempt on locked account", zap.String("email", email))
		return nil, apperrors.ErrAccountLocked
	}

	user, err := s.userRepo.FindUserByEmail(ctx, email)
	if err != nil {
		// Same answer whether the email or the password is wrong.
		s.registerFailedAttempt(ctx, email)
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(d.Password)); err != nil {
		s.registerFailedAttempt(ctx, email)
		return nil, apperrors.ErrInvalidCredentials
	}

	if user.Status != constants.UserStatusActive {
		return nil, apperrors.ErrAccountNotActive
	}

	attemptsKey := fmt.Sprintf(constants.CacheKeyLoginAttempts, email)
	if err := s.cacheRepo.Del(ctx, attemptsKey); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.String("email", email), zap.Error(err))
	}

	pair, err := s.issueTokens(ctx, user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	pair.User = userEntityToDTO(*user)

	s.logger.Info("user logged in", zap.Uint64("id", user.ID), zap.String("role", user.Role))
	return pair, nil
}

// Refresh rotates a token pair. The presented refresh token must be a live
// whitelisted one; it is consumed here, so a replayed token fails.
func (s *AuthService) Refresh(ctx context.Context, d dto.RefreshDTO) (*dto.TokenPairDTO, error) {
	claims, err := s.jwtService.ValidateToken(d.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.ErrTokenIsNotRefresh
	}

	jtiKey := fmt.Sprintf(constants.CacheKeyRefreshJTI, claims.UserID, claims.ID)
	if _, err := s.cacheRepo.Get(ctx, jtiKey); err != nil {
		s.logger.Warn("refresh with unknown or consumed jti", zap.Uint64("user_id", claims.UserID))
		return nil, apperrors.ErrInvalidToken
	}
	if err := s.cacheRepo.Del(ctx, jtiKey); err != nil {
		return nil, apperrors.NewStorageError("consume refresh jti", err)
	}

	user, err := s.userRepo.FindUser(ctx, nil, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user.Status != constants.UserStatusActive {
		return nil, apperrors.ErrAccountNotActive
	}

	pair, err := s.issueTokens(ctx, user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	pair.User = userEntityToDTO(*user)
	return pair, nil
}

// Logout revokes the presented refresh token so the pair cannot be rotated
// again. The short-lived access token simply expires.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return err
	}
	if !claims.IsRefreshToken {
		return apperrors.ErrTokenIsNotRefresh
	}

	jtiKey := fmt.Sprintf(constants.CacheKeyRefreshJTI, claims.UserID, claims.ID)
	if err := s.cacheRepo.Del(ctx, jtiKey); err != nil {
		return apperrors.NewStorageError("revoke refresh jti", err)
	}

	s.logger.Info("user logged out", zap.Uint64("id", claims.UserID))
	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, userID uint64, role string) (*dto.TokenPairDTO, error) {
	access, refresh, refreshJTI, err := s.jwtService.GenerateTokens(userID, role)
	if err != nil {
		return nil, apperrors.NewStorageError("generate tokens", err)
	}

	jtiKey := fmt.Sprintf(constants.CacheKeyRefreshJTI, userID, refreshJTI)
	if err := s.cacheRepo.Set(ctx, jtiKey, "1", s.jwtService.GetRefreshTokenTTL()); err != nil {
		return nil, apperrors.NewStorageError("whitelist refresh jti", err)
	}

	return &dto.TokenPairDTO{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) registerFailedAttempt(ctx context.Context, email string) {
	attemptsKey := fmt.Sprintf(constants.CacheKeyLoginAttempts, email)

	count, err := s.cacheRepo.Incr(ctx, attemptsKey)
	if err != nil {
		s.logger.Error("failed to count login attempt", zap.String("email", email), zap.Error(err))
		return
	}
	if _, err := s.cacheRepo.Expire(ctx, attemptsKey, s.authConfig.LockoutDuration); err != nil {
		s.logger.Warn("failed to set attempts expiry", zap.String("email", email), zap.Error(err))
	}

	if count >= int64(s.authConfig.MaxLoginAttempts) {
		lockoutKey := fmt.Sprintf(constants.CacheKeyLockout, email)
		if err := s.cacheRepo.Set(ctx, lockoutKey, "locked", s.authConfig.LockoutDuration); err != nil {
			s.logger.Error("failed to lock account", zap.String("email", email), zap.Error(err))
			return
		}
		s.logger.Warn("account locked after repeated failures", zap.String("email", email))
	}
}
