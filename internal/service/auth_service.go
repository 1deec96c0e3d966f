package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/3gr1v750v/api-yamdb-docker/internal/config"
	"github.com/3gr1v750v/api-yamdb-docker/internal/mailer"
	"github.com/3gr1v750v/api-yamdb-docker/internal/metrics"
	"github.com/3gr1v750v/api-yamdb-docker/internal/models"
	"github.com/3gr1v750v/api-yamdb-docker/internal/repository"
	"github.com/3gr1v750v/api-yamdb-docker/internal/utils"
	"github.com/3gr1v750v/api-yamdb-docker/pkg/logger"
	"go.uber.org/zap"
)

type AuthService struct {
	userRepo *repository.UserRepository
	mailer   mailer.Sender
	cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, sender mailer.Sender, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		mailer:   sender,
		cfg:      cfg,
	}
}

// Signup registers the user if needed and mails the confirmation code.
// An existing exact username+email pair only gets the code again.
func (s *AuthService) Signup(ctx context.Context, username, email string) (*models.User, error) {
	start := time.Now()
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	logger.Log.Debug("Processing signup",
		zap.String("username", username),
		zap.String("email", email),
	)

	// 1. Existing pair: resend only
	if username != "" && email != "" {
		existing, err := s.userRepo.GetUserByUsernameAndEmail(ctx, username, email)
		if err != nil {
			logger.Log.Error("Failed to look up user for signup",
				zap.String("username", username),
				zap.Error(err),
			)
			return nil, err
		}
		if existing != nil {
			s.sendCode(ctx, existing)
			metrics.SignupsTotal.WithLabelValues("resent").Inc()
			logger.Log.Info("Confirmation code resent",
				zap.String("username", username),
				zap.Duration("total_duration", time.Since(start)),
			)
			return existing, nil
		}
	}

	// 2. Validate input
	if err := s.validateSignup(ctx, username, email); err != nil {
		metrics.SignupsTotal.WithLabelValues("failed").Inc()
		logger.Log.Warn("Signup validation failed",
			zap.String("username", username),
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, err
	}

	// 3. Create user before any delivery attempt
	user := &models.User{
		Username: username,
		Email:    email,
		Role:     models.RoleUser,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			metrics.SignupsTotal.WithLabelValues("failed").Inc()
			logger.Log.Warn("Signup lost a uniqueness race",
				zap.String("username", username),
				zap.Error(err),
			)
			return nil, NewValidationError("", "a user with that username or email already exists")
		}
		logger.Log.Error("Failed to create user in database",
			zap.String("username", username),
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, err
	}

	// 4. Deliver the code; failures never undo the signup
	s.sendCode(ctx, user)

	metrics.SignupsTotal.WithLabelValues("created").Inc()
	logger.Log.Info("User signed up",
		zap.Uint("user_id", user.ID),
		zap.String("username", username),
		zap.String("email", email),
		zap.Duration("total_duration", time.Since(start)),
	)

	return user, nil
}

func (s *AuthService) validateSignup(ctx context.Context, username, email string) error {
	verr := &ValidationError{}
	if err := ValidateUsername(username); err != nil {
		mergeValidation(verr, err)
	}
	if err := ValidateEmail(email); err != nil {
		mergeValidation(verr, err)
	}
	if len(verr.Fields) > 0 {
		return verr
	}

	taken, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if taken != nil {
		verr.Add("username", "a user with that username already exists")
	}

	taken, err = s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if taken != nil {
		verr.Add("email", "a user with that email already exists")
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// sendCode hands the code to the mailer and only logs failures.
func (s *AuthService) sendCode(ctx context.Context, user *models.User) {
	code := utils.ConfirmationCode(user.Username, s.cfg.ConfirmationSecret)
	msg := mailer.ConfirmationMessage(user.Email, user.Username, code)

	if err := s.mailer.Send(ctx, msg); err != nil {
		metrics.MailMessagesTotal.WithLabelValues("failed").Inc()
		logger.Log.Error("Failed to send confirmation code",
			zap.String("username", user.Username),
			zap.String("email", user.Email),
			zap.Error(err),
		)
	}
}

// ObtainToken exchanges username + confirmation code for a token pair.
func (s *AuthService) ObtainToken(ctx context.Context, username, code string) (*utils.TokenPair, error) {
	verr := &ValidationError{}
	if strings.TrimSpace(username) == "" {
		verr.Add("username", "this field is required")
	}
	if strings.TrimSpace(code) == "" {
		verr.Add("confirmation_code", "this field is required")
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		logger.Log.Error("Failed to get user by username",
			zap.String("username", username),
			zap.Error(err),
		)
		return nil, err
	}
	if user == nil {
		metrics.TokensTotal.WithLabelValues("obtain", "rejected").Inc()
		logger.Log.Warn("Token request for unknown user", zap.String("username", username))
		return nil, ErrUserNotFound
	}

	if !utils.VerifyConfirmationCode(user.Username, code, s.cfg.ConfirmationSecret) {
		metrics.TokensTotal.WithLabelValues("obtain", "rejected").Inc()
		logger.Log.Warn("Confirmation code mismatch",
			zap.String("username", username),
			zap.Uint("user_id", user.ID),
		)
		return nil, ErrInvalidCode
	}

	pair, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	metrics.TokensTotal.WithLabelValues("obtain", "issued").Inc()
	logger.Log.Info("Tokens issued",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username),
	)
	return pair, nil
}

// RefreshToken issues a new pair for a valid refresh token whose user still exists.
func (s *AuthService) RefreshToken(ctx context.Context, refresh string) (*utils.TokenPair, error) {
	if strings.TrimSpace(refresh) == "" {
		return nil, NewValidationError("refresh", "this field is required")
	}

	claims, err := utils.ValidateTokenOfType(refresh, s.cfg.JWTSecret, utils.RefreshToken)
	if err != nil {
		metrics.TokensTotal.WithLabelValues("refresh", "rejected").Inc()
		logger.Log.Warn("Refresh token rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		metrics.TokensTotal.WithLabelValues("refresh", "rejected").Inc()
		return nil, fmt.Errorf("%w: user no longer exists", ErrAuthentication)
	}

	pair, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	metrics.TokensTotal.WithLabelValues("refresh", "issued").Inc()
	logger.Log.Debug("Tokens refreshed", zap.Uint("user_id", user.ID))
	return pair, nil
}

// Authenticate resolves an access token to its current user. Role changes
// take effect immediately because the user row is re-read.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := utils.ValidateTokenOfType(accessToken, s.cfg.JWTSecret, utils.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user no longer exists", ErrAuthentication)
	}
	return user, nil
}

func (s *AuthService) issue(user *models.User) (*utils.TokenPair, error) {
	pair, err := utils.GenerateTokenPair(user, s.cfg.JWTSecret, s.cfg.JWTAccessExpiry, s.cfg.JWTRefreshExpiry)
	if err != nil {
		logger.Log.Error("Failed to generate JWT tokens",
			zap.Uint("user_id", user.ID),
			zap.Error(err),
		)
		return nil, err
	}
	return &pair, nil
}

// mergeValidation copies field messages from err into dst when err is a
// *ValidationError.
func mergeValidation(dst *ValidationError, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		for field, msg := range verr.Fields {
			dst.Add(field, msg)
		}
	}
}
