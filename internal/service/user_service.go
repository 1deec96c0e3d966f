package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/3gr1v750v/api-yamdb-docker/internal/models"
	"github.com/3gr1v750v/api-yamdb-docker/internal/permission"
	"github.com/3gr1v750v/api-yamdb-docker/internal/repository"
	"github.com/3gr1v750v/api-yamdb-docker/pkg/logger"
	"go.uber.org/zap"
)

// UserInput is the admin create payload.
type UserInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Bio       string
	Role      models.Role
}

// UserPatch is a partial update; nil fields are left unchanged.
type UserPatch struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
	Role      *models.Role
}

type UserService struct {
	userRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) ListUsers(ctx context.Context, actor permission.Actor, search string, opts repository.ListOptions) ([]models.User, int64, error) {
	if err := checkCollection(actor, permission.KindUser, permission.ActionRead); err != nil {
		return nil, 0, err
	}
	return s.userRepo.ListUsers(ctx, strings.TrimSpace(search), opts)
}

func (s *UserService) CreateUser(ctx context.Context, actor permission.Actor, in UserInput) (*models.User, error) {
	if err := checkCollection(actor, permission.KindUser, permission.ActionCreate); err != nil {
		return nil, err
	}

	if in.Role == "" {
		in.Role = models.RoleUser
	}

	verr := &ValidationError{}
	mergeValidation(verr, ValidateUsername(in.Username))
	mergeValidation(verr, ValidateEmail(in.Email))
	mergeValidation(verr, ValidateRole(in.Role))
	mergeValidation(verr, validateProfileNames(in.FirstName, in.LastName))
	if len(verr.Fields) > 0 {
		return nil, verr
	}
	if err := s.checkUnique(ctx, 0, in.Username, in.Email); err != nil {
		return nil, err
	}

	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Bio:       in.Bio,
		Role:      in.Role,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, translateUnique(err, "a user with that username or email already exists")
	}

	logger.Log.Info("User created by admin",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
		zap.Uint("admin_id", actor.ID),
	)
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, actor permission.Actor, username string) (*models.User, error) {
	if err := checkCollection(actor, permission.KindUser, permission.ActionRead); err != nil {
		return nil, err
	}
	return s.mustGet(ctx, username)
}

func (s *UserService) UpdateUser(ctx context.Context, actor permission.Actor, username string, patch UserPatch) (*models.User, error) {
	if err := checkCollection(actor, permission.KindUser, permission.ActionUpdate); err != nil {
		return nil, err
	}
	user, err := s.mustGet(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := checkObject(actor, permission.Resource{Kind: permission.KindUser, OwnerID: user.ID}, permission.ActionUpdate); err != nil {
		return nil, err
	}

	if err := s.apply(ctx, user, patch); err != nil {
		return nil, err
	}

	logger.Log.Info("User updated by admin",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username),
		zap.Uint("admin_id", actor.ID),
	)
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, actor permission.Actor, username string) error {
	if err := checkCollection(actor, permission.KindUser, permission.ActionDelete); err != nil {
		return err
	}
	user, err := s.mustGet(ctx, username)
	if err != nil {
		return err
	}

	if err := s.userRepo.DeleteUser(ctx, user.ID); err != nil {
		logger.Log.Error("Failed to delete user",
			zap.Uint("user_id", user.ID),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Info("User deleted",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username),
		zap.Uint("admin_id", actor.ID),
	)
	return nil
}

// GetProfile returns the caller's own record.
func (s *UserService) GetProfile(ctx context.Context, actor permission.Actor) (*models.User, error) {
	if err := checkCollection(actor, permission.KindProfile, permission.ActionRead); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetUserByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if err := checkObject(actor, permission.Resource{Kind: permission.KindProfile, OwnerID: user.ID}, permission.ActionRead); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies a self-edit. The role in the patch is ignored: the
// stored role is always kept.
func (s *UserService) UpdateProfile(ctx context.Context, actor permission.Actor, patch UserPatch) (*models.User, error) {
	user, err := s.GetProfile(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := checkObject(actor, permission.Resource{Kind: permission.KindProfile, OwnerID: user.ID}, permission.ActionUpdate); err != nil {
		return nil, err
	}

	if patch.Role != nil && *patch.Role != user.Role {
		logger.Log.Warn("Ignoring role change on self-edit",
			zap.Uint("user_id", user.ID),
			zap.String("role", string(user.Role)),
			zap.String("requested_role", string(*patch.Role)),
		)
	}
	role := user.Role
	patch.Role = &role

	if err := s.apply(ctx, user, patch); err != nil {
		return nil, err
	}

	logger.Log.Info("Profile updated", zap.Uint("user_id", user.ID))
	return user, nil
}

func (s *UserService) apply(ctx context.Context, user *models.User, patch UserPatch) error {
	fields := map[string]interface{}{}
	verr := &ValidationError{}

	username, email := "", ""
	if patch.Username != nil && *patch.Username != user.Username {
		mergeValidation(verr, ValidateUsername(*patch.Username))
		username = *patch.Username
		fields["username"] = username
	}
	if patch.Email != nil && *patch.Email != user.Email {
		mergeValidation(verr, ValidateEmail(*patch.Email))
		email = *patch.Email
		fields["email"] = email
	}
	if patch.Role != nil {
		mergeValidation(verr, ValidateRole(*patch.Role))
		fields["role"] = *patch.Role
	}
	first, last := "", ""
	if patch.FirstName != nil {
		first = *patch.FirstName
		fields["first_name"] = first
	}
	if patch.LastName != nil {
		last = *patch.LastName
		fields["last_name"] = last
	}
	mergeValidation(verr, validateProfileNames(first, last))
	if patch.Bio != nil {
		fields["bio"] = *patch.Bio
	}
	if len(verr.Fields) > 0 {
		return verr
	}

	if err := s.checkUnique(ctx, user.ID, username, email); err != nil {
		return err
	}

	if err := s.userRepo.UpdateUser(ctx, user, fields); err != nil {
		logger.Log.Error("Failed to update user",
			zap.Uint("user_id", user.ID),
			zap.Error(err),
		)
		return translateUnique(err, "a user with that username or email already exists")
	}
	return nil
}

// checkUnique reports username/email collisions with users other than selfID.
// Empty values are skipped.
func (s *UserService) checkUnique(ctx context.Context, selfID uint, username, email string) error {
	verr := &ValidationError{}
	if username != "" {
		other, err := s.userRepo.GetUserByUsername(ctx, username)
		if err != nil {
			return err
		}
		if other != nil && other.ID != selfID {
			verr.Add("username", "a user with that username already exists")
		}
	}
	if email != "" {
		other, err := s.userRepo.GetUserByEmail(ctx, email)
		if err != nil {
			return err
		}
		if other != nil && other.ID != selfID {
			verr.Add("email", "a user with that email already exists")
		}
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func (s *UserService) mustGet(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func validateProfileNames(first, last string) error {
	verr := &ValidationError{}
	if longerThan(first, MaxNameLength) {
		verr.Add("first_name", fmt.Sprintf("must be at most %d characters", MaxNameLength))
	}
	if longerThan(last, MaxNameLength) {
		verr.Add("last_name", fmt.Sprintf("must be at most %d characters", MaxNameLength))
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// translateUnique turns a storage duplicate-key error into a ValidationError.
func translateUnique(err error, msg string) error {
	if repository.IsUniqueViolation(err) {
		return NewValidationError("", msg)
	}
	return err
}
