package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"lumina-backend/application/ports"
	"lumina-backend/domain/entities"
	"lumina-backend/pkg/common"
	apperrors "lumina-backend/pkg/errors"
	"lumina-backend/pkg/utils"
)

// UserService manages accounts: registration with uniqueness guarantees,
// credential checks, profile updates and soft deletion.
type UserService struct {
	users  ports.UserRepository
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(users ports.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// RegisterInput carries the fields of an account registration.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// Register creates a new account. Email and username are unique across
// the platform, case-insensitively.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*entities.User, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash password")
	}

	now := utils.NowRFC3339()
	user := &entities.User{
		UserID:       uuid.New().String(),
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: string(hash),
		Role:         entities.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.String("userID", user.UserID))
	return user, nil
}

// Authenticate checks credentials and returns the account. Wrong email,
// wrong password and deactivated account are indistinguishable to the
// caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entities.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthorizedError("invalid credentials")
		}
		return nil, err
	}
	if !user.IsActive || user.PasswordHash == "" {
		return nil, apperrors.NewUnauthorizedError("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.NewUnauthorizedError("invalid credentials")
	}
	return user, nil
}

// Get fetches an account by id.
func (s *UserService) Get(ctx context.Context, userID string) (*entities.User, error) {
	return s.users.Get(ctx, userID)
}

// GetByUsername fetches an account by username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	return s.users.FindByUsername(ctx, username)
}

// Update applies a profile patch. Users edit themselves; admins edit
// anyone, and only admins touch roles.
func (s *UserService) Update(ctx context.Context, identity common.Identity, userID string, patch entities.UserPatch) (*entities.User, error) {
	if !identity.IsAdmin() {
		if identity.UserID != userID {
			return nil, apperrors.NewForbiddenError("cannot edit another user's profile")
		}
		if patch.Role != nil {
			return nil, apperrors.NewForbiddenError("role changes are admin-only")
		}
	}
	return s.users.Update(ctx, userID, patch)
}

// ChangePassword verifies the current password and sets a new one.
func (s *UserService) ChangePassword(ctx context.Context, identity common.Identity, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters")
	}

	user, err := s.users.Get(ctx, identity.UserID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return apperrors.NewUnauthorizedError("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(err, "failed to hash password")
	}
	hashStr := string(hash)
	_, err = s.users.Update(ctx, identity.UserID, entities.UserPatch{PasswordHash: &hashStr})
	return err
}

// Delete soft-deletes an account. The caller deletes themselves, or an
// admin deletes anyone; the row survives anonymized so authored content
// keeps a creator reference.
func (s *UserService) Delete(ctx context.Context, identity common.Identity, userID string) error {
	if !identity.IsAdmin() && identity.UserID != userID {
		return apperrors.NewForbiddenError("cannot delete another user's account")
	}
	return s.users.SoftDelete(ctx, userID)
}

// TouchLastActive stamps activity on the account, best effort.
func (s *UserService) TouchLastActive(ctx context.Context, userID string) {
	if err := s.users.TouchLastActive(ctx, userID); err != nil {
		s.logger.Debug("Failed to stamp last activity",
			zap.String("userID", userID),
			zap.Error(err),
		)
	}
}
