package utils

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/coursecraft/coursecraft-backend/internal/pkg/errors"
	"github.com/coursecraft/coursecraft-backend/internal/normalization"
	"github.com/coursecraft/coursecraft-backend/internal/repos"
	"github.com/coursecraft/coursecraft-backend/internal/types"
)

func ValidateRegistration(ctx context.Context, userRepo repos.UserRepo, user *types.User) error {
	if user == nil {
		return fmt.Errorf("%w: no user given", apperrors.ErrValidation)
	}
	if user.Email == "" {
		return fmt.Errorf("%w: an email is required to register", apperrors.ErrValidation)
	}
	if user.Password == "" {
		return fmt.Errorf("%w: a password is required to register", apperrors.ErrValidation)
	}
	if len(user.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", apperrors.ErrValidation)
	}
	if user.FirstName == "" {
		return fmt.Errorf("%w: a first name is required to register", apperrors.ErrValidation)
	}
	if user.LastName == "" {
		return fmt.Errorf("%w: a last name is required to register", apperrors.ErrValidation)
	}
	emailExists, err := userRepo.EmailExists(ctx, nil, user.Email)
	if err != nil {
		return fmt.Errorf("Failed to check user email: %w", err)
	}
	if emailExists {
		return fmt.Errorf("%w: email is already in use", apperrors.ErrAlreadyExists)
	}
	return nil
}

func ValidateLogin(email, password string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required to login", apperrors.ErrValidation)
	}
	if password == "" {
		return fmt.Errorf("%w: password is required to login", apperrors.ErrValidation)
	}
	return nil
}

func HashPassword(user *types.User) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("Failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)
	return nil
}

func NormalizeUserFields(user *types.User) {
	user.Email = normalization.ParseInputString(user.Email)
	user.FirstName = normalization.TrimName(user.FirstName)
	user.LastName = normalization.TrimName(user.LastName)
}
