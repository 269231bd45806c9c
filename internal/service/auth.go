package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/apperr"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/auth"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/models"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/store"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/validate"
)

type RegisterInput struct {
	Username  string `json:"username" validate:"required,min=3,max=30,username"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,password"`
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type PreferencesInput struct {
	Theme         *string `json:"theme" validate:"omitempty,oneof=light dark auto"`
	Notifications *bool   `json:"notifications"`
	Timezone      *string `json:"timezone" validate:"omitempty,min=1,max=64"`
}

type ProfileInput struct {
	FirstName   *string           `json:"firstName" validate:"omitempty,min=1,max=50"`
	LastName    *string           `json:"lastName" validate:"omitempty,min=1,max=50"`
	Avatar      *string           `json:"avatar" validate:"omitempty,max=500"`
	Preferences *PreferencesInput `json:"preferences"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,password"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type AuthResult struct {
	User   *models.User
	Tokens Tokens
}

var errInvalidCredentials = apperr.Unauthorized("INVALID_CREDENTIALS", "Invalid credentials")

func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	hash, err := s.Auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	now := s.now()
	u := &models.User{
		ID:           s.NewID(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Preferences:  models.DefaultPreferences(),
		Role:         "user",
		IsActive:     true,
		LastLogin:    &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.CreateUser(ctx, u); err != nil {
		var ce *store.ConflictError
		if errors.As(err, &ce) {
			if ce.Field == "email" {
				return nil, apperr.Conflict("USER_EXISTS", "Email already registered")
			}
			return nil, apperr.Conflict("USER_EXISTS", "Username already taken")
		}
		return nil, apperr.Internal(err)
	}
	return s.issue(u)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	u, err := s.Store.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, apperr.Internal(err)
	}
	if err := s.Auth.ComparePassword(u.PasswordHash, in.Password); err != nil {
		return nil, errInvalidCredentials
	}
	if !u.IsActive {
		return nil, apperr.Unauthorized("ACCOUNT_DEACTIVATED", "Account is deactivated")
	}

	now := s.now()
	u, err = s.Store.UpdateUser(ctx, u.ID, func(u *models.User) error {
		u.LastLogin = &now
		return nil
	})
	if err != nil {
		return nil, storeErr(err, errInvalidCredentials)
	}
	return s.issue(u)
}

func (s *Service) issue(u *models.User) (*AuthResult, error) {
	access, err := s.Auth.IssueAccess(u.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	refresh, err := s.Auth.IssueRefresh(u.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &AuthResult{User: u, Tokens: Tokens{AccessToken: access, RefreshToken: refresh}}, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh token
// is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", apperr.Validation("Refresh token is required",
			apperr.FieldError{Field: "refreshToken", Message: "Refresh token is required"})
	}
	invalid := apperr.Unauthorized("INVALID_TOKEN", "Invalid refresh token")

	claims, err := s.Auth.Verify(refreshToken, auth.TokenRefresh)
	if err != nil {
		return "", invalid
	}
	u, err := s.Store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", invalid
		}
		return "", apperr.Internal(err)
	}
	if !u.IsActive {
		return "", invalid
	}
	access, err := s.Auth.IssueAccess(u.ID)
	if err != nil {
		return "", apperr.Internal(err)
	}
	return access, nil
}

// Authenticate resolves an access token to an active user.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.Auth.Verify(token, auth.TokenAccess)
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return nil, apperr.Unauthorized("TOKEN_EXPIRED", "Token expired")
	case err != nil:
		return nil, apperr.Unauthorized("TOKEN_INVALID", "Invalid token")
	}

	u, err := s.Store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, storeErr(err, apperr.Unauthorized("USER_NOT_FOUND", "User not found"))
	}
	if !u.IsActive {
		return nil, apperr.Unauthorized("ACCOUNT_DEACTIVATED", "Account is deactivated")
	}
	return u, nil
}

func userNotFound() *apperr.Error {
	return apperr.NotFound("USER_NOT_FOUND", "User not found")
}

func (s *Service) Profile(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.Store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, userNotFound())
	}
	return u, nil
}

// UpdateProfile merges preferences key by key; unspecified keys keep their value.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error) {
	trimPtr(in.FirstName)
	trimPtr(in.LastName)
	trimPtr(in.Avatar)
	if in.Preferences != nil {
		trimPtr(in.Preferences.Timezone)
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	now := s.now()
	u, err := s.Store.UpdateUser(ctx, userID, func(u *models.User) error {
		if in.FirstName != nil {
			u.FirstName = *in.FirstName
		}
		if in.LastName != nil {
			u.LastName = *in.LastName
		}
		if in.Avatar != nil {
			u.Avatar = in.Avatar
		}
		if p := in.Preferences; p != nil {
			if p.Theme != nil {
				u.Preferences.Theme = *p.Theme
			}
			if p.Notifications != nil {
				u.Preferences.Notifications = *p.Notifications
			}
			if p.Timezone != nil {
				u.Preferences.Timezone = *p.Timezone
			}
		}
		u.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, storeErr(err, userNotFound())
	}
	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	hash, err := s.Auth.HashPassword(in.NewPassword)
	if err != nil {
		return apperr.Internal(err)
	}
	now := s.now()
	_, err = s.Store.UpdateUser(ctx, userID, func(u *models.User) error {
		if err := s.Auth.ComparePassword(u.PasswordHash, in.CurrentPassword); err != nil {
			return apperr.New(apperr.KindValidation, "INVALID_PASSWORD", "Current password is incorrect")
		}
		u.PasswordHash = hash
		u.UpdatedAt = now
		return nil
	})
	if err != nil {
		return storeErr(err, userNotFound())
	}
	return nil
}

func (s *Service) Deactivate(ctx context.Context, userID string) error {
	now := s.now()
	_, err := s.Store.UpdateUser(ctx, userID, func(u *models.User) error {
		u.IsActive = false
		u.UpdatedAt = now
		return nil
	})
	if err != nil {
		return storeErr(err, userNotFound())
	}
	return nil
}
