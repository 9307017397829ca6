package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"lockerd/internal/auth"
	"lockerd/internal/notifier"
	userserrors "lockerd/internal/users/errors"
	"lockerd/internal/users/repository"
	"lockerd/internal/users/validator"
	"lockerd/pkg/config"
	apperrors "lockerd/pkg/errors"
	"lockerd/pkg/model"
)

const resetTokenTTL = time.Hour

type UserService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	ForgotPassword(ctx context.Context, req *model.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error
}

type userService struct {
	repo      repository.UserRepository
	validator *validator.UserValidator
	notifier  notifier.Notifier
	cfg       *config.Config
}

func NewUserService(repo repository.UserRepository, v *validator.UserValidator, n notifier.Notifier, cfg *config.Config) UserService {
	return &userService{
		repo:      repo,
		validator: v,
		notifier:  n,
		cfg:       cfg,
	}
}

func (s *userService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, apperrors.Validation("Registration validation failed", map[string]any{"error": err.Error()})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	user := &model.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Role:         model.RoleUser,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, userserrors.ErrDuplicateEmail) {
			return nil, apperrors.Conflict("Email is already registered")
		}
		return nil, apperrors.Internal("Failed to create user", err)
	}

	token, err := auth.IssueToken(s.cfg.JWTSecret, user.ID, user.Role, s.cfg.JWTTTL)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue token", err)
	}

	s.cfg.Log.Info("User registered", "id", user.ID, "email", user.Email)
	return &model.AuthResponse{Token: token, User: user}, nil
}

func (s *userService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, apperrors.Validation("Login validation failed", map[string]any{"error": err.Error()})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("Invalid email or password")
		}
		return nil, apperrors.Internal("Failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthorized("Invalid email or password")
	}

	token, err := auth.IssueToken(s.cfg.JWTSecret, user.ID, user.Role, s.cfg.JWTTTL)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue token", err)
	}

	s.cfg.Log.Info("User logged in", "id", user.ID)
	return &model.AuthResponse{Token: token, User: user}, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("User", id)
		}
		if errors.Is(err, userserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid user ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}

	return user, nil
}

// ForgotPassword always reports success to the caller. Whether the email
// exists is not something this endpoint reveals.
func (s *userService) ForgotPassword(ctx context.Context, req *model.ForgotPasswordRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return apperrors.Validation("Request validation failed", map[string]any{"error": err.Error()})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			s.cfg.Log.Info("Password reset requested for unknown email")
			return nil
		}
		return apperrors.Internal("Failed to look up user", err)
	}

	token := uuid.NewString()
	expires := time.Now().UTC().Add(resetTokenTTL)
	if err := s.repo.SetResetToken(ctx, user.ID, token, expires); err != nil {
		return apperrors.Internal("Failed to store reset token", err)
	}

	if err := s.notifier.PasswordReset(ctx, user, token); err != nil {
		s.cfg.Log.Error("Failed to send password reset email", "user_id", user.ID, "error", err)
	}

	s.cfg.Log.Info("Password reset token issued", "user_id", user.ID)
	return nil
}

func (s *userService) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return apperrors.Validation("Request validation failed", map[string]any{"error": err.Error()})
	}

	user, err := s.repo.FindByResetToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return apperrors.InvalidInput("Invalid or expired reset token")
		}
		return apperrors.Internal("Failed to look up reset token", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Internal("Failed to hash password", err)
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return apperrors.Internal("Failed to update password", err)
	}

	s.cfg.Log.Info("Password reset completed", "user_id", user.ID)
	return nil
}
