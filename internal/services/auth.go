package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"task-manager/server/internal/config"
	"task-manager/server/internal/models"
	"task-manager/server/internal/repositories"

	"github.com/gofrs/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const invalidCredentials = "Invalid email or password"

type RegistrationRequest struct {
	Name             string `json:"name" binding:"required,max=100"`
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required"`
	ProfileImageURL  string `json:"profileImageUrl"`
	AdminInviteToken string `json:"adminInviteToken"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ProfileUpdate fields are optional; nil or empty keeps the current value.
type ProfileUpdate struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password"`
}

type AuthResult struct {
	User  *models.User
	Token string
}

type AuthService interface {
	Register(ctx context.Context, req RegistrationRequest) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Profile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*AuthResult, error)
}

type AuthServiceImpl struct {
	users      repositories.UserRepository
	tokens     *TokenManager
	cfg        config.AuthConfig
	identities IdentityInvalidator
}

// NewAuthService wires registration and login. identities may be nil when
// no identity cache is configured.
func NewAuthService(users repositories.UserRepository, tokens *TokenManager, cfg config.AuthConfig, identities IdentityInvalidator) *AuthServiceImpl {
	if cfg.BCryptCost < bcrypt.MinCost || cfg.BCryptCost > bcrypt.MaxCost {
		cfg.BCryptCost = bcrypt.DefaultCost
	}
	return &AuthServiceImpl{users: users, tokens: tokens, cfg: cfg, identities: identities}
}

func (s *AuthServiceImpl) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BCryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// roleFor grants admin only when an invite token is configured and matches.
func (s *AuthServiceImpl) roleFor(inviteToken string) models.Role {
	if s.cfg.AdminInviteToken != "" && inviteToken == s.cfg.AdminInviteToken {
		return models.RoleAdmin
	}
	return models.RoleMember
}

func (s *AuthServiceImpl) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthServiceImpl) Register(ctx context.Context, req RegistrationRequest) (*AuthResult, error) {
	email := models.NormalizeEmail(req.Email)

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil, validation("User already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hashed, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:            strings.TrimSpace(req.Name),
		Email:           email,
		Password:        hashed,
		ProfileImageURL: req.ProfileImageURL,
		Role:            s.roleFor(req.AdminInviteToken),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.issue(user)
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, unauthorized(invalidCredentials)
	}
	return s.issue(user)
}

func (s *AuthServiceImpl) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "User not found", "load profile")
	}
	return user, nil
}

func (s *AuthServiceImpl) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*AuthResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "User not found", "load profile")
	}

	user.Name = stringOr(update.Name, user.Name)

	if email := models.NormalizeEmail(stringOr(update.Email, user.Email)); email != user.Email {
		existing, err := s.users.FindByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != user.ID:
			return nil, validation("Email already in use")
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("lookup email: %w", err)
		}
		user.Email = email
	}

	if update.Password != nil && *update.Password != "" {
		hashed, err := s.hash(*update.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if s.identities != nil {
		s.identities.Invalidate(ctx, user.ID)
	}
	return s.issue(user)
}
