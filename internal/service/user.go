package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/vineet-vishwakarma/Chat-App/internal/apperr"
	"github.com/vineet-vishwakarma/Chat-App/internal/auth"
	"github.com/vineet-vishwakarma/Chat-App/internal/config"
	"github.com/vineet-vishwakarma/Chat-App/internal/models"
	"github.com/vineet-vishwakarma/Chat-App/internal/presence"
	"gorm.io/gorm"
)

const chooseLanguage = "Choose Language"

var validate = validator.New()

type UserService struct {
	db       *gorm.DB
	cfg      config.Config
	presence *presence.Registry
}

func NewUserService(db *gorm.DB, cfg config.Config, reg *presence.Registry) *UserService {
	return &UserService{db: db, cfg: cfg, presence: reg}
}

type RegisterInput struct {
	Username         string `json:"username" validate:"required"`
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required,min=4,max=72"`
	SelectedLanguage string `json:"selectedLanguage"`
}

type LoginInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is returned by register, login and refresh.
type AuthResult struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = normalize(in.Username)
	in.Email = normalize(in.Email)
	if err := validate.Struct(in); err != nil {
		return nil, apperr.Validation("username, email and password are required", err)
	}
	lang := strings.TrimSpace(in.SelectedLanguage)
	if lang == "" || lang == chooseLanguage {
		lang = models.DefaultLanguage
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", in.Username, in.Email).Count(&count).Error
	if err != nil {
		return nil, apperr.Storage("failed to create user", err)
	}
	if count > 0 {
		return nil, ErrUserExists
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("failed to create user", err)
	}
	user := models.User{
		ID:               uuid.NewString(),
		Username:         in.Username,
		Email:            in.Email,
		PasswordHash:     hash,
		ProfilePicture:   models.DefaultProfilePicture,
		SelectedLanguage: lang,
	}

	var result *AuthResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		var err error
		result, err = s.issueTokens(tx, user)
		return err
	})
	if err != nil {
		return nil, apperr.Storage("failed to create user", err)
	}
	log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return result, nil
}

func (s *UserService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	username, email := normalize(in.Username), normalize(in.Email)
	if username == "" && email == "" {
		return nil, ErrMissingIdentifier
	}
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ? OR email = ?", username, email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Storage("login failed", err)
	}
	if !auth.VerifyPassword(user.PasswordHash, in.Password) {
		return nil, ErrInvalidCredentials
	}
	result, err := s.issueTokens(s.db.WithContext(ctx), user)
	if err != nil {
		return nil, apperr.Storage("login failed", err)
	}
	return result, nil
}

// Logout revokes every refresh token of userID and stamps LastSeen.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := auth.RevokeUserRefreshTokens(tx, userID); err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).Update("last_seen", &now).Error
	})
	if err != nil {
		return apperr.Storage("logout failed", err)
	}
	return nil
}

// RefreshTokens rotates oldRT: it is revoked and a fresh pair is issued.
func (s *UserService) RefreshTokens(ctx context.Context, oldRT string) (*AuthResult, error) {
	if oldRT == "" {
		return nil, ErrInvalidRefreshToken
	}
	var result *AuthResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := auth.ValidateRefreshToken(tx, oldRT)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidRefreshToken
			}
			return err
		}
		if err := auth.RevokeRefreshToken(tx, oldRT); err != nil {
			return err
		}
		var user models.User
		if err := tx.First(&user, "id = ?", rec.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidRefreshToken
			}
			return err
		}
		result, err = s.issueTokens(tx, user)
		return err
	})
	if err != nil {
		if apperr.Is(err, apperr.KindUnauthorized) {
			return nil, err
		}
		return nil, apperr.Storage("failed to refresh token", err)
	}
	return result, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperr.Validation("oldPassword and newPassword are required", nil)
	}
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(user.PasswordHash, oldPassword) {
		return ErrWrongPassword
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal("failed to change password", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Update("password_hash", hash).Error; err != nil {
		return apperr.Storage("failed to change password", err)
	}
	return nil
}

func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Storage("failed to load user", err)
	}
	return &user, nil
}

// UserWithStatus is a user row annotated with live presence.
type UserWithStatus struct {
	models.User
	Status presence.Status `json:"status"`
}

// ListOthers returns every user except currentUserID with their presence
// status in this process.
func (s *UserService) ListOthers(ctx context.Context, currentUserID string) ([]UserWithStatus, error) {
	if currentUserID == "" {
		return nil, apperr.Validation("currentUserId is required", nil)
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id <> ?", currentUserID).Order("username asc").Find(&users).Error; err != nil {
		return nil, apperr.Storage("failed to list users", err)
	}
	return lo.Map(users, func(u models.User, _ int) UserWithStatus {
		return UserWithStatus{User: u, Status: s.presence.Status(u.ID)}
	}), nil
}

func (s *UserService) issueTokens(db *gorm.DB, user models.User) (*AuthResult, error) {
	at, err := auth.GenerateAccessToken(user.ID, s.cfg.JWTSecret, s.cfg.AccessTokenTTLMinutes)
	if err != nil {
		return nil, err
	}
	rt, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	exp := time.Now().Add(time.Duration(s.cfg.RefreshTokenTTLDays) * 24 * time.Hour)
	if err := auth.SaveRefreshToken(db, user.ID, rt, exp); err != nil {
		return nil, err
	}
	return &AuthResult{User: user, AccessToken: at, RefreshToken: rt}, nil
}
