package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"grameen_connect/internal/apperr"
	"grameen_connect/internal/auth"
	"grameen_connect/internal/metrics"
	"grameen_connect/internal/models"
)

type RegisterInput struct {
	FullName string  `json:"fullName" validate:"required,max=255"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required"`
	Phone    *string `json:"phone" validate:"omitempty,max=50"`
	Role     string  `json:"role" validate:"required,oneof=help_seeker volunteer admin"`
	Location *string `json:"location" validate:"omitempty,max=255"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

type AuthService struct {
	db     *gorm.DB
	tokens *auth.TokenManager
}

func NewAuthService(db *gorm.DB, tokens *auth.TokenManager) *AuthService {
	return &AuthService{db: db, tokens: tokens}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = normalizeEmail(in.Email)
	in.Role = strings.TrimSpace(in.Role)
	if err := validateInput(in, apperr.MsgInvalidInput); err != nil {
		return nil, err
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		return nil, apperr.Validation(apperr.MsgInvalidInput).WithDetails(map[string]string{"password": "max"})
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", in.Email).Count(&existing).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	if existing > 0 {
		return nil, apperr.Validation(apperr.MsgUserExists)
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := models.User{
		FullName: in.FullName,
		Email:    in.Email,
		Password: hashed,
		Phone:    nullable(in.Phone),
		Role:     models.Role(in.Role),
		Location: nullable(in.Location),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Validation(apperr.MsgUserExists)
		}
		return nil, apperr.Internal(err)
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	metrics.RecordRegistration(in.Role)
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user registered")
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in, apperr.MsgInvalidInput); err != nil {
		return nil, err
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", in.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.RecordLogin(false)
		return nil, apperr.Auth(apperr.MsgInvalidCredentials)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !auth.CheckPassword(user.Password, in.Password) {
		metrics.RecordLogin(false)
		logrus.WithField("user_id", user.ID).Warn("login with wrong password")
		return nil, apperr.Auth(apperr.MsgInvalidCredentials)
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	metrics.RecordLogin(true)
	return &AuthResult{User: user, Token: token}, nil
}

// Profile returns the caller's own record.
func (s *AuthService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(apperr.MsgUserNotFound)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &user, nil
}

// Logout revokes the presented token when a revocation list is configured.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		return apperr.Internal(err)
	}
	if claims != nil {
		logrus.WithField("user_id", claims.UserID).Info("user logged out")
	}
	return nil
}
