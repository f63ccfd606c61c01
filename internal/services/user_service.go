package services

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"grameen_connect/internal/apperr"
	"grameen_connect/internal/models"
	"grameen_connect/internal/uploads"
)

// ProfileUpdate holds the editable profile fields. A nil field is left unchanged; an empty
// string clears phone, location or bio. FullName is only applied when non-empty.
type ProfileUpdate struct {
	FullName *string `json:"fullName" validate:"omitempty,max=255"`
	Phone    *string `json:"phone" validate:"omitempty,max=50"`
	Location *string `json:"location" validate:"omitempty,max=255"`
	Bio      *string `json:"bio"`
}

type UserService struct {
	db      *gorm.DB
	uploads *uploads.Store
}

func NewUserService(db *gorm.DB, store *uploads.Store) *UserService {
	return &UserService{db: db, uploads: store}
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in ProfileUpdate, avatar *multipart.FileHeader) (*models.User, error) {
	if err := validateInput(in, apperr.MsgInvalidInput); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var exists int64
	if err := db.Model(&models.User{}).Where("id = ?", userID).Count(&exists).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	if exists == 0 {
		return nil, apperr.NotFound(apperr.MsgUserNotFound)
	}

	updates := map[string]interface{}{}
	if in.FullName != nil && strings.TrimSpace(*in.FullName) != "" {
		updates["full_name"] = strings.TrimSpace(*in.FullName)
	}
	if in.Phone != nil {
		updates["phone"] = nullable(in.Phone)
	}
	if in.Location != nil {
		updates["location"] = nullable(in.Location)
	}
	if in.Bio != nil {
		updates["bio"] = nullable(in.Bio)
	}

	var avatarPath string
	if avatar != nil {
		var err error
		avatarPath, err = s.uploads.Save(avatar, uploads.Avatars)
		if err != nil {
			return nil, uploadError(err)
		}
		updates["avatar"] = avatarPath
	}

	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		if err := db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			if avatarPath != "" {
				if rmErr := s.uploads.Remove(avatarPath); rmErr != nil {
					logrus.WithError(rmErr).WithField("path", avatarPath).Warn("could not remove orphaned upload")
				}
			}
			return nil, apperr.Internal(err)
		}
	}

	var updated models.User
	err := db.First(&updated, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(apperr.MsgUserNotFound)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &updated, nil
}
