package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"grameen_connect/internal/apperr"
	"grameen_connect/internal/models"
)

type MessageInput struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Subject string `json:"subject" validate:"required,max=255"`
	Message string `json:"message" validate:"required"`
}

type MessageService struct {
	db *gorm.DB
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

func (s *MessageService) Create(ctx context.Context, in MessageInput) (*models.Message, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	if err := validateInput(in, apperr.MsgInvalidInput); err != nil {
		return nil, err
	}

	msg := models.Message{Name: in.Name, Email: in.Email, Subject: in.Subject, Body: in.Message}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	logrus.WithField("message_id", msg.ID).Info("contact message received")
	return &msg, nil
}

// List returns every message, newest first.
func (s *MessageService) List(ctx context.Context) ([]models.Message, error) {
	messages := []models.Message{}
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&messages).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return messages, nil
}
