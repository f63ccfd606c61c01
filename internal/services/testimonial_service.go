package services

import (
	"context"

	"gorm.io/gorm"

	"grameen_connect/internal/apperr"
	"grameen_connect/internal/models"
)

type TestimonialService struct {
	db *gorm.DB
}

func NewTestimonialService(db *gorm.DB) *TestimonialService {
	return &TestimonialService{db: db}
}

// Approved lists testimonials cleared for display, newest first.
func (s *TestimonialService) Approved(ctx context.Context) ([]models.Testimonial, error) {
	testimonials := []models.Testimonial{}
	err := s.db.WithContext(ctx).
		Where("is_approved = ?", true).
		Order("created_at DESC").Order("id DESC").
		Find(&testimonials).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return testimonials, nil
}
