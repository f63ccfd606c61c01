package services

import (
	"context"
	"errors"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"grameen_connect/internal/apperr"
	"grameen_connect/internal/metrics"
	"grameen_connect/internal/models"
	"grameen_connect/internal/uploads"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// EventPublisher receives request change events. Implementations must not block.
type EventPublisher interface {
	Publish(event interface{})
}

type CreateRequestInput struct {
	Name        string  `json:"name" form:"name" validate:"required,max=255"`
	Contact     *string `json:"contact" form:"contact" validate:"omitempty,max=255"`
	Category    string  `json:"category" form:"category" validate:"required,max=100"`
	Description string  `json:"description" form:"description" validate:"required"`
	Location    *string `json:"location" form:"location" validate:"omitempty,max=255"`
}

type UpdateStatusInput struct {
	Status      string `json:"status"`
	VolunteerID *uint  `json:"volunteerId"`
}

// requestRow is the flat scan target for the joined request queries.
type requestRow struct {
	ID             uint
	UserID         *uint
	Name           string
	Contact        *string
	Category       string
	Description    string
	Location       *string
	DocumentPath   *string
	Status         models.RequestStatus
	VolunteerID    *uint
	CreatedAt      time.Time
	UpdatedAt      time.Time
	RequesterName  *string
	RequesterEmail *string
	VolunteerName  *string
}

func (r requestRow) view() models.RequestView {
	return models.RequestView{
		ServiceRequest: models.ServiceRequest{
			ID:           r.ID,
			UserID:       r.UserID,
			Name:         r.Name,
			Contact:      r.Contact,
			Category:     r.Category,
			Description:  r.Description,
			Location:     r.Location,
			DocumentPath: r.DocumentPath,
			Status:       r.Status,
			VolunteerID:  r.VolunteerID,
			CreatedAt:    r.CreatedAt,
			UpdatedAt:    r.UpdatedAt,
		},
		RequesterName:  r.RequesterName,
		RequesterEmail: r.RequesterEmail,
		VolunteerName:  r.VolunteerName,
	}
}

type RequestService struct {
	db      *gorm.DB
	uploads *uploads.Store
	policy  TransitionPolicy
	events  EventPublisher
}

func NewRequestService(db *gorm.DB, store *uploads.Store, policy TransitionPolicy, events EventPublisher) *RequestService {
	if policy == nil {
		policy = FreeTransitions{}
	}
	return &RequestService{db: db, uploads: store, policy: policy, events: events}
}

func (s *RequestService) joined(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("service_requests AS sr").
		Select("sr.*, u.full_name AS requester_name, u.email AS requester_email, v.full_name AS volunteer_name").
		Joins("LEFT JOIN users u ON sr.user_id = u.id").
		Joins("LEFT JOIN users v ON sr.volunteer_id = v.id")
}

func newestFirst(q *gorm.DB) *gorm.DB {
	return q.Order("sr.created_at DESC").Order("sr.id DESC")
}

func (s *RequestService) publish(eventType string, view models.RequestView) {
	if s.events == nil {
		return
	}
	s.events.Publish(models.RequestEvent{Type: eventType, Request: view})
}

// Create stores a new pending request owned by callerID. The optional document is validated
// and written before the insert and removed again if the insert fails.
func (s *RequestService) Create(ctx context.Context, callerID uint, in CreateRequestInput, document *multipart.FileHeader) (*models.ServiceRequest, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	if err := validateInput(in, apperr.MsgInvalidInput); err != nil {
		return nil, err
	}

	var documentPath *string
	if document != nil {
		path, err := s.uploads.Save(document, uploads.Documents)
		if err != nil {
			return nil, uploadError(err)
		}
		documentPath = &path
	}

	req := models.ServiceRequest{
		UserID:       &callerID,
		Name:         in.Name,
		Contact:      nullable(in.Contact),
		Category:     in.Category,
		Description:  in.Description,
		Location:     nullable(in.Location),
		DocumentPath: documentPath,
		Status:       models.StatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&req).Error; err != nil {
		if documentPath != nil {
			if rmErr := s.uploads.Remove(*documentPath); rmErr != nil {
				logrus.WithError(rmErr).WithField("path", *documentPath).Warn("could not remove orphaned upload")
			}
		}
		if isForeignKeyViolation(err) {
			return nil, apperr.Validation(apperr.MsgOwnerMissing)
		}
		return nil, apperr.Internal(err)
	}

	metrics.RecordRequestCreated()
	logrus.WithFields(logrus.Fields{"request_id": req.ID, "user_id": callerID, "category": req.Category}).Info("request submitted")

	if view, err := s.Get(ctx, req.ID); err == nil {
		s.publish(models.EventRequestCreated, *view)
	} else {
		s.publish(models.EventRequestCreated, models.RequestView{ServiceRequest: req})
	}
	return &req, nil
}

// ParseStatus validates an optional status filter. Empty means no filter.
func ParseStatus(raw string) (models.RequestStatus, error) {
	status := models.RequestStatus(strings.TrimSpace(raw))
	if status == "" {
		return "", nil
	}
	if !status.Valid() {
		return "", apperr.Validation(apperr.MsgInvalidStatus)
	}
	return status, nil
}

// ParseLimit validates the list limit. Empty means the default; values above the maximum are clamped.
func ParseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, apperr.Validation(apperr.MsgInvalidLimit)
	}
	if n > MaxListLimit {
		n = MaxListLimit
	}
	return n, nil
}

// List returns the newest requests, optionally filtered by status.
func (s *RequestService) List(ctx context.Context, status models.RequestStatus, limit int) ([]models.RequestView, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Validation(apperr.MsgInvalidStatus)
	}
	if limit <= 0 {
		return nil, apperr.Validation(apperr.MsgInvalidLimit)
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	q := s.joined(ctx)
	if status != "" {
		q = q.Where("sr.status = ?", status)
	}
	var rows []requestRow
	if err := newestFirst(q).Limit(limit).Scan(&rows).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return views(rows), nil
}

func (s *RequestService) Get(ctx context.Context, id uint) (*models.RequestView, error) {
	var rows []requestRow
	if err := s.joined(ctx).Where("sr.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound(apperr.MsgRequestNotFound)
	}
	view := rows[0].view()
	return &view, nil
}

// ForUser returns the requests assigned to a volunteer, or the requests owned by anyone else.
func (s *RequestService) ForUser(ctx context.Context, callerID uint, role models.Role) ([]models.RequestView, error) {
	q := s.joined(ctx)
	if role == models.RoleVolunteer {
		q = q.Where("sr.volunteer_id = ?", callerID)
	} else {
		q = q.Where("sr.user_id = ?", callerID)
	}
	var rows []requestRow
	if err := newestFirst(q).Scan(&rows).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return views(rows), nil
}

// UpdateStatus sets a new status and optionally assigns a volunteer.
func (s *RequestService) UpdateStatus(ctx context.Context, id uint, in UpdateStatusInput) (*models.ServiceRequest, error) {
	status := models.RequestStatus(strings.TrimSpace(in.Status))
	if !status.Valid() {
		return nil, apperr.Validation(apperr.MsgInvalidStatus)
	}

	db := s.db.WithContext(ctx)
	var current models.ServiceRequest
	err := db.First(&current, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(apperr.MsgRequestNotFound)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !s.policy.Allow(current.Status, status) {
		return nil, apperr.Validation(apperr.MsgTransitionForbidden)
	}

	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if in.VolunteerID != nil && *in.VolunteerID != 0 {
		var volunteers int64
		err := db.Model(&models.User{}).
			Where("id = ? AND role = ?", *in.VolunteerID, models.RoleVolunteer).
			Count(&volunteers).Error
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if volunteers == 0 {
			return nil, apperr.Validation(apperr.MsgInvalidVolunteer)
		}
		updates["volunteer_id"] = *in.VolunteerID
	}

	if err := db.Model(&models.ServiceRequest{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	var updated models.ServiceRequest
	err = db.First(&updated, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(apperr.MsgRequestNotFound)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	metrics.RecordStatusChange(string(status))
	logrus.WithFields(logrus.Fields{
		"request_id": id,
		"from":       current.Status,
		"to":         status,
	}).Info("request status updated")

	if view, err := s.Get(ctx, id); err == nil {
		s.publish(models.EventRequestUpdated, *view)
	}
	return &updated, nil
}

func views(rows []requestRow) []models.RequestView {
	out := make([]models.RequestView, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.view())
	}
	return out
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, uploads.ErrUnsupportedType):
		return apperr.Validation(apperr.MsgInvalidFileType)
	case errors.Is(err, uploads.ErrTooLarge):
		return apperr.Validation(apperr.MsgFileTooLarge)
	default:
		return apperr.Internal(err)
	}
}
