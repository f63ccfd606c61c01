package models

import "time"

type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusInProgress RequestStatus = "in_progress"
	StatusCompleted  RequestStatus = "completed"
	StatusCancelled  RequestStatus = "cancelled"
)

// RequestStatuses lists every status in lifecycle order.
var RequestStatuses = []RequestStatus{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

func (s RequestStatus) Valid() bool {
	for _, known := range RequestStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ServiceRequest is a unit of help asked for by a help-seeker.
// Name and Contact are captured at submission and are not kept in sync with the owner.
type ServiceRequest struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	UserID       *uint         `gorm:"index" json:"user_id"`
	Name         string        `gorm:"size:255;not null" json:"name"`
	Contact      *string       `gorm:"size:255" json:"contact"`
	Category     string        `gorm:"size:100;not null" json:"category"`
	Description  string        `gorm:"type:text;not null" json:"description"`
	Location     *string       `gorm:"size:255" json:"location"`
	DocumentPath *string       `gorm:"size:500" json:"document_path"`
	Status       RequestStatus `gorm:"size:50;not null;default:'pending';index" json:"status"`
	VolunteerID  *uint         `gorm:"index" json:"volunteer_id"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`

	User      *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Volunteer *User `gorm:"foreignKey:VolunteerID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
}

// RequestView is a request joined with the display fields of its requester and volunteer.
type RequestView struct {
	ServiceRequest
	RequesterName  *string `json:"requester_name,omitempty"`
	RequesterEmail *string `json:"requester_email,omitempty"`
	VolunteerName  *string `json:"volunteer_name,omitempty"`
}

const (
	EventRequestCreated = "request.created"
	EventRequestUpdated = "request.updated"
)

// RequestEvent is pushed to realtime subscribers whenever a request changes.
type RequestEvent struct {
	Type    string      `json:"type"`
	Request RequestView `json:"request"`
}
