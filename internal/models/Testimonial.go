package models

import "time"

type Testimonial struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     *uint     `gorm:"index" json:"user_id"`
	Quote      string    `gorm:"type:text;not null" json:"quote"`
	Author     string    `gorm:"size:255;not null" json:"author"`
	Role       string    `gorm:"size:255" json:"role"`
	Avatar     *string   `gorm:"size:500" json:"avatar"`
	IsApproved bool      `gorm:"not null;default:false" json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// All returns every model managed by the schema, in dependency order.
func All() []interface{} {
	return []interface{}{&User{}, &ServiceRequest{}, &Message{}, &Testimonial{}}
}
