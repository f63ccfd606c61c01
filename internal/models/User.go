package models

import "time"

// Role is the actor type fixed on a user at registration.
type Role string

const (
	RoleHelpSeeker Role = "help_seeker"
	RoleVolunteer  Role = "volunteer"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleHelpSeeker, RoleVolunteer, RoleAdmin:
		return true
	}
	return false
}

// User holds an account. Password is the bcrypt hash and never leaves the server.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FullName  string    `gorm:"size:255;not null" json:"fullName"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Phone     *string   `gorm:"size:50" json:"phone"`
	Role      Role      `gorm:"size:50;not null" json:"role"`
	Location  *string   `gorm:"size:255" json:"location"`
	Avatar    *string   `gorm:"size:500" json:"avatar"`
	Bio       *string   `gorm:"type:text" json:"bio"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
