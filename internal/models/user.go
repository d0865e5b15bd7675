package models

import (
	"time"
)

const (
	RoleMember        = "member"
	RoleAdministrator = "administrator"
)

type User struct {
	BaseModel

	Name         string `gorm:"not null" json:"name"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	Phone        string `json:"phone,omitempty"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         string `gorm:"not null;default:member" json:"role"`

	TotalDonations int64 `gorm:"not null;default:0" json:"totalDonations"`
	TotalDonated   int64 `gorm:"not null;default:0" json:"totalDonated"`

	// Reset-token pair: both set or both cleared, never one without the other.
	ResetPasswordToken  *string    `gorm:"index" json:"-"`
	ResetPasswordExpire *time.Time `json:"-"`

	// Relationships
	Donations []Donation    `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:SET NULL" json:"-"`
	Requests  []HelpRequest `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:SET NULL" json:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdministrator
}
