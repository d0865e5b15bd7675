package models

import (
	"gorm.io/datatypes"
)

type HelpRequest struct {
	BaseModel

	UserID      *uint  `gorm:"index" json:"userId"` // Owner, set at creation and never reassigned
	Title       string `gorm:"not null" json:"title"`
	Category    string `gorm:"not null;index" json:"category"`
	Description string `gorm:"not null" json:"description"`
	Urgency     string `gorm:"index" json:"urgency,omitempty"`

	AmountNeeded int64 `gorm:"not null" json:"amountNeeded"`
	AmountRaised int64 `gorm:"not null;default:0" json:"amountRaised"`
	DonorsCount  int64 `gorm:"not null;default:0" json:"donorsCount"`

	Status             string `gorm:"not null;default:pending;index" json:"status"`
	VerificationStatus string `gorm:"not null;default:unverified" json:"verificationStatus"`
	Views              int64  `gorm:"not null;default:0" json:"views"`
	AdminNotes         string `json:"adminNotes,omitempty"`

	RequesterName  string         `gorm:"not null" json:"requesterName"`
	RequesterEmail string         `gorm:"not null" json:"requesterEmail"`
	RequesterPhone string         `gorm:"not null" json:"requesterPhone"`
	Location       datatypes.JSON `gorm:"type:jsonb" json:"location,omitempty"`

	// Relationships. Donations are historical records and are never deleted
	// with the request.
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Donations []Donation `gorm:"foreignKey:RequestID" json:"donations,omitempty"`
}
