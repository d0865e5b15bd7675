package models

import (
	"gorm.io/datatypes"
)

type Donation struct {
	BaseModel

	UserID    *uint `gorm:"index" json:"userId"`
	RequestID *uint `gorm:"index" json:"requestId"`

	Amount        int64          `gorm:"not null" json:"amount"`
	Cause         string         `gorm:"not null;index" json:"cause"`
	PaymentMethod string         `gorm:"not null" json:"paymentMethod"`
	PaymentInfo   datatypes.JSON `gorm:"type:jsonb" json:"paymentInfo,omitempty"`
	TransactionID string         `gorm:"uniqueIndex;not null" json:"transactionId"`
	Status        string         `gorm:"not null;default:completed;index" json:"status"`
	IsMonthly     bool           `gorm:"not null;default:false" json:"isMonthly"`

	// Donor identity is denormalized so display never requires a join,
	// anonymous or not.
	DonorName  string `gorm:"not null" json:"donorName"`
	DonorEmail string `gorm:"not null" json:"donorEmail"`

	// Relationships
	User    *User        `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:SET NULL" json:"user,omitempty"`
	Request *HelpRequest `gorm:"foreignKey:RequestID;constraint:OnUpdate:Cascade,OnDelete:SET NULL" json:"request,omitempty"`
}
