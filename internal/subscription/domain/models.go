package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusActive        = "active"
	StatusPaymentFailed = "payment_failed"
	StatusCanceled      = "canceled"
	StatusExpired       = "expired"

	// PaidTermDays is the length of a paid membership term.
	PaidTermDays = 30
)

// MemberSubscription links a member to a tier and, for paid tiers, the
// payment intent that settled it.
type MemberSubscription struct {
	ID              snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	MemberID        snowflake.ID `json:"member_id" gorm:"not null;index"`
	TierID          string       `json:"tier_id" gorm:"type:varchar(64);not null;index"`
	PaymentIntentID *string      `json:"payment_intent_id,omitempty" gorm:"type:varchar(255);index"`
	Status          string       `json:"status" gorm:"type:varchar(32);not null"`
	IsActive        bool         `json:"is_active" gorm:"not null"`
	StartDate       time.Time    `json:"start_date" gorm:"not null"`
	EndDate         *time.Time   `json:"end_date,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func (MemberSubscription) TableName() string { return "member_subscriptions" }
