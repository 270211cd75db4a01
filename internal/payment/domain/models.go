package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	StatusRequiresPaymentMethod = "requires_payment_method"
	StatusSucceeded             = "succeeded"
	StatusPaymentFailed         = "payment_failed"
	StatusCanceled              = "canceled"
)

// PaymentIntent mirrors a processor payment intent. Amount is in minor units.
type PaymentIntent struct {
	ID                    snowflake.ID      `json:"id" gorm:"primaryKey;autoIncrement:false"`
	StripePaymentIntentID string            `json:"stripe_payment_intent_id" gorm:"type:varchar(255);not null;uniqueIndex"`
	Amount                int64             `json:"amount" gorm:"not null"`
	Currency              string            `json:"currency" gorm:"type:varchar(3);not null"`
	Status                string            `json:"status" gorm:"type:varchar(32);not null"`
	TierID                *string           `json:"tier_id,omitempty" gorm:"type:varchar(64);index"`
	MemberID              *snowflake.ID     `json:"member_id,omitempty" gorm:"index"`
	Metadata              datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

func (PaymentIntent) TableName() string { return "payment_intents" }

// WebhookEvent records every processor event once so redeliveries are no-ops.
type WebhookEvent struct {
	ID              snowflake.ID   `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Provider        string         `json:"provider" gorm:"type:varchar(32);not null;uniqueIndex:ux_payment_webhook_events_provider_event"`
	ProviderEventID string         `json:"provider_event_id" gorm:"type:varchar(255);not null;uniqueIndex:ux_payment_webhook_events_provider_event"`
	EventType       string         `json:"event_type" gorm:"type:varchar(128);not null"`
	PaymentIntentID *string        `json:"payment_intent_id,omitempty" gorm:"type:varchar(255);index"`
	Payload         datatypes.JSON `json:"payload"`
	ReceivedAt      time.Time      `json:"received_at" gorm:"not null"`
	ProcessedAt     *time.Time     `json:"processed_at,omitempty"`
}

func (WebhookEvent) TableName() string { return "payment_webhook_events" }
