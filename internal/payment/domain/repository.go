package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// Upsert inserts the intent or refreshes amount, status and metadata of the
	// row sharing its processor id.
	Upsert(ctx context.Context, db *gorm.DB, intent *PaymentIntent) error
	FindByStripeID(ctx context.Context, db *gorm.DB, stripeID string) (*PaymentIntent, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, stripeID, status string) (int64, error)
	AttachMember(ctx context.Context, db *gorm.DB, stripeID string, memberID snowflake.ID) (int64, error)

	// InsertEvent reports false when the event was already recorded.
	InsertEvent(ctx context.Context, db *gorm.DB, event *WebhookEvent) (bool, error)
	MarkEventProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
}
