package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, sub *MemberSubscription) error
	ListByMemberIDs(ctx context.Context, db *gorm.DB, memberIDs []snowflake.ID) ([]MemberSubscription, error)
	// DeactivateByPaymentIntent marks every subscription settled by the intent
	// with status and clears its active flag.
	DeactivateByPaymentIntent(ctx context.Context, db *gorm.DB, paymentIntentID, status string) (int64, error)
	// ListLapsed returns active subscriptions whose end date is before now,
	// oldest first.
	ListLapsed(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]MemberSubscription, error)
	// Expire deactivates the given subscriptions if they are still active.
	Expire(ctx context.Context, db *gorm.DB, ids []snowflake.ID, now time.Time) (int64, error)
}
