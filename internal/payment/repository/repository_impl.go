package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/foundr/internal/payment/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, intent *domain.PaymentIntent) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_payment_intent_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "currency", "status", "tier_id", "metadata", "updated_at"}),
	}).Create(intent).Error
}

func (r *repo) FindByStripeID(ctx context.Context, db *gorm.DB, stripeID string) (*domain.PaymentIntent, error) {
	var item domain.PaymentIntent
	err := db.WithContext(ctx).Raw(
		`SELECT id, stripe_payment_intent_id, amount, currency, status, tier_id,
			member_id, metadata, created_at, updated_at
		 FROM payment_intents
		 WHERE stripe_payment_intent_id = ?
		 LIMIT 1`,
		stripeID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, stripeID, status string) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE payment_intents SET status = ?, updated_at = ? WHERE stripe_payment_intent_id = ?`,
		status, time.Now().UTC(), stripeID,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) AttachMember(ctx context.Context, db *gorm.DB, stripeID string, memberID snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE payment_intents SET member_id = ?, updated_at = ? WHERE stripe_payment_intent_id = ?`,
		memberID, time.Now().UTC(), stripeID,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, event *domain.WebhookEvent) (bool, error) {
	res := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_event_id"}},
		DoNothing: true,
	}).Create(event)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) MarkEventProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_webhook_events SET processed_at = ? WHERE id = ?`,
		at, id,
	).Error
}
