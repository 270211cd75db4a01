package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/foundr/internal/subscription/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, sub *domain.MemberSubscription) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO member_subscriptions
		 (id, member_id, tier_id, payment_intent_id, status, is_active, start_date, end_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID,
		sub.MemberID,
		sub.TierID,
		sub.PaymentIntentID,
		sub.Status,
		sub.IsActive,
		sub.StartDate,
		sub.EndDate,
		sub.CreatedAt,
		sub.UpdatedAt,
	).Error
}

func (r *repo) ListByMemberIDs(ctx context.Context, db *gorm.DB, memberIDs []snowflake.ID) ([]domain.MemberSubscription, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}
	var subs []domain.MemberSubscription
	err := db.WithContext(ctx).
		Where("member_id IN ?", memberIDs).
		Order("start_date desc, id desc").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repo) DeactivateByPaymentIntent(ctx context.Context, db *gorm.DB, paymentIntentID, status string) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE member_subscriptions SET status = ?, is_active = ?, updated_at = ?
		 WHERE payment_intent_id = ? AND is_active = ?`,
		status,
		false,
		time.Now().UTC(),
		paymentIntentID,
		true,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) ListLapsed(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]domain.MemberSubscription, error) {
	var subs []domain.MemberSubscription
	err := db.WithContext(ctx).
		Where("is_active = ? AND end_date IS NOT NULL AND end_date < ?", true, now).
		Order("end_date asc, id asc").
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repo) Expire(ctx context.Context, db *gorm.DB, ids []snowflake.ID, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).Exec(
		`UPDATE member_subscriptions SET status = ?, is_active = ?, updated_at = ?
		 WHERE id IN ? AND is_active = ?`,
		domain.StatusExpired,
		false,
		now,
		ids,
		true,
	)
	return res.RowsAffected, res.Error
}
