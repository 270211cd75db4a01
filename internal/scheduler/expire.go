package scheduler

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/foundr/internal/events"
	subscriptiondomain "github.com/smallbiznis/foundr/internal/subscription/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type subscriptionExpiredData struct {
	SubscriptionID string `json:"subscription_id"`
	MemberID       string `json:"member_id"`
	TierID         string `json:"tier_id"`
	EndDate        string `json:"end_date"`
}

// ExpireSubscriptionsJob deactivates paid subscriptions whose term has ended.
// It works in batches until nothing lapsed is left.
func (s *Scheduler) ExpireSubscriptionsJob(ctx context.Context, run *jobRun) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := s.clock.Now()
		var expired []subscriptiondomain.MemberSubscription
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			lapsed, err := s.subRepo.ListLapsed(ctx, tx, now, s.cfg.BatchSize)
			if err != nil || len(lapsed) == 0 {
				return err
			}

			ids := make([]snowflake.ID, 0, len(lapsed))
			for _, sub := range lapsed {
				ids = append(ids, sub.ID)
			}
			if _, err := s.subRepo.Expire(ctx, tx, ids, now); err != nil {
				return err
			}
			expired = lapsed
			return nil
		})
		if err != nil {
			return err
		}
		if len(expired) == 0 {
			return nil
		}

		run.processed += len(expired)
		s.metrics.AddBatchProcessed(run.job, "member_subscriptions", len(expired))
		for _, sub := range expired {
			s.log.Info("subscription expired",
				zap.String("subscription_id", sub.ID.String()),
				zap.String("member_id", sub.MemberID.String()),
				zap.String("tier_id", sub.TierID),
			)
			events.PublishSafely(ctx, s.publisher, s.log, events.New(events.TypeSubscriptionExpired, now, subscriptionExpiredData{
				SubscriptionID: sub.ID.String(),
				MemberID:       sub.MemberID.String(),
				TierID:         sub.TierID,
				EndDate:        sub.EndDate.UTC().Format(time.RFC3339),
			}))
		}

		if len(expired) < s.cfg.BatchSize {
			return nil
		}
	}
}
