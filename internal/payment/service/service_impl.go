package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/foundr/internal/clock"
	"github.com/smallbiznis/foundr/internal/config"
	obsmetrics "github.com/smallbiznis/foundr/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/foundr/internal/payment/domain"
	"github.com/smallbiznis/foundr/internal/ratelimit"
	"github.com/smallbiznis/foundr/internal/sanitize"
	subscriptiondomain "github.com/smallbiznis/foundr/internal/subscription/domain"
	tierdomain "github.com/smallbiznis/foundr/internal/tier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	rateLimitMessage = "Too many requests. Please try again later."
	createdBy        = "membership-registration"

	maxMetadataKeyLength   = 40
	maxMetadataValueLength = 500
)

var currencyPattern = regexp.MustCompile(`^[a-z]{3}$`)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Config     config.Config
	Repo       paymentdomain.Repository
	Gateway    paymentdomain.Gateway
	TierSvc    tierdomain.Service
	SubRepo    subscriptiondomain.Repository
	Limiter    *ratelimit.Limiter
	Policies   ratelimit.Policies
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	cfg        config.PaymentConfig
	descriptor string
	repo       paymentdomain.Repository
	gateway    paymentdomain.Gateway
	tierSvc    tierdomain.Service
	subRepo    subscriptiondomain.Repository
	limiter    *ratelimit.Limiter
	policies   ratelimit.Policies
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		cfg:        p.Config.Payment,
		descriptor: p.Config.Stripe.StatementDescriptor,
		repo:       p.Repo,
		gateway:    p.Gateway,
		tierSvc:    p.TierSvc,
		subRepo:    p.SubRepo,
		limiter:    p.Limiter,
		policies:   p.Policies,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) CreateIntent(ctx context.Context, req paymentdomain.CreateIntentRequest) (paymentdomain.CreateIntentResponse, error) {
	clientIP := clientKey(req.ClientIP)
	if err := s.limiter.Enforce(ctx, s.policies.PaymentIntent, clientIP, rateLimitMessage); err != nil {
		s.obsMetrics.RecordPaymentIntent(ctx, "", "rate_limited")
		return paymentdomain.CreateIntentResponse{}, err
	}

	tierID := strings.TrimSpace(req.TierID)
	if tierID == "" || req.Amount == 0 {
		return s.reject(ctx, tierID, paymentdomain.ErrMissingFields)
	}
	if req.Amount < paymentdomain.MinAmount || req.Amount > paymentdomain.MaxAmount {
		return s.reject(ctx, tierID, paymentdomain.ErrInvalidAmount)
	}
	if !sanitize.IsValidTierID(tierID) {
		return s.reject(ctx, "", paymentdomain.ErrInvalidTierID)
	}

	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	if !currencyPattern.MatchString(currency) {
		return s.reject(ctx, tierID, paymentdomain.ErrInvalidCurrency)
	}

	if s.cfg.VerifyTierPrice {
		tier, err := s.tierSvc.Get(ctx, tierID)
		if err != nil {
			if errors.Is(err, tierdomain.ErrNotFound) || errors.Is(err, tierdomain.ErrInvalidTierID) {
				return s.reject(ctx, tierID, paymentdomain.ErrUnknownTier)
			}
			return paymentdomain.CreateIntentResponse{}, err
		}
		if expected := tier.PriceCents(); expected != req.Amount {
			s.log.Warn("payment amount does not match tier price",
				zap.String("tier_id", tierID),
				zap.Int64("expected", expected),
				zap.Int64("received", req.Amount),
			)
			return s.reject(ctx, tierID, paymentdomain.ErrAmountMismatch)
		}
	}

	now := s.clock.Now()
	metadata := buildMetadata(req.Metadata, map[string]string{
		"tier_id":    tierID,
		"created_by": createdBy,
		"client_ip":  clientIP,
		"timestamp":  now.Format(time.RFC3339),
	})

	intent, err := s.gateway.CreatePaymentIntent(ctx, paymentdomain.CreateIntentParams{
		Amount:              req.Amount,
		Currency:            currency,
		StatementDescriptor: s.descriptor,
		Metadata:            metadata,
		IdempotencyKey:      ulid.Make().String(),
	})
	if err != nil {
		s.obsMetrics.RecordPaymentIntent(ctx, tierID, "error")
		if errors.Is(err, paymentdomain.ErrNotConfigured) {
			s.log.Error("payment processor not configured")
			return paymentdomain.CreateIntentResponse{}, err
		}
		s.log.Error("failed to create payment intent", zap.String("tier_id", tierID), zap.Error(err))
		return paymentdomain.CreateIntentResponse{}, fmt.Errorf("create payment intent: %w", err)
	}

	record := paymentdomain.PaymentIntent{
		ID:                    s.genID.Generate(),
		StripePaymentIntentID: intent.ID,
		Amount:                req.Amount,
		Currency:              currency,
		Status:                intentStatus(intent.Status),
		TierID:                &tierID,
		Metadata:              toJSONMap(metadata),
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.repo.Upsert(ctx, s.db, &record); err != nil {
		s.log.Warn("failed to record payment intent",
			zap.String("payment_intent_id", intent.ID),
			zap.Error(err),
		)
	}

	s.log.Info("payment intent created",
		zap.String("payment_intent_id", intent.ID),
		zap.String("tier_id", tierID),
		zap.Int64("amount", req.Amount),
		zap.String("currency", currency),
	)
	s.obsMetrics.RecordPaymentIntent(ctx, tierID, "created")

	return paymentdomain.CreateIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	}, nil
}

func (s *Service) reject(ctx context.Context, tierID string, err error) (paymentdomain.CreateIntentResponse, error) {
	s.obsMetrics.RecordPaymentIntent(ctx, tierID, "rejected")
	return paymentdomain.CreateIntentResponse{}, err
}

func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (paymentdomain.WebhookResult, error) {
	ev, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return paymentdomain.WebhookResult{}, err
	}
	s.obsMetrics.RecordWebhookEvent(ctx, paymentdomain.ProviderStripe, ev.Type)

	result := paymentdomain.WebhookResult{EventType: ev.Type}
	status, subStatus := statusForEvent(ev.Type)
	now := s.clock.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := paymentdomain.WebhookEvent{
			ID:              s.genID.Generate(),
			Provider:        paymentdomain.ProviderStripe,
			ProviderEventID: ev.ID,
			EventType:       ev.Type,
			Payload:         datatypes.JSON(ev.Payload),
			ReceivedAt:      now,
		}
		if ev.PaymentIntentID != "" {
			record.PaymentIntentID = &ev.PaymentIntentID
		}

		inserted, err := s.repo.InsertEvent(ctx, tx, &record)
		if err != nil {
			return err
		}
		if !inserted {
			result.Duplicate = true
			return nil
		}

		if status != "" && ev.PaymentIntentID != "" {
			if _, err := s.repo.UpdateStatus(ctx, tx, ev.PaymentIntentID, status); err != nil {
				return err
			}
			if subStatus != "" {
				rows, err := s.subRepo.DeactivateByPaymentIntent(ctx, tx, ev.PaymentIntentID, subStatus)
				if err != nil {
					return err
				}
				if rows > 0 {
					s.log.Info("deactivated subscriptions for payment intent",
						zap.String("payment_intent_id", ev.PaymentIntentID),
						zap.String("status", subStatus),
						zap.Int64("rows", rows),
					)
				}
			}
			result.Handled = true
		}

		return s.repo.MarkEventProcessed(ctx, tx, record.ID, now)
	})
	if err != nil {
		s.log.Error("failed to process webhook event",
			zap.String("event_id", ev.ID),
			zap.String("event_type", ev.Type),
			zap.Error(err),
		)
		return paymentdomain.WebhookResult{}, err
	}
	return result, nil
}

func (s *Service) CreateCustomer(ctx context.Context, params paymentdomain.CreateCustomerParams) (string, error) {
	if params.IdempotencyKey == "" {
		params.IdempotencyKey = ulid.Make().String()
	}
	return s.gateway.CreateCustomer(ctx, params)
}

// statusForEvent maps a processor event onto the intent status and, when the
// payment did not go through, the status of subscriptions it settled.
func statusForEvent(eventType string) (string, string) {
	switch eventType {
	case "payment_intent.succeeded":
		return paymentdomain.StatusSucceeded, ""
	case "payment_intent.payment_failed":
		return paymentdomain.StatusPaymentFailed, subscriptiondomain.StatusPaymentFailed
	case "payment_intent.canceled":
		return paymentdomain.StatusCanceled, subscriptiondomain.StatusCanceled
	default:
		return "", ""
	}
}

func intentStatus(status string) string {
	if status == "" {
		return paymentdomain.StatusRequiresPaymentMethod
	}
	return status
}

func clientKey(ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return "unknown"
	}
	return ip
}

// buildMetadata merges caller metadata under the system keys. System keys win
// and the result never exceeds the processor limit.
func buildMetadata(extra, system map[string]string) map[string]string {
	out := make(map[string]string, paymentdomain.MaxMetadataKeys)
	for k, v := range system {
		out[k] = v
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if len(out) >= paymentdomain.MaxMetadataKeys {
			break
		}
		key := sanitize.Input(k)
		if key == "" || len(key) > maxMetadataKeyLength {
			continue
		}
		if _, reserved := out[key]; reserved {
			continue
		}
		value := sanitize.Input(extra[k])
		if r := []rune(value); len(r) > maxMetadataValueLength {
			value = string(r[:maxMetadataValueLength])
		}
		out[key] = value
	}
	return out
}

func toJSONMap(in map[string]string) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
