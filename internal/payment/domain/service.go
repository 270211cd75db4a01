package domain

import (
	"context"
	"errors"
)

const (
	MinAmount = 50
	MaxAmount = 10_000_000

	// MaxMetadataKeys is the processor limit on metadata entries.
	MaxMetadataKeys = 20
)

type CreateIntentRequest struct {
	TierID   string
	Amount   int64
	Currency string
	Metadata map[string]string
	ClientIP string
}

type CreateIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type WebhookResult struct {
	EventType string `json:"event_type"`
	Handled   bool   `json:"handled"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

type Service interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest) (CreateIntentResponse, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (WebhookResult, error)
	// CreateCustomer registers a processor customer and returns its id.
	CreateCustomer(ctx context.Context, params CreateCustomerParams) (string, error)
}

var (
	ErrMissingFields   = errors.New("missing_required_fields")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrInvalidTierID   = errors.New("invalid_tier_id")
	ErrUnknownTier     = errors.New("invalid_tier")
	ErrAmountMismatch  = errors.New("amount_mismatch")
	ErrInvalidCurrency = errors.New("invalid_currency")
)
