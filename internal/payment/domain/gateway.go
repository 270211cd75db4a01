package domain

import (
	"context"
	"errors"
)

const ProviderStripe = "stripe"

var (
	ErrNotConfigured    = errors.New("payment_not_configured")
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrInvalidPayload   = errors.New("invalid_payload")
)

type CreateIntentParams struct {
	Amount              int64
	Currency            string
	StatementDescriptor string
	Metadata            map[string]string
	IdempotencyKey      string
}

type GatewayIntent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
}

type CreateCustomerParams struct {
	Email          string
	Name           string
	Metadata       map[string]string
	IdempotencyKey string
}

// GatewayEvent is a verified webhook event reduced to the fields this service acts on.
type GatewayEvent struct {
	ID              string
	Type            string
	PaymentIntentID string
	Status          string
	Payload         []byte
}

// Gateway is the payment processor boundary.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, params CreateIntentParams) (GatewayIntent, error)
	CreateCustomer(ctx context.Context, params CreateCustomerParams) (string, error)
	ParseWebhook(payload []byte, signature string) (GatewayEvent, error)
}
