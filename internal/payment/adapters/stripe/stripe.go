package stripe

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/smallbiznis/foundr/internal/config"
	paymentdomain "github.com/smallbiznis/foundr/internal/payment/domain"
	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
	"github.com/stripe/stripe-go/v72/webhook"
	"go.uber.org/zap"
)

// Gateway talks to Stripe. A gateway built without a secret key fails every
// processor call with ErrNotConfigured so the server can still boot.
type Gateway struct {
	api           *client.API
	webhookSecret string
	log           *zap.Logger
}

func NewGateway(cfg config.Config, log *zap.Logger) paymentdomain.Gateway {
	g := &Gateway{
		webhookSecret: strings.TrimSpace(cfg.Stripe.WebhookSecret),
		log:           log.Named("payment.stripe"),
	}
	if cfg.Stripe.Configured() {
		g.api = client.New(strings.TrimSpace(cfg.Stripe.SecretKey), nil)
	} else {
		g.log.Warn("stripe secret key not set, payment intents are disabled")
	}
	return g
}

func (g *Gateway) CreatePaymentIntent(ctx context.Context, in paymentdomain.CreateIntentParams) (paymentdomain.GatewayIntent, error) {
	if g.api == nil {
		return paymentdomain.GatewayIntent{}, paymentdomain.ErrNotConfigured
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(in.Amount),
		Currency: stripe.String(strings.ToLower(in.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if in.StatementDescriptor != "" {
		params.StatementDescriptor = stripe.String(in.StatementDescriptor)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	if in.IdempotencyKey != "" {
		params.SetIdempotencyKey(in.IdempotencyKey)
	}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return paymentdomain.GatewayIntent{}, err
	}
	return paymentdomain.GatewayIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

func (g *Gateway) CreateCustomer(ctx context.Context, in paymentdomain.CreateCustomerParams) (string, error) {
	if g.api == nil {
		return "", paymentdomain.ErrNotConfigured
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(in.Email),
	}
	if in.Name != "" {
		params.Name = stripe.String(in.Name)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	if in.IdempotencyKey != "" {
		params.SetIdempotencyKey(in.IdempotencyKey)
	}
	params.Context = ctx

	cus, err := g.api.Customers.New(params)
	if err != nil {
		return "", err
	}
	return cus.ID, nil
}

type paymentIntentObject struct {
	ID     string `json:"id"`
	Object string `json:"object"`
	Status string `json:"status"`
}

func (g *Gateway) ParseWebhook(payload []byte, signature string) (paymentdomain.GatewayEvent, error) {
	if g.webhookSecret == "" {
		return paymentdomain.GatewayEvent{}, paymentdomain.ErrNotConfigured
	}
	if strings.TrimSpace(signature) == "" {
		return paymentdomain.GatewayEvent{}, paymentdomain.ErrInvalidSignature
	}

	ev, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		g.log.Warn("rejected stripe webhook", zap.Error(err))
		return paymentdomain.GatewayEvent{}, paymentdomain.ErrInvalidSignature
	}
	if strings.TrimSpace(ev.ID) == "" {
		return paymentdomain.GatewayEvent{}, paymentdomain.ErrInvalidPayload
	}

	out := paymentdomain.GatewayEvent{
		ID:      ev.ID,
		Type:    ev.Type,
		Payload: payload,
	}
	if ev.Data != nil && strings.HasPrefix(ev.Type, "payment_intent.") {
		var obj paymentIntentObject
		if err := json.Unmarshal(ev.Data.Raw, &obj); err != nil {
			return paymentdomain.GatewayEvent{}, paymentdomain.ErrInvalidPayload
		}
		out.PaymentIntentID = obj.ID
		out.Status = obj.Status
	}
	return out, nil
}
