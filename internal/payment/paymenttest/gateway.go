// Package paymenttest provides an in-memory payment gateway for tests.
package paymenttest

import (
	"context"
	"fmt"
	"sync"

	paymentdomain "github.com/smallbiznis/foundr/internal/payment/domain"
)

// Gateway records every call and hands out sequential processor ids.
type Gateway struct {
	mu sync.Mutex

	Intents   []paymentdomain.CreateIntentParams
	Customers []paymentdomain.CreateCustomerParams

	// Events maps a signature onto the event ParseWebhook returns for it.
	Events map[string]paymentdomain.GatewayEvent

	IntentErr   error
	CustomerErr error
}

func NewGateway() *Gateway {
	return &Gateway{Events: map[string]paymentdomain.GatewayEvent{}}
}

func (g *Gateway) CreatePaymentIntent(_ context.Context, params paymentdomain.CreateIntentParams) (paymentdomain.GatewayIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.IntentErr != nil {
		return paymentdomain.GatewayIntent{}, g.IntentErr
	}
	g.Intents = append(g.Intents, params)
	id := fmt.Sprintf("pi_test_%d", len(g.Intents))
	return paymentdomain.GatewayIntent{
		ID:           id,
		ClientSecret: id + "_secret_test",
		Status:       paymentdomain.StatusRequiresPaymentMethod,
		Amount:       params.Amount,
		Currency:     params.Currency,
	}, nil
}

func (g *Gateway) CreateCustomer(_ context.Context, params paymentdomain.CreateCustomerParams) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.CustomerErr != nil {
		return "", g.CustomerErr
	}
	g.Customers = append(g.Customers, params)
	return fmt.Sprintf("cus_test_%d", len(g.Customers)), nil
}

func (g *Gateway) ParseWebhook(payload []byte, signature string) (paymentdomain.GatewayEvent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ev, ok := g.Events[signature]
	if !ok {
		return paymentdomain.GatewayEvent{}, paymentdomain.ErrInvalidSignature
	}
	ev.Payload = payload
	return ev, nil
}

// LastIntent returns the parameters of the most recent intent.
func (g *Gateway) LastIntent() paymentdomain.CreateIntentParams {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.Intents) == 0 {
		return paymentdomain.CreateIntentParams{}
	}
	return g.Intents[len(g.Intents)-1]
}
