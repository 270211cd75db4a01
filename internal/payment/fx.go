package payment

import (
	"github.com/smallbiznis/foundr/internal/payment/adapters/stripe"
	"github.com/smallbiznis/foundr/internal/payment/repository"
	paymentservice "github.com/smallbiznis/foundr/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(stripe.NewGateway),
	fx.Provide(paymentservice.NewService),
)
