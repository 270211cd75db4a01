package investor

import (
	"github.com/smallbiznis/foundr/internal/investor/repository"
	"github.com/smallbiznis/foundr/internal/investor/service"
	"go.uber.org/fx"
)

var Module = fx.Module("investor.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
