package obligation

import (
	"github.com/smallbiznis/franchisehub/internal/obligation/repository"
	"github.com/smallbiznis/franchisehub/internal/obligation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("obligation.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(repository.NewObligationSink),
	fx.Provide(service.NewCalculator),
	fx.Provide(service.NewEntryFeeGate),
	fx.Provide(service.NewService),
)
