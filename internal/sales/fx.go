package sales

import (
	"github.com/smallbiznis/franchisehub/internal/sales/repository"
	"github.com/smallbiznis/franchisehub/internal/sales/service"
	"go.uber.org/fx"
)

var Module = fx.Module("sales.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(repository.NewRevenueSource),
	fx.Provide(service.NewService),
)
