package audit

import (
	"github.com/smallbiznis/franchisehub/internal/audit/repository"
	"github.com/smallbiznis/franchisehub/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
