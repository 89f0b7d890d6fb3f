package franchise

import (
	"github.com/smallbiznis/franchisehub/internal/franchise/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("franchise.repository",
	fx.Provide(repository.NewRepository),
)
