package purchase

import (
	"github.com/smallbiznis/franchisehub/internal/purchase/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("purchase.repository",
	fx.Provide(repository.NewRepository),
	fx.Provide(repository.NewPurchaseSource),
)
