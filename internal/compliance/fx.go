package compliance

import (
	"github.com/smallbiznis/franchisehub/internal/compliance/repository"
	"github.com/smallbiznis/franchisehub/internal/compliance/service"
	"go.uber.org/fx"
)

var Module = fx.Module("compliance.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewEvaluator),
	fx.Provide(service.NewGate),
	fx.Provide(service.NewReporter),
)
