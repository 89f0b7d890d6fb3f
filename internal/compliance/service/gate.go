package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/franchisehub/internal/clock"
	compliancedomain "github.com/smallbiznis/franchisehub/internal/compliance/domain"
	"github.com/smallbiznis/franchisehub/internal/config"
	"github.com/smallbiznis/franchisehub/internal/observability/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	decisionAdmitted = "admitted"
	decisionRejected = "rejected"
)

type GateParams struct {
	fx.In

	Log       *zap.Logger
	Clock     clock.Clock
	Config    *config.ComplianceConfigHolder
	Evaluator compliancedomain.Evaluator
	Metrics   *metrics.Metrics `optional:"true"`
}

type Gate struct {
	log       *zap.Logger
	clock     clock.Clock
	config    *config.ComplianceConfigHolder
	evaluator compliancedomain.Evaluator
	metrics   *metrics.Metrics
}

func NewGate(p GateParams) compliancedomain.OrderGate {
	return &Gate{
		log:       p.Log.Named("compliance.gate"),
		clock:     p.Clock,
		config:    p.Config,
		evaluator: p.Evaluator,
		metrics:   p.Metrics,
	}
}

// CheckOrder re-evaluates the current monthly period and decides whether the
// proposed order keeps the franchise at or above the mandatory ratio.
func (g *Gate) CheckOrder(ctx context.Context, req compliancedomain.OrderCheckRequest) (*compliancedomain.OrderCheckResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "compliance.check_order")
	defer span.End()

	snapshot, err := g.evaluator.Evaluate(ctx, compliancedomain.EvaluateRequest{
		FranchiseID: req.FranchiseID,
		PeriodStart: g.clock.Now().UTC(),
		Granularity: compliancedomain.GranularityMonthly,
	})
	if err != nil {
		return nil, err
	}

	cfg := g.config.Get()
	ratio := cfg.Ratio()
	revenue := snapshot.TotalRevenue
	projectedActual := snapshot.ActualPurchase.Add(req.ProposedInternalValue)
	projected := compliancedomain.Compute(revenue, projectedActual, ratio)

	result := &compliancedomain.OrderCheckResult{
		Period:              snapshot.Period(),
		Revenue:             revenue,
		Actual:              snapshot.ActualPurchase,
		CurrentPercentage:   snapshot.CompliancePercentage,
		ProjectedPercentage: projected.Percentage,
		RequiredPercentage:  cfg.ThresholdPercentage(),
	}
	result.Admitted = req.FullyInternal() || projected.Compliant

	span.SetAttributes(
		attribute.String("franchise_id", req.FranchiseID.String()),
		attribute.Bool("admitted", result.Admitted),
	)

	if result.Admitted {
		g.metrics.RecordOrderDecision(ctx, decisionAdmitted)
		return result, nil
	}

	shortfall := revenue.Mul(ratio).Sub(projectedActual).Round(2)
	if shortfall.IsNegative() {
		shortfall = decimal.Zero
	}

	g.metrics.RecordOrderDecision(ctx, decisionRejected)
	g.log.Info("order rejected by compliance gate",
		zap.String("franchise_id", req.FranchiseID.String()),
		zap.String("period", result.Period.Label()),
		zap.String("current_percentage", result.CurrentPercentage.StringFixed(2)),
		zap.String("projected_percentage", result.ProjectedPercentage.StringFixed(2)),
		zap.String("shortfall", shortfall.StringFixed(2)),
	)
	return result, &compliancedomain.ViolationError{
		CurrentPercentage:   result.CurrentPercentage,
		ProjectedPercentage: result.ProjectedPercentage,
		RequiredPercentage:  result.RequiredPercentage,
		Shortfall:           shortfall,
		Currency:            cfg.Currency,
	}
}
