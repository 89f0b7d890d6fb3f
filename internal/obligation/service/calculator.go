package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/franchisehub/internal/audit/domain"
	"github.com/smallbiznis/franchisehub/internal/clock"
	"github.com/smallbiznis/franchisehub/internal/config"
	obligationdomain "github.com/smallbiznis/franchisehub/internal/obligation/domain"
	"github.com/smallbiznis/franchisehub/internal/observability/metrics"
	salesdomain "github.com/smallbiznis/franchisehub/internal/sales/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type CalculatorParams struct {
	fx.In

	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Config  *config.ComplianceConfigHolder
	Revenue salesdomain.RevenueSource
	Sink    obligationdomain.ObligationSink
	Metrics *metrics.Metrics    `optional:"true"`
	Audit   auditdomain.Service `optional:"true"`
}

type Calculator struct {
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	config  *config.ComplianceConfigHolder
	revenue salesdomain.RevenueSource
	sink    obligationdomain.ObligationSink
	metrics *metrics.Metrics
	audit   auditdomain.Service
}

func NewCalculator(p CalculatorParams) obligationdomain.Calculator {
	return &Calculator{
		log:     p.Log.Named("obligation.calculator"),
		genID:   p.GenID,
		clock:   p.Clock,
		config:  p.Config,
		revenue: p.Revenue,
		sink:    p.Sink,
		metrics: p.Metrics,
		audit:   p.Audit,
	}
}

// Derive computes the commission and mandatory-purchase target for a period
// and records each positive amount as a pending obligation. Re-deriving the
// same period refreshes pending amounts instead of creating duplicates.
func (s *Calculator) Derive(ctx context.Context, req obligationdomain.DeriveRequest) (*obligationdomain.DeriveResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	revenue, err := s.resolveRevenue(ctx, req)
	if err != nil {
		return nil, err
	}

	cfg := s.config.Get()
	result := &obligationdomain.DeriveResult{
		FranchiseID:       req.FranchiseID,
		PeriodKey:         req.Period.Key(),
		Revenue:           revenue,
		Commission:        revenue.Mul(cfg.Commission()).Round(2),
		MandatoryPurchase: revenue.Mul(cfg.Ratio()).Round(2),
		Currency:          cfg.Currency,
	}

	now := s.clock.Now().UTC()
	derived := []struct {
		kind        obligationdomain.Kind
		amount      decimal.Decimal
		description string
		created     *bool
	}{
		{
			kind:        obligationdomain.KindCommission,
			amount:      result.Commission,
			description: fmt.Sprintf("commission %s%% on revenue %s", cfg.Commission().Shift(2).String(), req.Period.Label()),
			created:     &result.CommissionCreated,
		},
		{
			kind:        obligationdomain.KindMandatoryPurchase,
			amount:      result.MandatoryPurchase,
			description: fmt.Sprintf("mandatory internal purchase %s%% of revenue %s", cfg.Ratio().Shift(2).String(), req.Period.Label()),
			created:     &result.MandatoryCreated,
		},
	}

	for _, d := range derived {
		if !d.amount.IsPositive() {
			continue
		}
		stored, created, err := s.record(ctx, req, d.kind, d.amount, cfg.Currency, d.description, now)
		if err != nil {
			return nil, err
		}
		*d.created = created
		result.Obligations = append(result.Obligations, *stored)
		s.metrics.RecordObligationDerived(ctx, string(d.kind), created)
		if created {
			recordAudit(ctx, s.audit, stored, auditdomain.ActionObligationCreated)
		}
	}

	s.log.Info("obligations derived",
		zap.String("franchise_id", req.FranchiseID.String()),
		zap.String("period", result.PeriodKey),
		zap.String("revenue", revenue.StringFixed(2)),
		zap.Bool("commission_created", result.CommissionCreated),
		zap.Bool("mandatory_created", result.MandatoryCreated),
	)
	return result, nil
}

func (s *Calculator) resolveRevenue(ctx context.Context, req obligationdomain.DeriveRequest) (decimal.Decimal, error) {
	if req.RevenueToDate != nil {
		return req.RevenueToDate.Round(2), nil
	}
	total, err := s.revenue.SumRevenue(ctx, req.FranchiseID, req.Period.Start, req.Period.End)
	if err != nil {
		s.log.Error("failed to aggregate revenue",
			zap.String("franchise_id", req.FranchiseID.String()),
			zap.String("period", req.Period.Key()),
			zap.Error(err),
		)
		return decimal.Zero, err
	}
	return total.Revenue, nil
}

func (s *Calculator) record(ctx context.Context, req obligationdomain.DeriveRequest, kind obligationdomain.Kind, amount decimal.Decimal, currency, description string, now time.Time) (*obligationdomain.PaymentObligation, bool, error) {
	obligation := &obligationdomain.PaymentObligation{
		ID:          s.genID.Generate(),
		FranchiseID: req.FranchiseID,
		Kind:        kind,
		PeriodKey:   req.Period.Key(),
		Amount:      amount,
		Currency:    currency,
		Status:      obligationdomain.StatusPending,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := obligation.Validate(); err != nil {
		return nil, false, err
	}

	stored, created, err := s.sink.UpsertPending(ctx, obligation)
	if err != nil {
		s.log.Error("failed to record obligation",
			zap.String("franchise_id", req.FranchiseID.String()),
			zap.String("kind", string(kind)),
			zap.String("period", obligation.PeriodKey),
			zap.Error(err),
		)
		return nil, false, err
	}
	return stored, created, nil
}
