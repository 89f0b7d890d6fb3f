package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/franchisehub/internal/audit/domain"
	"github.com/smallbiznis/franchisehub/internal/clock"
	compliancedomain "github.com/smallbiznis/franchisehub/internal/compliance/domain"
	"github.com/smallbiznis/franchisehub/internal/config"
	franchisedomain "github.com/smallbiznis/franchisehub/internal/franchise/domain"
	"github.com/smallbiznis/franchisehub/internal/lock"
	"github.com/smallbiznis/franchisehub/internal/observability/metrics"
	purchasedomain "github.com/smallbiznis/franchisehub/internal/purchase/domain"
	salesdomain "github.com/smallbiznis/franchisehub/internal/sales/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	evaluationLockTTL  = 30 * time.Second
	evaluationLockWait = 5 * time.Second
)

var tracer = otel.Tracer("franchisehub/compliance")

type EvaluatorParams struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Config     *config.ComplianceConfigHolder
	Repo       compliancedomain.Repository
	Franchises franchisedomain.Reader
	Revenue    salesdomain.RevenueSource
	Purchases  purchasedomain.PurchaseSource
	Locker     *lock.Locker        `optional:"true"`
	Metrics    *metrics.Metrics    `optional:"true"`
	Audit      auditdomain.Service `optional:"true"`
}

type Evaluator struct {
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	config     *config.ComplianceConfigHolder
	repo       compliancedomain.Repository
	franchises franchisedomain.Reader
	revenue    salesdomain.RevenueSource
	purchases  purchasedomain.PurchaseSource
	locker     *lock.Locker
	metrics    *metrics.Metrics
	audit      auditdomain.Service
}

func NewEvaluator(p EvaluatorParams) compliancedomain.Evaluator {
	return &Evaluator{
		log:        p.Log.Named("compliance.evaluator"),
		genID:      p.GenID,
		clock:      p.Clock,
		config:     p.Config,
		repo:       p.Repo,
		franchises: p.Franchises,
		revenue:    p.Revenue,
		purchases:  p.Purchases,
		locker:     p.Locker,
		metrics:    p.Metrics,
		audit:      p.Audit,
	}
}

func (s *Evaluator) Evaluate(ctx context.Context, req compliancedomain.EvaluateRequest) (*compliancedomain.Snapshot, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	period, err := compliancedomain.PeriodFor(req.PeriodStart, req.Granularity)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "compliance.evaluate")
	defer span.End()
	span.SetAttributes(
		attribute.String("franchise_id", req.FranchiseID.String()),
		attribute.String("granularity", string(period.Granularity)),
		attribute.String("period", period.Label()),
	)

	franchise, err := s.franchises.FindByID(ctx, req.FranchiseID)
	if err != nil {
		span.SetStatus(codes.Error, "franchise lookup failed")
		return nil, s.persistenceError("find franchise", req.FranchiseID, period, err)
	}
	if franchise == nil {
		return nil, compliancedomain.ErrFranchiseNotFound
	}

	var snapshot *compliancedomain.Snapshot
	key := fmt.Sprintf("franchisehub:compliance:%s:%s", req.FranchiseID, period.Key())
	err = s.locker.WithLock(ctx, key, evaluationLockTTL, evaluationLockWait, func(ctx context.Context) error {
		var evalErr error
		snapshot, evalErr = s.evaluate(ctx, req.FranchiseID, period)
		return evalErr
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation failed")
		return nil, err
	}

	span.SetAttributes(attribute.Bool("compliant", snapshot.IsCompliant))
	s.metrics.RecordEvaluation(ctx, string(period.Granularity), snapshot.IsCompliant)
	return snapshot, nil
}

func (s *Evaluator) evaluate(ctx context.Context, franchiseID snowflake.ID, period compliancedomain.Period) (*compliancedomain.Snapshot, error) {
	revenue, err := s.revenue.SumRevenue(ctx, franchiseID, period.Start, period.End)
	if err != nil {
		return nil, s.persistenceError("sum revenue", franchiseID, period, err)
	}
	actual, err := s.purchases.SumInternalValue(ctx, franchiseID, period.Start, period.End)
	if err != nil {
		return nil, s.persistenceError("sum internal purchases", franchiseID, period, err)
	}

	figures := compliancedomain.Compute(revenue.Revenue, actual, s.config.Get().Ratio())
	now := s.clock.Now().UTC()
	candidate := &compliancedomain.Snapshot{
		ID:                   s.genID.Generate(),
		FranchiseID:          franchiseID,
		PeriodStart:          period.Start,
		Granularity:          period.Granularity,
		TotalRevenue:         figures.Revenue,
		RequiredPurchase:     figures.Required,
		FreePurchase:         figures.Free,
		ActualPurchase:       figures.Actual,
		CompliancePercentage: figures.Percentage,
		IsCompliant:          figures.Compliant,
		Notes:                fmt.Sprintf("automatic %s check — %s", period.Granularity, period.Label()),
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	stored, err := s.repo.Upsert(ctx, candidate)
	if err != nil {
		return nil, s.persistenceError("upsert snapshot", franchiseID, period, err)
	}

	s.log.Debug("compliance evaluated",
		zap.String("franchise_id", franchiseID.String()),
		zap.String("period", period.Label()),
		zap.String("revenue", figures.Revenue.StringFixed(2)),
		zap.String("actual", figures.Actual.StringFixed(2)),
		zap.String("percentage", figures.Percentage.StringFixed(2)),
		zap.Bool("compliant", figures.Compliant),
		zap.Int("sales_records", int(revenue.Count)),
	)
	return stored, nil
}

// EvaluateAll evaluates every active franchise for one period. The first
// failure aborts the batch.
func (s *Evaluator) EvaluateAll(ctx context.Context, req compliancedomain.CheckAllRequest) (*compliancedomain.CheckAllResult, error) {
	granularity := req.Granularity
	if granularity == "" {
		granularity = compliancedomain.GranularityMonthly
	}

	now := s.clock.Now().UTC()
	year, month := req.Year, req.Month
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	period, err := compliancedomain.NewPeriod(year, month, granularity)
	if err != nil {
		return nil, err
	}

	franchises, err := s.franchises.ListActive(ctx)
	if err != nil {
		return nil, s.persistenceError("list franchises", 0, period, err)
	}

	result := &compliancedomain.CheckAllResult{
		Period:    period,
		Snapshots: make([]compliancedomain.Snapshot, 0, len(franchises)),
	}
	for _, franchise := range franchises {
		snapshot, err := s.Evaluate(ctx, compliancedomain.EvaluateRequest{
			FranchiseID: franchise.ID,
			PeriodStart: period.Start,
			Granularity: granularity,
		})
		if err != nil {
			return nil, err
		}
		result.Snapshots = append(result.Snapshots, *snapshot)
	}
	result.Count = len(result.Snapshots)

	compliant := 0
	for _, snapshot := range result.Snapshots {
		if snapshot.IsCompliant {
			compliant++
		}
	}
	s.log.Info("compliance batch evaluated",
		zap.String("period", period.Label()),
		zap.String("granularity", string(granularity)),
		zap.Int("count", result.Count),
		zap.Int("compliant", compliant),
	)
	if s.audit != nil {
		periodKey := period.Key()
		_ = s.audit.AuditLog(ctx, nil, auditdomain.ActionCheckAll, "compliance_period", &periodKey, map[string]any{
			"count":     result.Count,
			"compliant": compliant,
		})
	}
	return result, nil
}

func (s *Evaluator) persistenceError(op string, franchiseID snowflake.ID, period compliancedomain.Period, err error) error {
	s.log.Error("compliance storage failure",
		zap.String("op", op),
		zap.String("franchise_id", franchiseID.String()),
		zap.String("period", period.Label()),
		zap.Error(err),
	)
	return fmt.Errorf("%s: %w: %w", op, compliancedomain.ErrPersistence, err)
}
