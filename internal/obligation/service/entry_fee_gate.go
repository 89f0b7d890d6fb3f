package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/franchisehub/internal/audit/domain"
	"github.com/smallbiznis/franchisehub/internal/cache"
	"github.com/smallbiznis/franchisehub/internal/clock"
	"github.com/smallbiznis/franchisehub/internal/config"
	obligationdomain "github.com/smallbiznis/franchisehub/internal/obligation/domain"
	"github.com/smallbiznis/franchisehub/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type EntryFeeGateParams struct {
	fx.In

	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Config  *config.ComplianceConfigHolder
	Repo    obligationdomain.Repository
	Metrics *metrics.Metrics    `optional:"true"`
	Audit   auditdomain.Service `optional:"true"`
}

type EntryFeeGate struct {
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	config  *config.ComplianceConfigHolder
	repo    obligationdomain.Repository
	metrics *metrics.Metrics
	audit   auditdomain.Service
	// paid is terminal, so positive answers never go stale.
	paid cache.Cache[snowflake.ID, obligationdomain.EntryFeeStatus]
}

func NewEntryFeeGate(p EntryFeeGateParams) obligationdomain.EntryFeeGate {
	return &EntryFeeGate{
		log:     p.Log.Named("obligation.entry_fee_gate"),
		genID:   p.GenID,
		clock:   p.Clock,
		config:  p.Config,
		repo:    p.Repo,
		metrics: p.Metrics,
		audit:   p.Audit,
		paid:    cache.NewTTLCache[snowflake.ID, obligationdomain.EntryFeeStatus](),
	}
}

func (g *EntryFeeGate) Check(ctx context.Context, franchiseID snowflake.ID) (*obligationdomain.EntryFeeStatus, error) {
	if franchiseID == 0 {
		return nil, obligationdomain.ErrInvalidFranchise
	}
	if status, ok := g.paid.Get(franchiseID); ok {
		return &status, nil
	}

	obligation, err := g.repo.FindByKey(ctx, franchiseID, obligationdomain.KindEntryFee, obligationdomain.LifetimeKey)
	if err != nil {
		g.log.Error("failed to load entry fee", zap.String("franchise_id", franchiseID.String()), zap.Error(err))
		return nil, err
	}

	status := g.statusOf(obligation)
	if status.Paid {
		g.paid.Set(franchiseID, *status, 0)
	}
	return status, nil
}

// Require returns a *PaymentRequiredError unless the entry fee is paid.
func (g *EntryFeeGate) Require(ctx context.Context, franchiseID snowflake.ID) error {
	status, err := g.Check(ctx, franchiseID)
	if err != nil {
		return err
	}
	if status.Paid {
		return nil
	}

	g.metrics.RecordEntryFeeDenied(ctx, string(status.State))
	return &obligationdomain.PaymentRequiredError{
		State:    status.State,
		Amount:   status.Amount,
		Currency: status.Currency,
	}
}

// Ensure creates the pending entry-fee obligation for a newly onboarded
// franchise. Calling it again returns the existing obligation's status.
func (g *EntryFeeGate) Ensure(ctx context.Context, franchiseID snowflake.ID) (*obligationdomain.EntryFeeStatus, error) {
	if franchiseID == 0 {
		return nil, obligationdomain.ErrInvalidFranchise
	}

	cfg := g.config.Get()
	now := g.clock.Now().UTC()
	obligation, issued, err := g.repo.EnsureEntryFee(ctx, &obligationdomain.PaymentObligation{
		ID:          g.genID.Generate(),
		FranchiseID: franchiseID,
		Kind:        obligationdomain.KindEntryFee,
		PeriodKey:   obligationdomain.LifetimeKey,
		Amount:      cfg.EntryFeeAmount(),
		Currency:    cfg.Currency,
		Status:      obligationdomain.StatusPending,
		Description: fmt.Sprintf("franchise entry fee %s %s", cfg.EntryFeeAmount().StringFixed(2), cfg.Currency),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		g.log.Error("failed to ensure entry fee", zap.String("franchise_id", franchiseID.String()), zap.Error(err))
		return nil, err
	}
	if issued {
		g.log.Info("entry fee issued", zap.String("franchise_id", franchiseID.String()))
		recordAudit(ctx, g.audit, obligation, auditdomain.ActionEntryFeeIssued)
	}
	return g.statusOf(obligation), nil
}

func (g *EntryFeeGate) statusOf(obligation *obligationdomain.PaymentObligation) *obligationdomain.EntryFeeStatus {
	if obligation == nil {
		cfg := g.config.Get()
		return &obligationdomain.EntryFeeStatus{
			State:    obligationdomain.EntryFeeUnpaid,
			Amount:   cfg.EntryFeeAmount(),
			Currency: cfg.Currency,
		}
	}

	status := &obligationdomain.EntryFeeStatus{
		Exists:   true,
		Amount:   obligation.Amount,
		Currency: obligation.Currency,
	}
	switch obligation.Status {
	case obligationdomain.StatusPaid:
		status.State = obligationdomain.EntryFeePaid
		status.Paid = true
	case obligationdomain.StatusPending:
		status.State = obligationdomain.EntryFeePending
	default:
		status.State = obligationdomain.EntryFeeUnpaid
	}
	return status
}
