package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/franchisehub/internal/audit/domain"
	"github.com/smallbiznis/franchisehub/internal/clock"
	obligationdomain "github.com/smallbiznis/franchisehub/internal/obligation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type serviceParams struct {
	fx.In

	Log   *zap.Logger
	Clock clock.Clock
	Repo  obligationdomain.Repository
	Audit auditdomain.Service `optional:"true"`
}

type Service struct {
	log   *zap.Logger
	clock clock.Clock
	repo  obligationdomain.Repository
	audit auditdomain.Service
}

func NewService(p serviceParams) obligationdomain.Service {
	return &Service{
		log:   p.Log.Named("obligation.service"),
		clock: p.Clock,
		repo:  p.Repo,
		audit: p.Audit,
	}
}

// MarkPaid confirms a pending obligation. Confirming an already paid
// obligation is a no-op that returns it unchanged.
func (s *Service) MarkPaid(ctx context.Context, id snowflake.ID) (*obligationdomain.PaymentObligation, error) {
	if id == 0 {
		return nil, obligationdomain.ErrNotFound
	}

	changed, err := s.repo.MarkPaid(ctx, id, s.clock.Now().UTC())
	if err != nil {
		s.log.Error("failed to mark obligation paid", zap.String("obligation_id", id.String()), zap.Error(err))
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, obligationdomain.ErrNotFound
	}

	s.log.Info("obligation paid",
		zap.String("obligation_id", id.String()),
		zap.String("franchise_id", item.FranchiseID.String()),
		zap.String("kind", string(item.Kind)),
		zap.String("status", string(item.Status)),
	)
	if changed {
		recordAudit(ctx, s.audit, item, auditdomain.ActionObligationPaid)
	}
	return item, nil
}

func (s *Service) List(ctx context.Context, franchiseID snowflake.ID) ([]obligationdomain.PaymentObligation, error) {
	if franchiseID == 0 {
		return nil, obligationdomain.ErrInvalidFranchise
	}
	return s.repo.ListByFranchise(ctx, franchiseID)
}

func recordAudit(ctx context.Context, svc auditdomain.Service, o *obligationdomain.PaymentObligation, action string) {
	if svc == nil || o == nil {
		return
	}
	targetID := o.ID.String()
	_ = svc.AuditLog(ctx, &o.FranchiseID, action, "payment_obligation", &targetID, map[string]any{
		"kind":       string(o.Kind),
		"period_key": o.PeriodKey,
		"amount":     o.Amount.StringFixed(2),
		"currency":   o.Currency,
	})
}
