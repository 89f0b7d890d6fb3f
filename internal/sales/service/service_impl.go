package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/franchisehub/internal/clock"
	"github.com/smallbiznis/franchisehub/internal/franchisecontext"
	salesdomain "github.com/smallbiznis/franchisehub/internal/sales/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type serviceParams struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  salesdomain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  salesdomain.Repository
}

func NewService(p serviceParams) salesdomain.Service {
	return &Service{
		log:   p.Log.Named("sales.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// Record stores the caller's sales figures. The period label defaults to the
// current month ("10/2026").
func (s *Service) Record(ctx context.Context, req salesdomain.RecordRequest) (*salesdomain.Response, error) {
	franchiseID, ok := franchisecontext.FranchiseIDFromContext(ctx)
	if !ok || franchiseID == 0 {
		return nil, salesdomain.ErrInvalidFranchise
	}

	now := s.clock.Now().UTC()
	label := strings.TrimSpace(req.PeriodLabel)
	if label == "" {
		label = now.Format("01/2006")
	}

	record := &salesdomain.SalesRecord{
		ID:          s.genID.Generate(),
		FranchiseID: franchiseID,
		PeriodLabel: label,
		Revenue:     req.Revenue.Round(2),
		OrderCount:  req.OrderCount,
		CreatedAt:   now,
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, record); err != nil {
		if !errors.Is(err, salesdomain.ErrDuplicatePeriod) {
			s.log.Error("failed to record sales",
				zap.String("franchise_id", franchiseID.String()),
				zap.String("period_label", label),
				zap.Error(err),
			)
		}
		return nil, err
	}

	resp := toResponse(record)
	return &resp, nil
}

func toResponse(r *salesdomain.SalesRecord) salesdomain.Response {
	return salesdomain.Response{
		ID:          r.ID.String(),
		FranchiseID: r.FranchiseID.String(),
		PeriodLabel: r.PeriodLabel,
		Revenue:     r.Revenue,
		OrderCount:  r.OrderCount,
		CreatedAt:   r.CreatedAt,
	}
}
