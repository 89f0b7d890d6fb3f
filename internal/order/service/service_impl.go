package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	auditdomain "github.com/smallbiznis/franchisehub/internal/audit/domain"
	"github.com/smallbiznis/franchisehub/internal/clock"
	compliancedomain "github.com/smallbiznis/franchisehub/internal/compliance/domain"
	"github.com/smallbiznis/franchisehub/internal/franchisecontext"
	orderdomain "github.com/smallbiznis/franchisehub/internal/order/domain"
	purchasedomain "github.com/smallbiznis/franchisehub/internal/purchase/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type serviceParams struct {
	fx.In

	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Gate      compliancedomain.OrderGate
	Purchases purchasedomain.Repository
	Audit     auditdomain.Service `optional:"true"`
}

type Service struct {
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	gate      compliancedomain.OrderGate
	purchases purchasedomain.Repository
	audit     auditdomain.Service
}

func NewService(p serviceParams) orderdomain.Service {
	return &Service{
		log:       p.Log.Named("order.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		gate:      p.Gate,
		purchases: p.Purchases,
		audit:     p.Audit,
	}
}

// Place runs the compliance gate and, when admitted, records the order lines
// as purchase records. A rejected order records nothing but an audit entry.
func (s *Service) Place(ctx context.Context, req orderdomain.PlaceOrderRequest) (*orderdomain.Response, error) {
	franchiseID, ok := franchisecontext.FranchiseIDFromContext(ctx)
	if !ok || franchiseID == 0 {
		return nil, orderdomain.ErrInvalidFranchise
	}
	if len(req.Lines) == 0 {
		return nil, orderdomain.ErrEmptyOrder
	}
	for _, line := range req.Lines {
		if err := line.Validate(); err != nil {
			return nil, err
		}
	}

	reference := strings.TrimSpace(req.Reference)
	if reference == "" {
		reference = "PO-" + ulid.Make().String()
	}

	total, internal := req.Totals()
	check, err := s.gate.CheckOrder(ctx, compliancedomain.OrderCheckRequest{
		FranchiseID:           franchiseID,
		ProposedOrderValue:    total,
		ProposedInternalValue: internal,
	})
	if err != nil {
		var violation *compliancedomain.ViolationError
		if errors.As(err, &violation) {
			s.recordAudit(ctx, franchiseID, auditdomain.ActionOrderRejected, reference, map[string]any{
				"total_value":          total.StringFixed(2),
				"internal_value":       internal.StringFixed(2),
				"projected_percentage": violation.ProjectedPercentage.StringFixed(2),
				"shortfall":            violation.Shortfall.StringFixed(2),
			})
		}
		return nil, err
	}

	now := s.clock.Now().UTC()
	records := make([]purchasedomain.PurchaseRecord, 0, len(req.Lines))
	for _, line := range req.Lines {
		record := purchasedomain.PurchaseRecord{
			ID:                s.genID.Generate(),
			FranchiseID:       franchiseID,
			ProductRef:        strings.TrimSpace(line.ProductRef),
			Quantity:          line.Quantity,
			UnitPrice:         line.UnitPrice,
			SourcedInternally: line.Internal,
			OrderRef:          reference,
			CreatedAt:         now,
		}
		if err := record.Validate(); err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := s.purchases.CreateBatch(ctx, records); err != nil {
		s.log.Error("failed to record order lines",
			zap.String("franchise_id", franchiseID.String()),
			zap.String("order_ref", reference),
			zap.Error(err),
		)
		return nil, err
	}
	s.recordAudit(ctx, franchiseID, auditdomain.ActionOrderPlaced, reference, map[string]any{
		"total_value":    total.StringFixed(2),
		"internal_value": internal.StringFixed(2),
		"lines":          len(records),
	})

	return &orderdomain.Response{
		Reference:           reference,
		TotalValue:          total,
		InternalValue:       internal,
		LineCount:           len(records),
		CurrentPercentage:   check.CurrentPercentage,
		ProjectedPercentage: check.ProjectedPercentage,
	}, nil
}

func (s *Service) recordAudit(ctx context.Context, franchiseID snowflake.ID, action, reference string, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.AuditLog(ctx, &franchiseID, action, "order", &reference, metadata)
}
