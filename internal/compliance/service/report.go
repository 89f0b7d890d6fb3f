package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/franchisehub/internal/clock"
	compliancedomain "github.com/smallbiznis/franchisehub/internal/compliance/domain"
	franchisedomain "github.com/smallbiznis/franchisehub/internal/franchise/domain"
	purchasedomain "github.com/smallbiznis/franchisehub/internal/purchase/domain"
	salesdomain "github.com/smallbiznis/franchisehub/internal/sales/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ReporterParams struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	Repo       compliancedomain.Repository
	Franchises franchisedomain.Reader
	Sales      salesdomain.Repository
	Purchases  purchasedomain.Repository
}

type Reporter struct {
	log        *zap.Logger
	clock      clock.Clock
	repo       compliancedomain.Repository
	franchises franchisedomain.Reader
	sales      salesdomain.Repository
	purchases  purchasedomain.Repository
}

func NewReporter(p ReporterParams) compliancedomain.Reporter {
	return &Reporter{
		log:        p.Log.Named("compliance.reporter"),
		clock:      p.Clock,
		repo:       p.Repo,
		franchises: p.Franchises,
		sales:      p.Sales,
		purchases:  p.Purchases,
	}
}

// Summarize aggregates the stored snapshots of one period. It never
// evaluates; callers run check-all first when fresh figures are needed.
func (r *Reporter) Summarize(ctx context.Context, filter compliancedomain.ReportFilter) (*compliancedomain.Summary, error) {
	period, err := r.resolvePeriod(filter)
	if err != nil {
		return nil, err
	}

	snapshots, err := r.repo.List(ctx, compliancedomain.ListFilter{
		PeriodStart: period.Start,
		Granularity: period.Granularity,
	})
	if err != nil {
		r.log.Error("failed to list snapshots", zap.String("period", period.Label()), zap.Error(err))
		return nil, err
	}

	summary := Aggregate(snapshots)
	summary.Period = period
	return &summary, nil
}

func (r *Reporter) Overview(ctx context.Context, filter compliancedomain.ReportFilter) (*compliancedomain.Overview, error) {
	summary, err := r.Summarize(ctx, filter)
	if err != nil {
		return nil, err
	}

	franchises, err := r.franchises.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[snowflake.ID]string, len(franchises))
	for _, f := range franchises {
		names[f.ID] = f.Name
	}

	period := summary.Period
	overview := &compliancedomain.Overview{
		Summary:    *summary,
		Franchises: make([]compliancedomain.FranchiseOverview, 0, len(summary.Details)),
	}
	for _, snapshot := range summary.Details {
		item := compliancedomain.FranchiseOverview{
			FranchiseID:   snapshot.FranchiseID,
			FranchiseName: names[snapshot.FranchiseID],
			Snapshot:      snapshot,
		}

		sales, err := r.sales.ListByPeriod(ctx, snapshot.FranchiseID, period.Start, period.End)
		if err != nil {
			return nil, err
		}
		for _, s := range sales {
			item.Sales = append(item.Sales, compliancedomain.SalesLine{
				PeriodLabel: s.PeriodLabel,
				Revenue:     s.Revenue,
				OrderCount:  s.OrderCount,
				CreatedAt:   s.CreatedAt,
			})
		}

		purchases, err := r.purchases.ListByPeriod(ctx, snapshot.FranchiseID, period.Start, period.End)
		if err != nil {
			return nil, err
		}
		for _, p := range purchases {
			item.Purchases = append(item.Purchases, compliancedomain.PurchaseLine{
				ProductRef:        p.ProductRef,
				Quantity:          p.Quantity,
				UnitPrice:         p.UnitPrice,
				Value:             p.Value().Round(2),
				SourcedInternally: p.SourcedInternally,
				CreatedAt:         p.CreatedAt,
			})
		}

		overview.Franchises = append(overview.Franchises, item)
	}
	return overview, nil
}

func (r *Reporter) resolvePeriod(filter compliancedomain.ReportFilter) (compliancedomain.Period, error) {
	granularity := filter.Granularity
	if granularity == "" {
		granularity = compliancedomain.GranularityMonthly
	}
	at := filter.PeriodStart
	if at.IsZero() {
		at = r.clock.Now()
	}
	return compliancedomain.PeriodFor(at, granularity)
}

// Aggregate folds snapshots into summary totals. An empty input has a
// compliance rate of 0.
func Aggregate(snapshots []compliancedomain.Snapshot) compliancedomain.Summary {
	summary := compliancedomain.Summary{
		ComplianceRate: decimal.Zero,
		TotalRevenue:   decimal.Zero,
		TotalRequired:  decimal.Zero,
		TotalFree:      decimal.Zero,
		TotalActual:    decimal.Zero,
		Details:        snapshots,
	}
	for _, s := range snapshots {
		summary.FranchiseCount++
		if s.IsCompliant {
			summary.CompliantCount++
		} else {
			summary.NonCompliantCount++
		}
		summary.TotalRevenue = summary.TotalRevenue.Add(s.TotalRevenue)
		summary.TotalRequired = summary.TotalRequired.Add(s.RequiredPurchase)
		summary.TotalFree = summary.TotalFree.Add(s.FreePurchase)
		summary.TotalActual = summary.TotalActual.Add(s.ActualPurchase)
	}
	if summary.FranchiseCount > 0 {
		summary.ComplianceRate = compliancedomain.Percentage(
			decimal.NewFromInt(int64(summary.CompliantCount)),
			decimal.NewFromInt(int64(summary.FranchiseCount)),
		)
	}
	return summary
}
