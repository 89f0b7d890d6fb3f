package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	compliancedomain "github.com/smallbiznis/franchisehub/internal/compliance/domain"
	obligationdomain "github.com/smallbiznis/franchisehub/internal/obligation/domain"
)

type snapshotResponse struct {
	ID                   string          `json:"id"`
	FranchiseID          string          `json:"franchise_id"`
	Period               string          `json:"period"`
	PeriodStart          time.Time       `json:"period_start"`
	Granularity          string          `json:"granularity"`
	TotalRevenue         decimal.Decimal `json:"total_revenue"`
	RequiredPurchase     decimal.Decimal `json:"required_purchase"`
	FreePurchase         decimal.Decimal `json:"free_purchase"`
	ActualPurchase       decimal.Decimal `json:"actual_purchase"`
	CompliancePercentage decimal.Decimal `json:"compliance_percentage"`
	IsCompliant          bool            `json:"is_compliant"`
	Notes                string          `json:"notes"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

type summaryResponse struct {
	Period            string             `json:"period"`
	Granularity       string             `json:"granularity"`
	FranchiseCount    int                `json:"franchise_count"`
	CompliantCount    int                `json:"compliant_count"`
	NonCompliantCount int                `json:"non_compliant_count"`
	ComplianceRate    decimal.Decimal    `json:"compliance_rate"`
	TotalRevenue      decimal.Decimal    `json:"total_revenue"`
	TotalRequired     decimal.Decimal    `json:"total_required_purchase"`
	TotalFree         decimal.Decimal    `json:"total_free_purchase"`
	TotalActual       decimal.Decimal    `json:"total_actual_purchase"`
	Details           []snapshotResponse `json:"details,omitempty"`
}

type franchiseOverviewResponse struct {
	FranchiseID   string                          `json:"franchise_id"`
	FranchiseName string                          `json:"franchise_name"`
	Snapshot      snapshotResponse                `json:"snapshot"`
	Sales         []compliancedomain.SalesLine    `json:"sales"`
	Purchases     []compliancedomain.PurchaseLine `json:"purchases"`
}

type checkAllRequest struct {
	Month  int    `json:"month"`
	Year   int    `json:"year"`
	Period string `json:"period"`
}

type deriveObligationsRequest struct {
	FranchiseID string           `json:"franchise_id"`
	Month       int              `json:"month"`
	Year        int              `json:"year"`
	Period      string           `json:"period"`
	Revenue     *decimal.Decimal `json:"revenue"`
}

func (s *Server) ComplianceOverview(c *gin.Context) {
	var query periodQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	filter, err := s.reportFilter(query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	overview, err := s.reporter.Overview(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	franchises := make([]franchiseOverviewResponse, 0, len(overview.Franchises))
	for _, item := range overview.Franchises {
		franchises = append(franchises, franchiseOverviewResponse{
			FranchiseID:   item.FranchiseID.String(),
			FranchiseName: item.FranchiseName,
			Snapshot:      toSnapshotResponse(item.Snapshot),
			Sales:         item.Sales,
			Purchases:     item.Purchases,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"summary":    toSummaryResponse(overview.Summary, false),
		"franchises": franchises,
	}})
}

func (s *Server) ComplianceReport(c *gin.Context) {
	var query periodQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	filter, err := s.reportFilter(query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	summary, err := s.reporter.Summarize(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": toSummaryResponse(*summary, true)})
}

func (s *Server) ComplianceCheckAll(c *gin.Context) {
	var req checkAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	granularity, err := compliancedomain.ParseGranularity(req.Period)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.evaluator.EvaluateAll(c.Request.Context(), compliancedomain.CheckAllRequest{
		Month:       req.Month,
		Year:        req.Year,
		Granularity: granularity,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := make([]snapshotResponse, 0, len(result.Snapshots))
	for _, snapshot := range result.Snapshots {
		resp = append(resp, toSnapshotResponse(snapshot))
	}
	c.JSON(http.StatusOK, gin.H{"data": resp, "count": result.Count, "period": result.Period.Label()})
}

// ComplianceMe evaluates the calling franchise for the requested (default
// current) period.
func (s *Server) ComplianceMe(c *gin.Context) {
	franchiseID, err := callerFranchiseID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var query periodQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	filter, err := s.reportFilter(query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	snapshot, err := s.evaluator.Evaluate(c.Request.Context(), compliancedomain.EvaluateRequest{
		FranchiseID: franchiseID,
		PeriodStart: filter.PeriodStart,
		Granularity: filter.Granularity,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": toSnapshotResponse(*snapshot)})
}

func (s *Server) DeriveObligations(c *gin.Context) {
	var req deriveObligationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	franchiseID, err := parseSnowflakeID(req.FranchiseID)
	if err != nil {
		AbortWithError(c, newValidationError("franchise_id", "invalid_franchise", "invalid franchise id"))
		return
	}
	granularity, err := compliancedomain.ParseGranularity(req.Period)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	period, err := s.resolvePeriod(req.Month, req.Year, granularity)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.calculator.Derive(c.Request.Context(), obligationdomain.DeriveRequest{
		FranchiseID:   franchiseID,
		Period:        period,
		RevenueToDate: req.Revenue,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	obligations := make([]obligationResponse, 0, len(result.Obligations))
	for _, o := range result.Obligations {
		obligations = append(obligations, toObligationResponse(o))
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"franchise_id":       result.FranchiseID.String(),
		"period_key":         result.PeriodKey,
		"revenue":            result.Revenue,
		"commission":         result.Commission,
		"mandatory_purchase": result.MandatoryPurchase,
		"currency":           result.Currency,
		"commission_created": result.CommissionCreated,
		"mandatory_created":  result.MandatoryCreated,
		"obligations":        obligations,
	}})
}

func toSnapshotResponse(s compliancedomain.Snapshot) snapshotResponse {
	return snapshotResponse{
		ID:                   s.ID.String(),
		FranchiseID:          s.FranchiseID.String(),
		Period:               s.Period().Label(),
		PeriodStart:          s.PeriodStart.UTC(),
		Granularity:          string(s.Granularity),
		TotalRevenue:         s.TotalRevenue,
		RequiredPurchase:     s.RequiredPurchase,
		FreePurchase:         s.FreePurchase,
		ActualPurchase:       s.ActualPurchase,
		CompliancePercentage: s.CompliancePercentage,
		IsCompliant:          s.IsCompliant,
		Notes:                s.Notes,
		UpdatedAt:            s.UpdatedAt,
	}
}

func toSummaryResponse(summary compliancedomain.Summary, withDetails bool) summaryResponse {
	resp := summaryResponse{
		Period:            summary.Period.Label(),
		Granularity:       string(summary.Period.Granularity),
		FranchiseCount:    summary.FranchiseCount,
		CompliantCount:    summary.CompliantCount,
		NonCompliantCount: summary.NonCompliantCount,
		ComplianceRate:    summary.ComplianceRate,
		TotalRevenue:      summary.TotalRevenue,
		TotalRequired:     summary.TotalRequired,
		TotalFree:         summary.TotalFree,
		TotalActual:       summary.TotalActual,
	}
	if withDetails {
		resp.Details = make([]snapshotResponse, 0, len(summary.Details))
		for _, s := range summary.Details {
			resp.Details = append(resp.Details, toSnapshotResponse(s))
		}
	}
	return resp
}
