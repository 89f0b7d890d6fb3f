package server

import (
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	obligationdomain "github.com/smallbiznis/franchisehub/internal/obligation/domain"
)

type obligationResponse struct {
	ID          string          `json:"id"`
	FranchiseID string          `json:"franchise_id"`
	Kind        string          `json:"kind"`
	PeriodKey   string          `json:"period_key"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
}

type issueEntryFeeRequest struct {
	FranchiseID string `json:"franchise_id"`
}

func (s *Server) EntryFeeStatus(c *gin.Context) {
	franchiseID, err := callerFranchiseID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status, err := s.entryFeeGate.Check(c.Request.Context(), franchiseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": status})
}

// IssueEntryFee creates the pending entry-fee obligation at onboarding.
func (s *Server) IssueEntryFee(c *gin.Context) {
	var req issueEntryFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	franchiseID, err := parseSnowflakeID(req.FranchiseID)
	if err != nil {
		AbortWithError(c, newValidationError("franchise_id", "invalid_franchise", "invalid franchise id"))
		return
	}

	status, err := s.entryFeeGate.Ensure(c.Request.Context(), franchiseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": status})
}

// ListObligations lists the caller's obligations; admins pass ?franchise_id=.
func (s *Server) ListObligations(c *gin.Context) {
	var franchiseID snowflake.ID
	var err error
	if isAdmin(c) {
		franchiseID, err = parseSnowflakeID(c.Query("franchise_id"))
		if err != nil {
			AbortWithError(c, newValidationError("franchise_id", "invalid_franchise", "invalid franchise id"))
			return
		}
	} else {
		franchiseID, err = callerFranchiseID(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}
	}

	items, err := s.obligationSvc.List(c.Request.Context(), franchiseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := make([]obligationResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toObligationResponse(item))
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ConfirmObligation is called by the payment collaborator once funds settle.
func (s *Server) ConfirmObligation(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	item, err := s.obligationSvc.MarkPaid(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": toObligationResponse(*item)})
}

func toObligationResponse(o obligationdomain.PaymentObligation) obligationResponse {
	return obligationResponse{
		ID:          o.ID.String(),
		FranchiseID: o.FranchiseID.String(),
		Kind:        string(o.Kind),
		PeriodKey:   o.PeriodKey,
		Amount:      o.Amount,
		Currency:    o.Currency,
		Status:      string(o.Status),
		Description: o.Description,
		CreatedAt:   o.CreatedAt,
		PaidAt:      o.PaidAt,
	}
}
