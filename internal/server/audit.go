package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/franchisehub/internal/audit/domain"
)

type auditLogQuery struct {
	FranchiseID string `form:"franchise_id"`
	Action      string `form:"action"`
	TargetType  string `form:"target_type"`
	PageToken   string `form:"page_token"`
	PageSize    string `form:"page_size"`
}

func (s *Server) ListAuditLogs(c *gin.Context) {
	var query auditLogQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := auditdomain.ListAuditLogRequest{
		Action:     strings.TrimSpace(query.Action),
		TargetType: strings.TrimSpace(query.TargetType),
		PageToken:  query.PageToken,
	}
	if strings.TrimSpace(query.FranchiseID) != "" {
		franchiseID, err := parseSnowflakeID(query.FranchiseID)
		if err != nil {
			AbortWithError(c, newValidationError("franchise_id", "invalid_franchise", "invalid franchise id"))
			return
		}
		req.FranchiseID = &franchiseID
	}
	pageSize, err := parseOptionalInt(query.PageSize)
	if err != nil || pageSize < 0 {
		AbortWithError(c, newValidationError("page_size", "invalid_page_size", "invalid page size"))
		return
	}
	req.PageSize = pageSize

	resp, err := s.auditSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.AuditLogs, "next_page_token": resp.NextPageToken})
}
