package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	salesdomain "github.com/smallbiznis/franchisehub/internal/sales/domain"
)

func (s *Server) RecordSales(c *gin.Context) {
	var req salesdomain.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.salesSvc.Record(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}
