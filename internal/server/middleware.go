package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/franchisehub/internal/franchisecontext"
	obscontext "github.com/smallbiznis/franchisehub/internal/observability/context"
)

// Identity headers asserted by the upstream auth gateway.
const (
	HeaderFranchise = "X-Franchise-ID"
	HeaderRole      = "X-Actor-Role"
)

// FranchiseContext copies the gateway identity headers into the request
// context. A malformed franchise ID is rejected; missing headers are left
// for the authorization step to refuse.
func (s *Server) FranchiseContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		role := strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderRole)))
		if role != "" {
			ctx = franchisecontext.WithRole(ctx, role)
		}

		rawID := strings.TrimSpace(c.GetHeader(HeaderFranchise))
		if rawID != "" {
			franchiseID, err := snowflake.ParseString(rawID)
			if err != nil || franchiseID == 0 {
				AbortWithError(c, newValidationError("franchise_id", "invalid_franchise", "invalid franchise id"))
				return
			}
			ctx = franchisecontext.WithFranchiseID(ctx, franchiseID)
			ctx = obscontext.WithFranchiseID(ctx, franchiseID.String())
		}
		ctx = obscontext.WithActor(ctx, role, rawID)

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireEntryFeePaid refuses the request with 402 until the calling
// franchise has paid its entry fee. Protected routes mount behind it.
func (s *Server) RequireEntryFeePaid() gin.HandlerFunc {
	return func(c *gin.Context) {
		franchiseID, ok := franchisecontext.FranchiseIDFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if err := s.entryFeeGate.Require(c.Request.Context(), franchiseID); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func callerFranchiseID(c *gin.Context) (snowflake.ID, error) {
	franchiseID, ok := franchisecontext.FranchiseIDFromContext(c.Request.Context())
	if !ok {
		return 0, ErrUnauthorized
	}
	return franchiseID, nil
}
