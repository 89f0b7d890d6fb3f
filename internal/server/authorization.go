package server

import (
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/franchisehub/internal/franchisecontext"
)

func (s *Server) authorizeAction(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		role := franchisecontext.RoleFromContext(ctx)
		if role == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if role == franchisecontext.RoleFranchisee {
			if _, ok := franchisecontext.FranchiseIDFromContext(ctx); !ok {
				AbortWithError(c, ErrUnauthorized)
				return
			}
		}

		if err := s.authzSvc.Authorize(ctx, role, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func isAdmin(c *gin.Context) bool {
	return franchisecontext.RoleFromContext(c.Request.Context()) == franchisecontext.RoleAdmin
}
