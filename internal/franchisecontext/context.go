// Package franchisecontext carries the calling franchise and actor role
// resolved by the upstream gateway.
package franchisecontext

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleAdmin      = "admin"
	RoleFranchisee = "franchisee"
)

type franchiseKey struct{}
type roleKey struct{}

// WithFranchiseID stores the calling franchise ID in the context.
func WithFranchiseID(ctx context.Context, franchiseID snowflake.ID) context.Context {
	return context.WithValue(ctx, franchiseKey{}, franchiseID)
}

// FranchiseIDFromContext returns the calling franchise ID, if set.
func FranchiseIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}
	switch typed := ctx.Value(franchiseKey{}).(type) {
	case snowflake.ID:
		return typed, typed != 0
	case int64:
		return snowflake.ID(typed), typed != 0
	case string:
		parsed, err := snowflake.ParseString(strings.TrimSpace(typed))
		if err == nil && parsed != 0 {
			return parsed, true
		}
	}
	return 0, false
}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey{}, strings.ToLower(strings.TrimSpace(role)))
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	role, _ := ctx.Value(roleKey{}).(string)
	return role
}
