package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/franchisehub/internal/audit"
	"github.com/smallbiznis/franchisehub/internal/authorization"
	"github.com/smallbiznis/franchisehub/internal/clock"
	"github.com/smallbiznis/franchisehub/internal/compliance"
	"github.com/smallbiznis/franchisehub/internal/config"
	"github.com/smallbiznis/franchisehub/internal/franchise"
	"github.com/smallbiznis/franchisehub/internal/lock"
	"github.com/smallbiznis/franchisehub/internal/migration"
	"github.com/smallbiznis/franchisehub/internal/obligation"
	"github.com/smallbiznis/franchisehub/internal/observability"
	"github.com/smallbiznis/franchisehub/internal/order"
	"github.com/smallbiznis/franchisehub/internal/purchase"
	"github.com/smallbiznis/franchisehub/internal/sales"
	"github.com/smallbiznis/franchisehub/internal/server"
	"github.com/smallbiznis/franchisehub/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		lock.Module,
		authorization.Module,

		// Domains
		audit.Module,
		franchise.Module,
		sales.Module,
		purchase.Module,
		compliance.Module,
		obligation.Module,
		order.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
