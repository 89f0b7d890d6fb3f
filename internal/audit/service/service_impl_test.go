package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/franchisehub/internal/audit/domain"
	"github.com/smallbiznis/franchisehub/internal/audit/repository"
	"github.com/smallbiznis/franchisehub/internal/clock"
	obscontext "github.com/smallbiznis/franchisehub/internal/observability/context"
	"github.com/smallbiznis/franchisehub/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T) auditdomain.Service {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(Params{
		Log:   zaptest.NewLogger(t),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC)),
		Repo:  repository.NewRepository(conn),
	})
}

func TestAuditLogResolvesActorFromContext(t *testing.T) {
	svc := newTestService(t)
	franchiseID := snowflake.ID(42)
	targetID := " 77 "

	ctx := obscontext.WithActor(context.Background(), "admin", "")
	ctx = obscontext.WithRequestID(ctx, "req-1")
	require.NoError(t, svc.AuditLog(ctx, &franchiseID, auditdomain.ActionObligationPaid, "payment_obligation", &targetID, map[string]any{
		"kind": "commission",
		"":     "dropped",
	}))

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{FranchiseID: &franchiseID})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	entry := resp.AuditLogs[0]
	assert.Equal(t, "admin", entry.ActorType)
	assert.Nil(t, entry.ActorID)
	require.NotNil(t, entry.TargetID)
	assert.Equal(t, "77", *entry.TargetID)
	assert.Equal(t, "commission", entry.Metadata["kind"])
	assert.Equal(t, "req-1", entry.Metadata["request_id"])
	assert.NotContains(t, entry.Metadata, "")
}

func TestAuditLogDefaultsToSystemActor(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.AuditLog(context.Background(), nil, auditdomain.ActionCheckAll, "", nil, nil))

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, string(auditdomain.ActorTypeSystem), resp.AuditLogs[0].ActorType)
	assert.Equal(t, "unknown", resp.AuditLogs[0].TargetType)
	assert.Nil(t, resp.AuditLogs[0].FranchiseID)
}

func TestAuditLogRequiresAction(t *testing.T) {
	svc := newTestService(t)
	assert.ErrorIs(t, svc.AuditLog(context.Background(), nil, " ", "order", nil, nil), auditdomain.ErrInvalidAction)
}

func TestListPagesNewestFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.AuditLog(ctx, nil, auditdomain.ActionOrderPlaced, "order", nil, map[string]any{"seq": i}))
	}
	require.NoError(t, svc.AuditLog(ctx, nil, auditdomain.ActionOrderRejected, "order", nil, nil))

	first, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Action: auditdomain.ActionOrderPlaced, PageSize: 3})
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 3)
	require.NotEmpty(t, first.NextPageToken)
	assert.EqualValues(t, 4, first.AuditLogs[0].Metadata["seq"])

	second, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Action: auditdomain.ActionOrderPlaced, PageSize: 3, PageToken: first.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second.AuditLogs, 2)
	assert.Empty(t, second.NextPageToken)
	assert.EqualValues(t, 0, second.AuditLogs[1].Metadata["seq"])

	_, err = svc.List(ctx, auditdomain.ListAuditLogRequest{PageToken: "abc"})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)
}
