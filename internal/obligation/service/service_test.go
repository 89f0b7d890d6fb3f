package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/franchisehub/internal/audit/domain"
	auditrepo "github.com/smallbiznis/franchisehub/internal/audit/repository"
	auditservice "github.com/smallbiznis/franchisehub/internal/audit/service"
	"github.com/smallbiznis/franchisehub/internal/clock"
	compliancedomain "github.com/smallbiznis/franchisehub/internal/compliance/domain"
	"github.com/smallbiznis/franchisehub/internal/config"
	obligationdomain "github.com/smallbiznis/franchisehub/internal/obligation/domain"
	obligationrepo "github.com/smallbiznis/franchisehub/internal/obligation/repository"
	salesdomain "github.com/smallbiznis/franchisehub/internal/sales/domain"
	salesrepo "github.com/smallbiznis/franchisehub/internal/sales/repository"
	"github.com/smallbiznis/franchisehub/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type testEnv struct {
	db         *gorm.DB
	node       *snowflake.Node
	clock      *clock.FakeClock
	repo       obligationdomain.Repository
	sales      salesdomain.Repository
	calculator obligationdomain.Calculator
	gate       obligationdomain.EntryFeeGate
	service    obligationdomain.Service
	audit      auditdomain.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&obligationdomain.PaymentObligation{}, &salesdomain.SalesRecord{}, &auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	log := zaptest.NewLogger(t)
	fake := clock.NewFakeClock(time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC))
	holder := config.NewStaticComplianceConfig(config.DefaultComplianceConfig())
	repo := obligationrepo.NewRepository(conn)
	sales := salesrepo.NewRepository(conn)
	audit := auditservice.NewService(auditservice.Params{Log: log, GenID: node, Clock: fake, Repo: auditrepo.NewRepository(conn)})

	return &testEnv{
		db:    conn,
		node:  node,
		clock: fake,
		repo:  repo,
		sales: sales,
		calculator: NewCalculator(CalculatorParams{
			Log: log, GenID: node, Clock: fake, Config: holder, Revenue: sales, Sink: repo, Audit: audit,
		}),
		gate: NewEntryFeeGate(EntryFeeGateParams{
			Log: log, GenID: node, Clock: fake, Config: holder, Repo: repo, Audit: audit,
		}),
		service: NewService(serviceParams{Log: log, Clock: fake, Repo: repo, Audit: audit}),
		audit:   audit,
	}
}

func (e *testEnv) count(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&obligationdomain.PaymentObligation{}).Count(&n).Error)
	return n
}

func october(t *testing.T) compliancedomain.Period {
	t.Helper()
	p, err := compliancedomain.NewPeriod(2026, 10, compliancedomain.GranularityMonthly)
	require.NoError(t, err)
	return p
}

func TestDeriveFromExplicitRevenue(t *testing.T) {
	env := newTestEnv(t)
	revenue := decimal.NewFromInt(10000)
	franchiseID := env.node.Generate()

	result, err := env.calculator.Derive(context.Background(), obligationdomain.DeriveRequest{
		FranchiseID:   franchiseID,
		Period:        october(t),
		RevenueToDate: &revenue,
	})
	require.NoError(t, err)

	assert.Equal(t, "400.00", result.Commission.StringFixed(2))
	assert.Equal(t, "8000.00", result.MandatoryPurchase.StringFixed(2))
	assert.True(t, result.CommissionCreated)
	assert.True(t, result.MandatoryCreated)
	assert.Equal(t, "monthly:2026-10", result.PeriodKey)
	assert.Len(t, result.Obligations, 2)
	assert.Equal(t, int64(2), env.count(t))
}

func TestDeriveTwiceCreatesNoDuplicates(t *testing.T) {
	env := newTestEnv(t)
	franchiseID := env.node.Generate()
	req := obligationdomain.DeriveRequest{FranchiseID: franchiseID, Period: october(t)}

	require.NoError(t, env.sales.Create(context.Background(), &salesdomain.SalesRecord{
		ID: env.node.Generate(), FranchiseID: franchiseID, PeriodLabel: "10/2026",
		Revenue: decimal.NewFromInt(5000), CreatedAt: october(t).Start,
	}))

	first, err := env.calculator.Derive(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "200.00", first.Commission.StringFixed(2))

	second, err := env.calculator.Derive(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, second.CommissionCreated)
	assert.False(t, second.MandatoryCreated)
	assert.True(t, first.Commission.Equal(second.Commission))
	assert.True(t, first.MandatoryPurchase.Equal(second.MandatoryPurchase))
	assert.Equal(t, int64(2), env.count(t))
}

func TestDeriveRefreshesPendingButNotPaid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	franchiseID := env.node.Generate()
	period := october(t)

	low := decimal.NewFromInt(1000)
	first, err := env.calculator.Derive(ctx, obligationdomain.DeriveRequest{FranchiseID: franchiseID, Period: period, RevenueToDate: &low})
	require.NoError(t, err)

	var commissionID snowflake.ID
	for _, o := range first.Obligations {
		if o.Kind == obligationdomain.KindCommission {
			commissionID = o.ID
		}
	}
	require.NotZero(t, commissionID)
	_, err = env.service.MarkPaid(ctx, commissionID)
	require.NoError(t, err)

	high := decimal.NewFromInt(2000)
	_, err = env.calculator.Derive(ctx, obligationdomain.DeriveRequest{FranchiseID: franchiseID, Period: period, RevenueToDate: &high})
	require.NoError(t, err)

	commission, err := env.repo.FindByKey(ctx, franchiseID, obligationdomain.KindCommission, period.Key())
	require.NoError(t, err)
	assert.Equal(t, obligationdomain.StatusPaid, commission.Status)
	assert.Equal(t, "40.00", commission.Amount.StringFixed(2))

	mandatory, err := env.repo.FindByKey(ctx, franchiseID, obligationdomain.KindMandatoryPurchase, period.Key())
	require.NoError(t, err)
	assert.Equal(t, obligationdomain.StatusPending, mandatory.Status)
	assert.Equal(t, "1600.00", mandatory.Amount.StringFixed(2))
}

func TestDeriveZeroRevenueSkipsObligations(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.calculator.Derive(context.Background(), obligationdomain.DeriveRequest{
		FranchiseID: env.node.Generate(),
		Period:      october(t),
	})
	require.NoError(t, err)
	assert.True(t, result.Commission.IsZero())
	assert.Empty(t, result.Obligations)
	assert.Equal(t, int64(0), env.count(t))
}

func TestEntryFeeGateUnpaid(t *testing.T) {
	env := newTestEnv(t)
	franchiseID := env.node.Generate()

	status, err := env.gate.Check(context.Background(), franchiseID)
	require.NoError(t, err)
	assert.False(t, status.Exists)
	assert.False(t, status.Paid)
	assert.Equal(t, obligationdomain.EntryFeeUnpaid, status.State)

	err = env.gate.Require(context.Background(), franchiseID)
	var paymentErr *obligationdomain.PaymentRequiredError
	require.True(t, errors.As(err, &paymentErr))
	assert.ErrorIs(t, err, obligationdomain.ErrPaymentRequired)
	assert.Equal(t, "50000.00", paymentErr.Amount.StringFixed(2))
	assert.Equal(t, "EUR", paymentErr.Currency)
}

func TestEntryFeeGateLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	franchiseID := env.node.Generate()

	ensured, err := env.gate.Ensure(ctx, franchiseID)
	require.NoError(t, err)
	assert.True(t, ensured.Exists)
	assert.Equal(t, obligationdomain.EntryFeePending, ensured.State)

	again, err := env.gate.Ensure(ctx, franchiseID)
	require.NoError(t, err)
	assert.Equal(t, ensured.State, again.State)
	assert.Equal(t, int64(1), env.count(t))

	assert.ErrorIs(t, env.gate.Require(ctx, franchiseID), obligationdomain.ErrPaymentRequired)

	fee, err := env.repo.FindByKey(ctx, franchiseID, obligationdomain.KindEntryFee, obligationdomain.LifetimeKey)
	require.NoError(t, err)
	paid, err := env.service.MarkPaid(ctx, fee.ID)
	require.NoError(t, err)
	assert.Equal(t, obligationdomain.StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	require.NoError(t, env.gate.Require(ctx, franchiseID))

	status, err := env.gate.Check(ctx, franchiseID)
	require.NoError(t, err)
	assert.True(t, status.Paid)
	assert.Equal(t, obligationdomain.EntryFeePaid, status.State)
}

func TestMarkPaidUnknownObligation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.MarkPaid(context.Background(), env.node.Generate())
	assert.ErrorIs(t, err, obligationdomain.ErrNotFound)
}

func (e *testEnv) auditActions(t *testing.T, franchiseID snowflake.ID) []string {
	t.Helper()
	resp, err := e.audit.List(context.Background(), auditdomain.ListAuditLogRequest{FranchiseID: &franchiseID})
	require.NoError(t, err)
	actions := make([]string, 0, len(resp.AuditLogs))
	for i := len(resp.AuditLogs) - 1; i >= 0; i-- {
		actions = append(actions, resp.AuditLogs[i].Action)
	}
	return actions
}

func TestObligationChangesAreAudited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	franchiseID := env.node.Generate()
	revenue := decimal.NewFromInt(10000)
	req := obligationdomain.DeriveRequest{FranchiseID: franchiseID, Period: october(t), RevenueToDate: &revenue}

	_, err := env.calculator.Derive(ctx, req)
	require.NoError(t, err)
	// refreshing pending amounts is not a new obligation
	_, err = env.calculator.Derive(ctx, req)
	require.NoError(t, err)

	_, err = env.gate.Ensure(ctx, franchiseID)
	require.NoError(t, err)
	_, err = env.gate.Ensure(ctx, franchiseID)
	require.NoError(t, err)

	fee, err := env.repo.FindByKey(ctx, franchiseID, obligationdomain.KindEntryFee, obligationdomain.LifetimeKey)
	require.NoError(t, err)
	require.NotNil(t, fee)
	_, err = env.service.MarkPaid(ctx, fee.ID)
	require.NoError(t, err)
	_, err = env.service.MarkPaid(ctx, fee.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{
		auditdomain.ActionObligationCreated,
		auditdomain.ActionObligationCreated,
		auditdomain.ActionEntryFeeIssued,
		auditdomain.ActionObligationPaid,
	}, env.auditActions(t, franchiseID))
}

func TestEnsureReissuesCancelledEntryFee(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	franchiseID := env.node.Generate()

	_, err := env.gate.Ensure(ctx, franchiseID)
	require.NoError(t, err)
	fee, err := env.repo.FindByKey(ctx, franchiseID, obligationdomain.KindEntryFee, obligationdomain.LifetimeKey)
	require.NoError(t, err)
	require.NoError(t, env.db.Model(&obligationdomain.PaymentObligation{}).
		Where("id = ?", fee.ID).
		Update("status", obligationdomain.StatusCancelled).Error)

	status, err := env.gate.Check(ctx, franchiseID)
	require.NoError(t, err)
	assert.Equal(t, obligationdomain.EntryFeeUnpaid, status.State)

	status, err = env.gate.Ensure(ctx, franchiseID)
	require.NoError(t, err)
	assert.Equal(t, obligationdomain.EntryFeePending, status.State)
	assert.Equal(t, int64(1), env.count(t))

	reopened, err := env.service.MarkPaid(ctx, fee.ID)
	require.NoError(t, err)
	assert.Equal(t, obligationdomain.StatusPaid, reopened.Status)
	require.NoError(t, env.gate.Require(ctx, franchiseID))

	assert.Equal(t, []string{
		auditdomain.ActionEntryFeeIssued,
		auditdomain.ActionEntryFeeIssued,
		auditdomain.ActionObligationPaid,
	}, env.auditActions(t, franchiseID))
}
