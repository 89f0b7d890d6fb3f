package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/franchisehub/internal/audit/domain"
	"github.com/smallbiznis/franchisehub/internal/authorization"
	"github.com/smallbiznis/franchisehub/internal/clock"
	compliancedomain "github.com/smallbiznis/franchisehub/internal/compliance/domain"
	"github.com/smallbiznis/franchisehub/internal/config"
	"github.com/smallbiznis/franchisehub/internal/franchisecontext"
	obligationdomain "github.com/smallbiznis/franchisehub/internal/obligation/domain"
	"github.com/smallbiznis/franchisehub/internal/observability"
	obsmetrics "github.com/smallbiznis/franchisehub/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/franchisehub/internal/order/domain"
	salesdomain "github.com/smallbiznis/franchisehub/internal/sales/domain"
	"github.com/smallbiznis/franchisehub/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const franchiseHeaderValue = "1234567890"

type fakeEvaluator struct {
	lastCheckAll compliancedomain.CheckAllRequest
}

func (f *fakeEvaluator) Evaluate(_ context.Context, req compliancedomain.EvaluateRequest) (*compliancedomain.Snapshot, error) {
	return &compliancedomain.Snapshot{
		ID:                   snowflake.ID(1),
		FranchiseID:          req.FranchiseID,
		PeriodStart:          req.PeriodStart,
		Granularity:          req.Granularity,
		TotalRevenue:         decimal.NewFromInt(10000),
		CompliancePercentage: decimal.NewFromInt(80),
		IsCompliant:          true,
	}, nil
}

func (f *fakeEvaluator) EvaluateAll(_ context.Context, req compliancedomain.CheckAllRequest) (*compliancedomain.CheckAllResult, error) {
	f.lastCheckAll = req
	period, err := compliancedomain.NewPeriod(req.Year, req.Month, req.Granularity)
	if err != nil {
		return nil, err
	}
	snapshots := []compliancedomain.Snapshot{{ID: 1, FranchiseID: 7, PeriodStart: period.Start, Granularity: period.Granularity}}
	return &compliancedomain.CheckAllResult{Period: period, Snapshots: snapshots, Count: len(snapshots)}, nil
}

type fakeReporter struct{}

func (fakeReporter) Summarize(_ context.Context, filter compliancedomain.ReportFilter) (*compliancedomain.Summary, error) {
	period, _ := compliancedomain.PeriodFor(filter.PeriodStart, filter.Granularity)
	return &compliancedomain.Summary{Period: period, ComplianceRate: decimal.Zero}, nil
}

func (f fakeReporter) Overview(ctx context.Context, filter compliancedomain.ReportFilter) (*compliancedomain.Overview, error) {
	summary, _ := f.Summarize(ctx, filter)
	return &compliancedomain.Overview{Summary: *summary}, nil
}

type fakeCalculator struct {
	last obligationdomain.DeriveRequest
}

func (f *fakeCalculator) Derive(_ context.Context, req obligationdomain.DeriveRequest) (*obligationdomain.DeriveResult, error) {
	f.last = req
	return &obligationdomain.DeriveResult{FranchiseID: req.FranchiseID, PeriodKey: req.Period.Key()}, nil
}

type fakeEntryFeeGate struct {
	paid bool
}

func (f *fakeEntryFeeGate) status() *obligationdomain.EntryFeeStatus {
	if f.paid {
		return &obligationdomain.EntryFeeStatus{State: obligationdomain.EntryFeePaid, Exists: true, Paid: true, Amount: decimal.NewFromInt(50000), Currency: "EUR"}
	}
	return &obligationdomain.EntryFeeStatus{State: obligationdomain.EntryFeeUnpaid, Amount: decimal.NewFromInt(50000), Currency: "EUR"}
}

func (f *fakeEntryFeeGate) Check(context.Context, snowflake.ID) (*obligationdomain.EntryFeeStatus, error) {
	return f.status(), nil
}

func (f *fakeEntryFeeGate) Require(context.Context, snowflake.ID) error {
	st := f.status()
	if st.Paid {
		return nil
	}
	return &obligationdomain.PaymentRequiredError{State: st.State, Amount: st.Amount, Currency: st.Currency}
}

func (f *fakeEntryFeeGate) Ensure(context.Context, snowflake.ID) (*obligationdomain.EntryFeeStatus, error) {
	return f.status(), nil
}

type fakeObligationService struct{}

func (fakeObligationService) MarkPaid(context.Context, snowflake.ID) (*obligationdomain.PaymentObligation, error) {
	return nil, obligationdomain.ErrNotFound
}

func (fakeObligationService) List(context.Context, snowflake.ID) ([]obligationdomain.PaymentObligation, error) {
	return nil, nil
}

type fakeOrderService struct {
	err    error
	called bool
}

func (f *fakeOrderService) Place(ctx context.Context, req orderdomain.PlaceOrderRequest) (*orderdomain.Response, error) {
	f.called = true
	if _, ok := franchisecontext.FranchiseIDFromContext(ctx); !ok {
		return nil, orderdomain.ErrInvalidFranchise
	}
	if f.err != nil {
		return nil, f.err
	}
	total, internal := req.Totals()
	return &orderdomain.Response{Reference: "PO-1", TotalValue: total, InternalValue: internal, LineCount: len(req.Lines)}, nil
}

type fakeSalesService struct {
	err error
}

func (f *fakeSalesService) Record(_ context.Context, req salesdomain.RecordRequest) (*salesdomain.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &salesdomain.Response{ID: "1", PeriodLabel: req.PeriodLabel, Revenue: req.Revenue}, nil
}

type fakeAudit struct {
	last auditdomain.ListAuditLogRequest
}

func (f *fakeAudit) AuditLog(context.Context, *snowflake.ID, string, string, *string, map[string]any) error {
	return nil
}

func (f *fakeAudit) List(_ context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	f.last = req
	if req.PageToken == "bad" {
		return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidPageToken
	}
	return auditdomain.ListAuditLogResponse{
		AuditLogs:     []auditdomain.AuditLog{{ID: 9, Action: auditdomain.ActionObligationPaid, ActorType: "admin", TargetType: "payment_obligation"}},
		NextPageToken: "9",
	}, nil
}

type testServer struct {
	engine     *gin.Engine
	evaluator  *fakeEvaluator
	calculator *fakeCalculator
	entryFee   *fakeEntryFeeGate
	orders     *fakeOrderService
	sales      *fakeSalesService
	audit      *fakeAudit
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.NewTest()
	require.NoError(t, err)
	enforcer, err := authorization.NewEnforcer(conn)
	require.NoError(t, err)

	httpMetrics, err := obsmetrics.NewHTTPMetrics()
	require.NoError(t, err)

	log := zaptest.NewLogger(t)
	ts := &testServer{
		engine:     NewEngine(observability.Config{Environment: "test"}, httpMetrics),
		evaluator:  &fakeEvaluator{},
		calculator: &fakeCalculator{},
		entryFee:   &fakeEntryFeeGate{},
		orders:     &fakeOrderService{},
		sales:      &fakeSalesService{},
		audit:      &fakeAudit{},
	}
	NewServer(ServerParams{
		Gin:           ts.engine,
		Cfg:           config.Config{Environment: "test"},
		Log:           log,
		Clock:         clock.NewFakeClock(time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)),
		AuthzSvc:      authorization.NewService(authorization.Params{Log: log, Enforcer: enforcer}),
		Evaluator:     ts.evaluator,
		Reporter:      fakeReporter{},
		Calculator:    ts.calculator,
		EntryFeeGate:  ts.entryFee,
		ObligationSvc: fakeObligationService{},
		OrderSvc:      ts.orders,
		SalesSvc:      ts.sales,
		AuditSvc:      ts.audit,
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, role, franchiseID string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set(HeaderRole, role)
	}
	if franchiseID != "" {
		req.Header.Set(HeaderFranchise, franchiseID)
	}

	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func errorBody(t *testing.T, payload map[string]any) map[string]any {
	t.Helper()
	errObj, ok := payload["error"].(map[string]any)
	require.True(t, ok, "missing error object: %v", payload)
	return errObj
}

func orderBody() map[string]any {
	return map[string]any{
		"lines": []map[string]any{
			{"product_ref": "flour", "quantity": "10", "unit_price": "30", "internal": true},
			{"product_ref": "napkins", "quantity": "4", "unit_price": "2.5"},
		},
	}
}

func TestOrdersRequireEntryFee(t *testing.T) {
	ts := newTestServer(t)

	rec, payload := ts.do(t, http.MethodPost, "/orders", "franchisee", franchiseHeaderValue, orderBody())

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	errObj := errorBody(t, payload)
	assert.Equal(t, "payment_required", errObj["type"])
	details := errObj["details"].(map[string]any)
	assert.Equal(t, "unpaid", details["state"])
	assert.Equal(t, "50000.00", details["amount"])
	assert.False(t, ts.orders.called)
}

func TestOrdersComplianceViolation(t *testing.T) {
	ts := newTestServer(t)
	ts.entryFee.paid = true
	ts.orders.err = &compliancedomain.ViolationError{
		CurrentPercentage:   decimal.NewFromInt(70),
		ProjectedPercentage: decimal.NewFromInt(75),
		RequiredPercentage:  decimal.NewFromInt(80),
		Shortfall:           decimal.NewFromInt(500),
		Currency:            "EUR",
	}

	rec, payload := ts.do(t, http.MethodPost, "/orders", "franchisee", franchiseHeaderValue, orderBody())

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errObj := errorBody(t, payload)
	assert.Equal(t, "compliance_violation", errObj["type"])
	details := errObj["details"].(map[string]any)
	assert.Equal(t, "70.00", details["current_percentage"])
	assert.Equal(t, "80.00", details["required_percentage"])
	assert.Equal(t, "500.00", details["shortfall"])
	assert.Equal(t, "EUR", details["currency"])
}

func TestOrdersAdmitted(t *testing.T) {
	ts := newTestServer(t)
	ts.entryFee.paid = true

	rec, payload := ts.do(t, http.MethodPost, "/orders", "franchisee", franchiseHeaderValue, orderBody())

	require.Equal(t, http.StatusCreated, rec.Code)
	data := payload["data"].(map[string]any)
	assert.Equal(t, "310", data["total_value"])
	assert.Equal(t, float64(2), data["line_count"])
}

func TestIdentityIsRequired(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodPost, "/orders", "", "", orderBody())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/payments/entry-fee/status", "franchisee", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, payload := ts.do(t, http.MethodGet, "/payments/entry-fee/status", "franchisee", "not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorBody(t, payload)["type"])
}

func TestCheckAllIsAdminOnly(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodPost, "/compliance/check-all", "franchisee", franchiseHeaderValue, map[string]any{"month": 10, "year": 2026})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, payload := ts.do(t, http.MethodPost, "/compliance/check-all", "admin", "", map[string]any{"month": 10, "year": 2026, "period": "quarterly"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), payload["count"])
	assert.Equal(t, "Q4/2026", payload["period"])
	assert.Equal(t, compliancedomain.GranularityQuarterly, ts.evaluator.lastCheckAll.Granularity)
}

func TestCheckAllRejectsUnknownGranularity(t *testing.T) {
	ts := newTestServer(t)

	rec, payload := ts.do(t, http.MethodPost, "/compliance/check-all", "admin", "", map[string]any{"period": "weekly"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errObj := errorBody(t, payload)
	errs := errObj["errors"].([]any)
	assert.Equal(t, "invalid_granularity", errs[0].(map[string]any)["code"])
}

func TestEntryFeeStatus(t *testing.T) {
	ts := newTestServer(t)

	rec, payload := ts.do(t, http.MethodGet, "/payments/entry-fee/status", "franchisee", franchiseHeaderValue, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := payload["data"].(map[string]any)
	assert.Equal(t, false, data["exists"])
	assert.Equal(t, false, data["paid"])
	assert.Equal(t, "EUR", data["currency"])
}

func TestComplianceReportDefaultsToCurrentPeriod(t *testing.T) {
	ts := newTestServer(t)

	rec, payload := ts.do(t, http.MethodGet, "/compliance/report", "admin", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := payload["data"].(map[string]any)
	assert.Equal(t, "10/2026", data["period"])
	assert.Equal(t, "0", data["compliance_rate"])
}

func TestComplianceMe(t *testing.T) {
	ts := newTestServer(t)

	rec, payload := ts.do(t, http.MethodGet, "/compliance/me?period=monthly&month=9&year=2026", "franchisee", franchiseHeaderValue, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := payload["data"].(map[string]any)
	assert.Equal(t, franchiseHeaderValue, data["franchise_id"])
	assert.Equal(t, "09/2026", data["period"])
	assert.Equal(t, true, data["is_compliant"])
}

func TestDeriveObligations(t *testing.T) {
	ts := newTestServer(t)

	rec, payload := ts.do(t, http.MethodPost, "/compliance/obligations/derive", "admin", "", map[string]any{
		"franchise_id": franchiseHeaderValue,
		"month":        10,
		"year":         2026,
		"revenue":      "10000",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	data := payload["data"].(map[string]any)
	assert.Equal(t, "monthly:2026-10", data["period_key"])
	require.NotNil(t, ts.calculator.last.RevenueToDate)
	assert.Equal(t, "10000", ts.calculator.last.RevenueToDate.String())
}

func TestSalesDuplicatePeriod(t *testing.T) {
	ts := newTestServer(t)
	ts.entryFee.paid = true
	ts.sales.err = salesdomain.ErrDuplicatePeriod

	rec, payload := ts.do(t, http.MethodPost, "/sales", "franchisee", franchiseHeaderValue, map[string]any{"revenue": "100"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", errorBody(t, payload)["type"])
}

func TestConfirmUnknownObligation(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodPost, "/payments/obligations/99/confirm", "admin", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/payments/obligations/99/confirm", "franchisee", franchiseHeaderValue, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuditLogsAreAdminOnly(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodGet, "/audit/logs", "franchisee", franchiseHeaderValue, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, payload := ts.do(t, http.MethodGet, "/audit/logs?franchise_id="+franchiseHeaderValue+"&action=obligation.paid&page_size=10", "admin", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "9", payload["next_page_token"])
	items := payload["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "obligation.paid", items[0].(map[string]any)["action"])
	require.NotNil(t, ts.audit.last.FranchiseID)
	assert.Equal(t, franchiseHeaderValue, ts.audit.last.FranchiseID.String())
	assert.Equal(t, 10, ts.audit.last.PageSize)

	rec, _ = ts.do(t, http.MethodGet, "/audit/logs?page_token=bad", "admin", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
