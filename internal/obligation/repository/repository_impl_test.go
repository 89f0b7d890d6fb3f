package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	obligationdomain "github.com/smallbiznis/franchisehub/internal/obligation/domain"
	"github.com/smallbiznis/franchisehub/pkg/db"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func setupObligationDB(t *testing.T) (*gorm.DB, *snowflake.Node) {
	t.Helper()

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&obligationdomain.PaymentObligation{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return conn, node
}

func newObligation(node *snowflake.Node, franchiseID snowflake.ID, kind obligationdomain.Kind, amount int64, at time.Time) *obligationdomain.PaymentObligation {
	return &obligationdomain.PaymentObligation{
		ID:          node.Generate(),
		FranchiseID: franchiseID,
		Kind:        kind,
		PeriodKey:   "monthly:2026-10",
		Amount:      decimal.NewFromInt(amount),
		Currency:    "EUR",
		Status:      obligationdomain.StatusPending,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

func renderInsert(t *testing.T, conn *gorm.DB, onConflict clause.OnConflict) string {
	t.Helper()
	row := obligationdomain.PaymentObligation{ID: 1, FranchiseID: 2, Kind: obligationdomain.KindCommission, PeriodKey: "monthly:2026-10"}
	stmt := conn.Session(&gorm.Session{DryRun: true}).Clauses(onConflict).Create(&row).Statement
	return stmt.SQL.String()
}

func TestConflictClausesRenderForMySQL(t *testing.T) {
	conn, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "franchisehub:secret@tcp(127.0.0.1:3306)/franchisehub?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true})
	if err != nil {
		t.Fatalf("open mysql dialector: %v", err)
	}

	upsert := renderInsert(t, conn, pendingUpsert(&obligationdomain.PaymentObligation{Amount: decimal.NewFromInt(40)}))
	if strings.Contains(upsert, "ON CONFLICT") {
		t.Fatalf("mysql statement must not use ON CONFLICT: %s", upsert)
	}
	if !strings.Contains(upsert, "ON DUPLICATE KEY UPDATE") {
		t.Fatalf("expected ON DUPLICATE KEY UPDATE, got %s", upsert)
	}
	if !strings.Contains(upsert, "CASE WHEN payment_obligations.status = ?") {
		t.Fatalf("expected pending-only refresh, got %s", upsert)
	}

	insert := renderInsert(t, conn, keepExisting)
	if strings.Contains(insert, "ON CONFLICT") || !strings.Contains(insert, "ON DUPLICATE KEY UPDATE") {
		t.Fatalf("unexpected mysql insert: %s", insert)
	}
}

func TestUpsertPendingKeepsSettledAmount(t *testing.T) {
	conn, node := setupObligationDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	at := time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)
	franchiseID := node.Generate()

	first, created, err := repo.UpsertPending(ctx, newObligation(node, franchiseID, obligationdomain.KindCommission, 40, at))
	if err != nil || !created {
		t.Fatalf("first upsert: created=%v err=%v", created, err)
	}

	refreshed, created, err := repo.UpsertPending(ctx, newObligation(node, franchiseID, obligationdomain.KindCommission, 80, at.Add(time.Hour)))
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if created || refreshed.ID != first.ID {
		t.Fatalf("expected refresh of %s, got created=%v id=%s", first.ID, created, refreshed.ID)
	}
	if refreshed.Amount.StringFixed(2) != "80.00" {
		t.Fatalf("expected pending amount 80.00, got %s", refreshed.Amount.StringFixed(2))
	}

	if _, err := repo.MarkPaid(ctx, first.ID, at.Add(2*time.Hour)); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	settled, _, err := repo.UpsertPending(ctx, newObligation(node, franchiseID, obligationdomain.KindCommission, 120, at.Add(3*time.Hour)))
	if err != nil {
		t.Fatalf("upsert after payment: %v", err)
	}
	if settled.Status != obligationdomain.StatusPaid || settled.Amount.StringFixed(2) != "80.00" {
		t.Fatalf("paid obligation changed: status=%s amount=%s", settled.Status, settled.Amount.StringFixed(2))
	}
}

func TestEnsureEntryFeeReopensCancelled(t *testing.T) {
	conn, node := setupObligationDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	at := time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)
	franchiseID := node.Generate()

	fee, issued, err := repo.EnsureEntryFee(ctx, newObligation(node, franchiseID, obligationdomain.KindEntryFee, 50000, at))
	if err != nil || !issued {
		t.Fatalf("issue: issued=%v err=%v", issued, err)
	}
	if fee.PeriodKey != obligationdomain.LifetimeKey {
		t.Fatalf("expected lifetime key, got %s", fee.PeriodKey)
	}

	again, issued, err := repo.EnsureEntryFee(ctx, newObligation(node, franchiseID, obligationdomain.KindEntryFee, 50000, at))
	if err != nil || issued || again.ID != fee.ID {
		t.Fatalf("second ensure must be a no-op: issued=%v err=%v", issued, err)
	}

	if err := conn.Exec(`UPDATE payment_obligations SET status = ? WHERE id = ?`, obligationdomain.StatusCancelled, fee.ID).Error; err != nil {
		t.Fatalf("cancel: %v", err)
	}

	reopened, issued, err := repo.EnsureEntryFee(ctx, newObligation(node, franchiseID, obligationdomain.KindEntryFee, 60000, at.Add(time.Hour)))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !issued || reopened.ID != fee.ID {
		t.Fatalf("expected cancelled fee %s to be re-issued, got issued=%v id=%s", fee.ID, issued, reopened.ID)
	}
	if reopened.Status != obligationdomain.StatusPending || reopened.Amount.StringFixed(2) != "60000.00" {
		t.Fatalf("unexpected reopened fee: status=%s amount=%s", reopened.Status, reopened.Amount.StringFixed(2))
	}
}
