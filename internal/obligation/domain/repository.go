package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ObligationSink receives derived obligations.
type ObligationSink interface {
	// UpsertPending inserts the obligation or refreshes the amount of an
	// existing pending one with the same key. Paid or cancelled rows are left
	// untouched. created reports whether a new row was inserted.
	UpsertPending(ctx context.Context, obligation *PaymentObligation) (stored *PaymentObligation, created bool, err error)
}

type Repository interface {
	ObligationSink
	FindByKey(ctx context.Context, franchiseID snowflake.ID, kind Kind, periodKey string) (*PaymentObligation, error)
	// EnsureEntryFee inserts the pending entry-fee obligation unless one
	// exists, and re-opens a cancelled one as pending. issued reports whether
	// the franchise now owes a fee it did not owe before.
	EnsureEntryFee(ctx context.Context, obligation *PaymentObligation) (stored *PaymentObligation, issued bool, err error)
	FindByID(ctx context.Context, id snowflake.ID) (*PaymentObligation, error)
	// MarkPaid moves a pending obligation to paid; it reports false when no
	// pending row matched.
	MarkPaid(ctx context.Context, id snowflake.ID, paidAt time.Time) (bool, error)
	ListByFranchise(ctx context.Context, franchiseID snowflake.ID) ([]PaymentObligation, error)
}
