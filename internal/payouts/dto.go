package payouts

import (
	"time"

	"github.com/google/uuid"

	"github.com/targolabs/targo-backend/pkg/enums"
)

// WithdrawInput carries a seller's request to move available funds to their bank.
type WithdrawInput struct {
	SellerID    uuid.UUID
	AmountCents int64
}

// CompleteTransferInput carries the processor's final verdict on a transfer.
type CompleteTransferInput struct {
	WithdrawalID uuid.UUID
	Succeeded    bool
	TransferRef  string
	FailureNote  string
}

// BalanceSummary is the seller-facing wallet view.
type BalanceSummary struct {
	SellerID            uuid.UUID `json:"seller_id"`
	PendingCents        int64     `json:"pending_cents"`
	AvailableCents      int64     `json:"available_cents"`
	InTransferCents     int64     `json:"in_transfer_cents"`
	LifetimeEarnedCents int64     `json:"lifetime_earned_cents"`
}

// MaturationResult summarizes one maturation sweep.
type MaturationResult struct {
	SellersProcessed int
	PayoutsMatured   int
	CentsMatured     int64
}

// WithdrawalSummary exposes the fields returned in the withdrawal list.
type WithdrawalSummary struct {
	ID          uuid.UUID              `json:"id"`
	AmountCents int64                  `json:"amount_cents"`
	Status      enums.WithdrawalStatus `json:"status"`
	TransferRef *string                `json:"transfer_ref,omitempty"`
	FailureNote *string                `json:"failure_note,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
}

// WithdrawalList wraps the paginated withdrawals plus the next page cursor.
type WithdrawalList struct {
	Withdrawals []WithdrawalSummary `json:"withdrawals"`
	NextCursor  string              `json:"next_cursor,omitempty"`
}

// LedgerEntrySummary exposes one audit row from the seller's ledger.
type LedgerEntrySummary struct {
	ID          uuid.UUID             `json:"id"`
	OrderID     *uuid.UUID            `json:"order_id,omitempty"`
	Type        enums.LedgerEntryType `json:"type"`
	AmountCents int64                 `json:"amount_cents"`
	CreatedAt   time.Time             `json:"created_at"`
}

// LedgerList wraps the paginated ledger entries plus the next page cursor.
type LedgerList struct {
	Entries    []LedgerEntrySummary `json:"entries"`
	NextCursor string               `json:"next_cursor,omitempty"`
}
