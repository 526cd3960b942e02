package payouts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/targolabs/targo-backend/pkg/db/models"
	"github.com/targolabs/targo-backend/pkg/pagination"
)

// Repository defines persistence operations for the settlement tables. Every
// balance mutation is a guarded single-statement UPDATE; callers check the
// returned bool instead of reading first.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreatePayout(ctx context.Context, payout *models.Payout) (*models.Payout, error)
	FindPayoutByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payout, error)
	FindMaturablePayouts(ctx context.Context, cutoff time.Time) ([]models.Payout, error)
	MarkPayoutsMatured(ctx context.Context, payoutIDs []uuid.UUID, maturedAt time.Time) error
	MarkOrdersPaidOut(ctx context.Context, orderIDs []uuid.UUID) error
	UpdateOrderSettlement(ctx context.Context, orderID uuid.UUID, updates map[string]any) error

	EnsureBalanceRow(ctx context.Context, sellerID uuid.UUID) error
	FindBalance(ctx context.Context, sellerID uuid.UUID) (*models.SellerBalance, error)
	FindBalanceForUpdate(ctx context.Context, sellerID uuid.UUID) (*models.SellerBalance, error)
	CreditPending(ctx context.Context, sellerID uuid.UUID, amountCents int64) error
	MovePendingToAvailable(ctx context.Context, sellerID uuid.UUID, amountCents int64) (bool, error)
	DebitAvailableForWithdrawal(ctx context.Context, sellerID uuid.UUID, amountCents int64) (bool, error)
	SettleInTransfer(ctx context.Context, sellerID uuid.UUID, amountCents int64) (bool, error)
	ReverseInTransfer(ctx context.Context, sellerID uuid.UUID, amountCents int64) (bool, error)
	ApplyRefundDebit(ctx context.Context, sellerID uuid.UUID, pendingDebitCents, availableDebitCents int64) (bool, error)

	FindSeller(ctx context.Context, sellerID uuid.UUID) (*models.Seller, error)

	CreateWithdrawal(ctx context.Context, withdrawal *models.Withdrawal) (*models.Withdrawal, error)
	FindWithdrawal(ctx context.Context, withdrawalID uuid.UUID) (*models.Withdrawal, error)
	UpdateWithdrawal(ctx context.Context, withdrawalID uuid.UUID, updates map[string]any) error
	ListWithdrawals(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*WithdrawalList, error)

	CreateLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error
	ListLedgerEntries(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*LedgerList, error)
}
