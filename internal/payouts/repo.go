package payouts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/targolabs/targo-backend/pkg/db/models"
	"github.com/targolabs/targo-backend/pkg/enums"
	"github.com/targolabs/targo-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a settlement repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreatePayout(ctx context.Context, payout *models.Payout) (*models.Payout, error) {
	if err := r.db.WithContext(ctx).Create(payout).Error; err != nil {
		return nil, err
	}
	return payout, nil
}

func (r *repository) FindPayoutByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&payout).Error
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) FindMaturablePayouts(ctx context.Context, cutoff time.Time) ([]models.Payout, error) {
	var payouts []models.Payout
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at <= ?", enums.PayoutStatusPending, cutoff).
		Order("seller_id").
		Order("created_at").
		Find(&payouts).Error
	if err != nil {
		return nil, err
	}
	return payouts, nil
}

func (r *repository) MarkPayoutsMatured(ctx context.Context, payoutIDs []uuid.UUID, maturedAt time.Time) error {
	if len(payoutIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Where("id IN ?", payoutIDs).
		Updates(map[string]any{
			"status":     enums.PayoutStatusProcessed,
			"matured_at": maturedAt,
		}).Error
}

func (r *repository) MarkOrdersPaidOut(ctx context.Context, orderIDs []uuid.UUID) error {
	if len(orderIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id IN ?", orderIDs).
		Update("payout_status", enums.OrderPayoutStatusPaid).Error
}

func (r *repository) UpdateOrderSettlement(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) EnsureBalanceRow(ctx context.Context, sellerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.SellerBalance{SellerID: sellerID}).Error
}

func (r *repository) FindBalance(ctx context.Context, sellerID uuid.UUID) (*models.SellerBalance, error) {
	var balance models.SellerBalance
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		First(&balance).Error
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *repository) FindBalanceForUpdate(ctx context.Context, sellerID uuid.UUID) (*models.SellerBalance, error) {
	var balance models.SellerBalance
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("seller_id = ?", sellerID).
		First(&balance).Error
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *repository) CreditPending(ctx context.Context, sellerID uuid.UUID, amountCents int64) error {
	return r.db.WithContext(ctx).
		Model(&models.SellerBalance{}).
		Where("seller_id = ?", sellerID).
		Updates(map[string]any{
			"pending_cents":         gorm.Expr("pending_cents + ?", amountCents),
			"lifetime_earned_cents": gorm.Expr("lifetime_earned_cents + ?", amountCents),
		}).Error
}

func (r *repository) MovePendingToAvailable(ctx context.Context, sellerID uuid.UUID, amountCents int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SellerBalance{}).
		Where("seller_id = ? AND pending_cents >= ?", sellerID, amountCents).
		Updates(map[string]any{
			"pending_cents":   gorm.Expr("pending_cents - ?", amountCents),
			"available_cents": gorm.Expr("available_cents + ?", amountCents),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) DebitAvailableForWithdrawal(ctx context.Context, sellerID uuid.UUID, amountCents int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SellerBalance{}).
		Where("seller_id = ? AND available_cents >= ?", sellerID, amountCents).
		Updates(map[string]any{
			"available_cents":   gorm.Expr("available_cents - ?", amountCents),
			"in_transfer_cents": gorm.Expr("in_transfer_cents + ?", amountCents),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) SettleInTransfer(ctx context.Context, sellerID uuid.UUID, amountCents int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SellerBalance{}).
		Where("seller_id = ? AND in_transfer_cents >= ?", sellerID, amountCents).
		Update("in_transfer_cents", gorm.Expr("in_transfer_cents - ?", amountCents))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) ReverseInTransfer(ctx context.Context, sellerID uuid.UUID, amountCents int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SellerBalance{}).
		Where("seller_id = ? AND in_transfer_cents >= ?", sellerID, amountCents).
		Updates(map[string]any{
			"in_transfer_cents": gorm.Expr("in_transfer_cents - ?", amountCents),
			"available_cents":   gorm.Expr("available_cents + ?", amountCents),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) ApplyRefundDebit(ctx context.Context, sellerID uuid.UUID, pendingDebitCents, availableDebitCents int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SellerBalance{}).
		Where("seller_id = ? AND pending_cents >= ? AND available_cents >= ?", sellerID, pendingDebitCents, availableDebitCents).
		Updates(map[string]any{
			"pending_cents":   gorm.Expr("pending_cents - ?", pendingDebitCents),
			"available_cents": gorm.Expr("available_cents - ?", availableDebitCents),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) FindSeller(ctx context.Context, sellerID uuid.UUID) (*models.Seller, error) {
	var seller models.Seller
	err := r.db.WithContext(ctx).
		Where("id = ?", sellerID).
		First(&seller).Error
	if err != nil {
		return nil, err
	}
	return &seller, nil
}

func (r *repository) CreateWithdrawal(ctx context.Context, withdrawal *models.Withdrawal) (*models.Withdrawal, error) {
	if err := r.db.WithContext(ctx).Create(withdrawal).Error; err != nil {
		return nil, err
	}
	return withdrawal, nil
}

func (r *repository) FindWithdrawal(ctx context.Context, withdrawalID uuid.UUID) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	err := r.db.WithContext(ctx).
		Where("id = ?", withdrawalID).
		First(&withdrawal).Error
	if err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

func (r *repository) UpdateWithdrawal(ctx context.Context, withdrawalID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Withdrawal{}).
		Where("id = ?", withdrawalID).
		Updates(updates).Error
}

func (r *repository) ListWithdrawals(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*WithdrawalList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&models.Withdrawal{}).
		Where("seller_id = ?", sellerID)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Withdrawal
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	page := pagination.BuildPage(rows, params.Limit, func(row models.Withdrawal) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	summaries := make([]WithdrawalSummary, 0, len(page.Items))
	for _, row := range page.Items {
		summaries = append(summaries, WithdrawalSummary{
			ID:          row.ID,
			AmountCents: row.AmountCents,
			Status:      row.Status,
			TransferRef: row.TransferRef,
			FailureNote: row.FailureNote,
			CreatedAt:   row.CreatedAt,
			ProcessedAt: row.ProcessedAt,
		})
	}
	return &WithdrawalList{Withdrawals: summaries, NextCursor: page.NextCursor}, nil
}

func (r *repository) CreateLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListLedgerEntries(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*LedgerList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("seller_id = ?", sellerID)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.LedgerEntry
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	page := pagination.BuildPage(rows, params.Limit, func(row models.LedgerEntry) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	summaries := make([]LedgerEntrySummary, 0, len(page.Items))
	for _, row := range page.Items {
		summaries = append(summaries, LedgerEntrySummary{
			ID:          row.ID,
			OrderID:     row.OrderID,
			Type:        row.Type,
			AmountCents: row.AmountCents,
			CreatedAt:   row.CreatedAt,
		})
	}
	return &LedgerList{Entries: summaries, NextCursor: page.NextCursor}, nil
}
