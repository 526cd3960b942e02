package returns

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/targolabs/targo-backend/pkg/db/models"
	"github.com/targolabs/targo-backend/pkg/enums"
	"github.com/targolabs/targo-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a returns repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, ret *models.Return) (*models.Return, error) {
	if err := r.db.WithContext(ctx).Create(ret).Error; err != nil {
		return nil, err
	}
	return ret, nil
}

func (r *repository) FindByID(ctx context.Context, returnID uuid.UUID) (*models.Return, error) {
	var ret models.Return
	err := r.db.WithContext(ctx).
		Where("id = ?", returnID).
		First(&ret).Error
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

func (r *repository) FindOpenByOrder(ctx context.Context, orderID uuid.UUID) (*models.Return, error) {
	var ret models.Return
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status IN ?", orderID, []enums.ReturnStatus{
			enums.ReturnStatusPending,
			enums.ReturnStatusApproved,
		}).
		First(&ret).Error
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

func (r *repository) Update(ctx context.Context, returnID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Return{}).
		Where("id = ?", returnID).
		Updates(updates).Error
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ReturnFilters) (*ReturnList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).Model(&models.Return{})
	if filters.BuyerID != nil {
		query = query.Where("buyer_id = ?", *filters.BuyerID)
	}
	if filters.SellerID != nil {
		query = query.Where("seller_id = ?", *filters.SellerID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Return
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	page := pagination.BuildPage(rows, params.Limit, func(row models.Return) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	summaries := make([]ReturnSummary, 0, len(page.Items))
	for _, row := range page.Items {
		summaries = append(summaries, ReturnSummary{
			ID:                row.ID,
			OrderID:           row.OrderID,
			BuyerID:           row.BuyerID,
			SellerID:          row.SellerID,
			Reason:            row.Reason,
			Status:            row.Status,
			RefundAmountCents: row.RefundAmountCents,
			CreatedAt:         row.CreatedAt,
		})
	}
	return &ReturnList{Returns: summaries, NextCursor: page.NextCursor}, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
