package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/targolabs/targo-backend/pkg/enums"
)

// Payout is the one-per-order settlement record created when an order reaches
// delivered. The unique index on order_id is what makes the delivery credit
// idempotent under retried events.
type Payout struct {
	ID                    uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID               uuid.UUID          `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_payouts_order_id"`
	SellerID              uuid.UUID          `gorm:"column:seller_id;type:uuid;not null;index"`
	GrossAmountCents      int64              `gorm:"column:gross_amount_cents;not null"`
	SellerCommissionCents int64              `gorm:"column:seller_commission_cents;not null"`
	BuyerFeeCents         int64              `gorm:"column:buyer_fee_cents;not null;default:0"`
	NetAmountCents        int64              `gorm:"column:net_amount_cents;not null"`
	Status                enums.PayoutStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	MaturedAt             *time.Time         `gorm:"column:matured_at"`
	ProcessedAt           *time.Time         `gorm:"column:processed_at"`
	CreatedAt             time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
