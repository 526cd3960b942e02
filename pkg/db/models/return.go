package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/targolabs/targo-backend/pkg/enums"
)

// Return is a buyer-initiated compensating workflow against a delivered
// order. It references the order weakly; deleting an order never cascades.
type Return struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	BuyerID           uuid.UUID          `gorm:"column:buyer_id;type:uuid;not null"`
	SellerID          uuid.UUID          `gorm:"column:seller_id;type:uuid;not null"`
	Reason            string             `gorm:"column:reason;not null"`
	Description       string             `gorm:"column:description"`
	Status            enums.ReturnStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	AdminNotes        *string            `gorm:"column:admin_notes"`
	RefundAmountCents *int64             `gorm:"column:refund_amount_cents"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
