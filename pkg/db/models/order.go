package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/targolabs/targo-backend/pkg/enums"
	"github.com/targolabs/targo-backend/pkg/types"
)

// Order is the authoritative record of a checkout, owned by the order state
// machine after creation. payout_amount_cents is set exactly once, on the
// transition into delivered, and always equals amount minus commission at
// that moment.
type Order struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID   uuid.UUID  `gorm:"column:buyer_id;type:uuid;not null"`
	SellerID  uuid.UUID  `gorm:"column:seller_id;type:uuid;not null"`
	ListingID *uuid.UUID `gorm:"column:listing_id;type:uuid"`

	Currency              enums.Currency          `gorm:"column:currency;type:text;not null;default:'RON'"`
	AmountCents           int64                   `gorm:"column:amount_cents;not null"`
	SubtotalCents         int64                   `gorm:"column:subtotal_cents;not null"`
	ShippingCostCents     int64                   `gorm:"column:shipping_cost_cents;not null;default:0"`
	BuyerFeeCents         int64                   `gorm:"column:buyer_fee_cents;not null;default:0"`
	CodExtraFeeCents      int64                   `gorm:"column:cod_extra_fee_cents;not null;default:0"`
	SellerCommissionCents int64                   `gorm:"column:seller_commission_cents;not null;default:0"`
	PayoutAmountCents     int64                   `gorm:"column:payout_amount_cents;not null;default:0"`
	PayoutStatus          enums.OrderPayoutStatus `gorm:"column:payout_status;type:text;not null;default:'none'"`

	PaymentMethod  enums.PaymentMethod  `gorm:"column:payment_method;type:text;not null"`
	ShippingMethod enums.ShippingMethod `gorm:"column:shipping_method;type:text"`

	ShippingAddress     types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	ShippingAddressText string                `gorm:"column:shipping_address_text;not null"`
	Carrier             *string               `gorm:"column:carrier"`
	TrackingNumber      *string               `gorm:"column:tracking_number"`
	DeliveryConfirmedAt *time.Time            `gorm:"column:delivery_confirmed_at"`

	Status        enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	InvoiceNumber string            `gorm:"column:invoice_number;not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
