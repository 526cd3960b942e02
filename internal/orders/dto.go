package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/targolabs/targo-backend/pkg/enums"
)

// OrderFilters describe the inputs supported by the buyer and seller lists.
type OrderFilters struct {
	Status        *enums.OrderStatus
	PaymentMethod *enums.PaymentMethod
	DateFrom      *time.Time
	DateTo        *time.Time
}

// OrderSummary exposes the aggregated fields returned in order lists.
type OrderSummary struct {
	ID                uuid.UUID           `json:"id"`
	InvoiceNumber     string              `json:"invoice_number"`
	CreatedAt         time.Time           `json:"created_at"`
	Status            enums.OrderStatus   `json:"status"`
	PaymentMethod     enums.PaymentMethod `json:"payment_method"`
	Currency          enums.Currency      `json:"currency"`
	AmountCents       int64               `json:"amount_cents"`
	ShippingCostCents int64               `json:"shipping_cost_cents"`
	CodExtraFeeCents  int64               `json:"cod_extra_fee_cents"`
	TotalCents        int64               `json:"total_cents"`
	Carrier           *string             `json:"carrier,omitempty"`
	TrackingNumber    *string             `json:"tracking_number,omitempty"`
	BuyerID           uuid.UUID           `json:"buyer_id"`
	SellerID          uuid.UUID           `json:"seller_id"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// AddTrackingInput carries a seller's shipment registration.
type AddTrackingInput struct {
	OrderID        uuid.UUID
	SellerID       uuid.UUID
	Carrier        string
	TrackingNumber string
}

// ConfirmDeliveryInput carries the buyer's delivery confirmation.
type ConfirmDeliveryInput struct {
	OrderID uuid.UUID
	BuyerID uuid.UUID
}

// OverrideStatusInput carries an admin-forced status write.
type OverrideStatusInput struct {
	OrderID uuid.UUID
	AdminID uuid.UUID
	Status  enums.OrderStatus
	Reason  string
}

// CancelInput captures a cancellation before shipment.
type CancelInput struct {
	OrderID   uuid.UUID
	ActorID   uuid.UUID
	ActorRole enums.ActorRole
	Reason    string
}
