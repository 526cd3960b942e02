package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/targolabs/targo-backend/pkg/enums"
)

// OrderCreatedEvent signals a checkout converted into an order.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	BuyerID       uuid.UUID           `json:"buyer_id"`
	SellerID      uuid.UUID           `json:"seller_id"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	AmountCents   int64               `json:"amount_cents"`
	Currency      string              `json:"currency"`
}

// OrderStatusChangedEvent covers paid, shipped, delivered, cancelled and
// refunded transitions and any admin override.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	BuyerID    uuid.UUID         `json:"buyer_id"`
	SellerID   uuid.UUID         `json:"seller_id"`
	FromStatus enums.OrderStatus `json:"from_status"`
	ToStatus   enums.OrderStatus `json:"to_status"`
	Overridden bool              `json:"overridden,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	ChangedAt  time.Time         `json:"changed_at"`
}

// PayoutCreditedEvent is emitted when delivery confirmation credits the
// seller's pending balance.
type PayoutCreditedEvent struct {
	PayoutID       uuid.UUID `json:"payout_id"`
	OrderID        uuid.UUID `json:"order_id"`
	SellerID       uuid.UUID `json:"seller_id"`
	NetAmountCents int64     `json:"net_amount_cents"`
	CreditedAt     time.Time `json:"credited_at"`
}

// PayoutMaturedEvent reports a maturation sweep moving funds to available.
type PayoutMaturedEvent struct {
	SellerID    uuid.UUID `json:"seller_id"`
	AmountCents int64     `json:"amount_cents"`
	PayoutCount int       `json:"payout_count"`
	MaturedAt   time.Time `json:"matured_at"`
}

// WithdrawalRequestedEvent is emitted when an available balance moves into transfer.
type WithdrawalRequestedEvent struct {
	WithdrawalID uuid.UUID `json:"withdrawal_id"`
	SellerID     uuid.UUID `json:"seller_id"`
	AmountCents  int64     `json:"amount_cents"`
	RequestedAt  time.Time `json:"requested_at"`
}

// WithdrawalCompletedEvent closes out a transfer, success or failure.
type WithdrawalCompletedEvent struct {
	WithdrawalID uuid.UUID              `json:"withdrawal_id"`
	SellerID     uuid.UUID              `json:"seller_id"`
	AmountCents  int64                  `json:"amount_cents"`
	Status       enums.WithdrawalStatus `json:"status"`
	TransferRef  string                 `json:"transfer_ref,omitempty"`
	ProcessedAt  time.Time              `json:"processed_at"`
}

// RefundInstructedEvent tells the payment processor to return funds to the buyer.
type RefundInstructedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	BuyerID     uuid.UUID `json:"buyer_id"`
	AmountCents int64     `json:"amount_cents"`
	Reason      string    `json:"reason,omitempty"`
}

// ReturnUpdatedEvent tracks return workflow transitions.
type ReturnUpdatedEvent struct {
	ReturnID uuid.UUID          `json:"return_id"`
	OrderID  uuid.UUID          `json:"order_id"`
	Status   enums.ReturnStatus `json:"status"`
}

// DisputeUpdatedEvent tracks dispute workflow transitions.
type DisputeUpdatedEvent struct {
	DisputeID uuid.UUID           `json:"dispute_id"`
	OrderID   uuid.UUID           `json:"order_id"`
	Status    enums.DisputeStatus `json:"status"`
}
