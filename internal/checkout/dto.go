package checkout

import (
	"github.com/google/uuid"

	"github.com/targolabs/targo-backend/internal/fees"
	"github.com/targolabs/targo-backend/pkg/enums"
	"github.com/targolabs/targo-backend/pkg/types"
)

// StartInput opens a fresh checkout session from a cart snapshot.
type StartInput struct {
	BuyerID uuid.UUID
	Items   []CartItem
}

// ShippingInput completes the shipping stage.
type ShippingInput struct {
	BuyerID uuid.UUID
	Address types.ShippingAddress
}

// PaymentInput completes the payment stage.
type PaymentInput struct {
	BuyerID   uuid.UUID
	Selection PaymentSelection
}

// BackInput navigates the wizard to an earlier stage.
type BackInput struct {
	BuyerID uuid.UUID
	Stage   Stage
}

// SubmitInput finalizes the review stage. IdempotencyKey is generated by the
// client and forwarded to the payment processor so a network retry cannot
// charge the buyer twice.
type SubmitInput struct {
	BuyerID        uuid.UUID
	IdempotencyKey string
}

// SubmitResult is the checkout outcome. ApprovalURL, when set, means the
// buyer must be redirected to the processor's hosted page to finish paying.
type SubmitResult struct {
	OrderID       uuid.UUID           `json:"orderId"`
	InvoiceNumber string              `json:"invoiceNumber"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	Breakdown     fees.Breakdown      `json:"breakdown"`
	ApprovalURL   string              `json:"approvalUrl,omitempty"`
}
