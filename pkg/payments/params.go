package payments

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChargeParams describes a card payment to capture for an order.
type ChargeParams struct {
	IdempotencyKey string    `json:"idempotency_key"`
	OrderID        uuid.UUID `json:"order_id"`
	AmountCents    int64     `json:"amount_cents"`
	Currency       string    `json:"currency"`
	CardToken      string    `json:"card_token"`
	Description    string    `json:"description,omitempty"`
}

// Charge is the processor's view of a captured payment. ApprovalURL is set
// when the buyer must finish the payment on the processor's hosted page; the
// charge then settles through a webhook instead of this response.
type Charge struct {
	ID          string    `json:"id"`
	OrderID     uuid.UUID `json:"order_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	ApprovalURL string    `json:"approval_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Charge statuses returned by the processor.
const (
	ChargeStatusSucceeded      = "succeeded"
	ChargeStatusRequiresAction = "requires_action"
)

// RefundParams instructs the processor to return funds to the buyer.
type RefundParams struct {
	IdempotencyKey string `json:"idempotency_key"`
	ChargeID       string `json:"-"`
	AmountCents    int64  `json:"amount_cents"`
	Reason         string `json:"reason,omitempty"`
}

// Refund is the processor's view of a refund.
type Refund struct {
	ID          string    `json:"id"`
	ChargeID    string    `json:"charge_id"`
	AmountCents int64     `json:"amount_cents"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// TransferParams describes a bank transfer to a seller's IBAN.
type TransferParams struct {
	IdempotencyKey string    `json:"idempotency_key"`
	WithdrawalID   uuid.UUID `json:"withdrawal_id"`
	SellerID       uuid.UUID `json:"seller_id"`
	AmountCents    int64     `json:"amount_cents"`
	Currency       string    `json:"currency"`
	IBAN           string    `json:"iban"`
	Description    string    `json:"description,omitempty"`
}

// Transfer is the processor's view of a bank transfer.
type Transfer struct {
	ID          string    `json:"id"`
	AmountCents int64     `json:"amount_cents"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// APIError is the processor's error body plus the HTTP status it arrived with.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payments api %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("payments api %d: %s", e.StatusCode, e.Message)
}
