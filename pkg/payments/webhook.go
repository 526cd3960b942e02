package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/targolabs/targo-backend/pkg/errors"
)

// Webhook event types delivered by the processor.
const (
	EventPaymentSucceeded  = "payment.succeeded"
	EventPaymentFailed     = "payment.failed"
	EventPaymentRefunded   = "payment.refunded"
	EventTransferCompleted = "transfer.completed"
	EventTransferFailed    = "transfer.failed"
)

// Event is one webhook delivery. Data is decoded per Type.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
	Data      json.RawMessage `json:"data"`
}

// PaymentEventData is the payload of payment.* events.
type PaymentEventData struct {
	ChargeID    string    `json:"charge_id"`
	OrderID     uuid.UUID `json:"order_id"`
	AmountCents int64     `json:"amount_cents"`
	Reason      string    `json:"reason,omitempty"`
}

// TransferEventData is the payload of transfer.* events.
type TransferEventData struct {
	TransferID    string    `json:"transfer_id"`
	WithdrawalID  uuid.UUID `json:"withdrawal_id"`
	AmountCents   int64     `json:"amount_cents"`
	FailureReason string    `json:"failure_reason,omitempty"`
}

// ParseEvent verifies the delivery signature and decodes the envelope.
func ParseEvent(payload []byte, secret, signature string) (*Event, error) {
	if !VerifySignature(payload, secret, signature) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature verification failed")
	}
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook event")
	}
	if event.ID == "" || event.Type == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook event id and type required")
	}
	return &event, nil
}

// VerifySignature checks the HMAC-SHA256 hex signature the processor attaches
// to webhook deliveries.
func VerifySignature(payload []byte, secret, header string) bool {
	if header == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}
