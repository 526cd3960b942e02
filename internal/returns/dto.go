package returns

import (
	"time"

	"github.com/google/uuid"

	"github.com/targolabs/targo-backend/pkg/enums"
)

// OpenInput carries a buyer's request to return a delivered order.
type OpenInput struct {
	OrderID     uuid.UUID
	BuyerID     uuid.UUID
	Reason      string
	Description string
}

// DecisionInput carries an admin's approve/reject verdict on a pending return.
type DecisionInput struct {
	ReturnID          uuid.UUID
	AdminID           uuid.UUID
	Notes             string
	RefundAmountCents *int64
}

// ReturnFilters describe the inputs supported by the return lists.
type ReturnFilters struct {
	BuyerID  *uuid.UUID
	SellerID *uuid.UUID
	Status   *enums.ReturnStatus
}

// ReturnSummary exposes the fields returned in return lists.
type ReturnSummary struct {
	ID                uuid.UUID          `json:"id"`
	OrderID           uuid.UUID          `json:"order_id"`
	BuyerID           uuid.UUID          `json:"buyer_id"`
	SellerID          uuid.UUID          `json:"seller_id"`
	Reason            string             `json:"reason"`
	Status            enums.ReturnStatus `json:"status"`
	RefundAmountCents *int64             `json:"refund_amount_cents,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
}

// ReturnList wraps the paginated returns plus the next page cursor.
type ReturnList struct {
	Returns    []ReturnSummary `json:"returns"`
	NextCursor string          `json:"next_cursor,omitempty"`
}
