package disputes

import (
	"time"

	"github.com/google/uuid"

	"github.com/targolabs/targo-backend/pkg/enums"
)

// OpenInput carries a buyer's or seller's escalation on an order.
type OpenInput struct {
	OrderID     uuid.UUID
	ActorID     uuid.UUID
	ActorRole   enums.ActorRole
	Reason      string
	Description string
}

// ResolveInput carries the admin verdict closing a dispute.
type ResolveInput struct {
	DisputeID  uuid.UUID
	AdminID    uuid.UUID
	Resolution string
}

// DisputeFilters describe the inputs supported by the dispute lists.
type DisputeFilters struct {
	OrderID  *uuid.UUID
	RaisedBy *uuid.UUID
	Status   *enums.DisputeStatus
}

// DisputeSummary exposes the fields returned in dispute lists.
type DisputeSummary struct {
	ID         uuid.UUID           `json:"id"`
	OrderID    uuid.UUID           `json:"order_id"`
	RaisedBy   uuid.UUID           `json:"raised_by"`
	RaisedRole enums.ActorRole     `json:"raised_role"`
	Reason     string              `json:"reason"`
	Status     enums.DisputeStatus `json:"status"`
	Resolution *string             `json:"resolution,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

// DisputeList wraps the paginated disputes plus the next page cursor.
type DisputeList struct {
	Disputes   []DisputeSummary `json:"disputes"`
	NextCursor string           `json:"next_cursor,omitempty"`
}
