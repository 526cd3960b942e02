package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/targolabs/targo-backend/pkg/enums"
)

// Dispute is an escalation raised by either party on an order. Resolution
// is an admin action and may carry a refund adjustment on the payout side.
type Dispute struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	RaisedBy    uuid.UUID           `gorm:"column:raised_by;type:uuid;not null"`
	RaisedRole  enums.ActorRole     `gorm:"column:raised_role;type:text;not null"`
	Reason      string              `gorm:"column:reason;not null"`
	Description string              `gorm:"column:description"`
	Status      enums.DisputeStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Resolution  *string             `gorm:"column:resolution"`
	ResolvedBy  *uuid.UUID          `gorm:"column:resolved_by;type:uuid"`
	ResolvedAt  *time.Time          `gorm:"column:resolved_at"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
