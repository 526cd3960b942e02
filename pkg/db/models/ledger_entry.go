package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/targolabs/targo-backend/pkg/enums"
)

// LedgerEntry is the append-only audit trail for every movement on a seller's
// balance pair. Amounts are signed from the seller's perspective.
type LedgerEntry struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID    uuid.UUID             `gorm:"column:seller_id;type:uuid;not null;index"`
	OrderID     *uuid.UUID            `gorm:"column:order_id;type:uuid;index"`
	Type        enums.LedgerEntryType `gorm:"column:type;type:text;not null"`
	AmountCents int64                 `gorm:"column:amount_cents;not null"`
	Metadata    json.RawMessage       `gorm:"column:metadata;type:jsonb"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}
