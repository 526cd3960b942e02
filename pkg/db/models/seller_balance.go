package models

import (
	"time"

	"github.com/google/uuid"
)

// SellerBalance is the per-seller balance pair plus the in-transfer bucket
// holding withdrawals awaiting external settlement. Every mutation to this
// row is a single atomic increment/decrement keyed by seller_id; the service
// layer never does read-modify-write across round trips.
type SellerBalance struct {
	SellerID            uuid.UUID `gorm:"column:seller_id;type:uuid;primaryKey"`
	PendingCents        int64     `gorm:"column:pending_cents;not null;default:0"`
	AvailableCents      int64     `gorm:"column:available_cents;not null;default:0"`
	InTransferCents     int64     `gorm:"column:in_transfer_cents;not null;default:0"`
	LifetimeEarnedCents int64     `gorm:"column:lifetime_earned_cents;not null;default:0"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
