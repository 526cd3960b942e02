package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/targolabs/targo-backend/pkg/enums"
)

// Withdrawal tracks a seller-initiated transfer of available funds to an
// external bank account. The debit against the available balance happens in
// the same transaction that creates this row.
type Withdrawal struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID    uuid.UUID              `gorm:"column:seller_id;type:uuid;not null;index"`
	AmountCents int64                  `gorm:"column:amount_cents;not null"`
	Status      enums.WithdrawalStatus `gorm:"column:status;type:text;not null;default:'in_transfer'"`
	TransferRef *string                `gorm:"column:transfer_ref"`
	FailureNote *string                `gorm:"column:failure_note"`
	ProcessedAt *time.Time             `gorm:"column:processed_at"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
