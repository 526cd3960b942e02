package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/targolabs/targo-backend/pkg/enums"
)

// Seller is the settlement-facing projection of a seller account. KYC is
// verified by an external identity provider; this table only mirrors the
// outcome, which gates withdrawals.
type Seller struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	DisplayName string          `gorm:"column:display_name;not null"`
	Country     string          `gorm:"column:country;not null"`
	KYCStatus   enums.KYCStatus `gorm:"column:kyc_status;type:text;not null;default:'not_started'"`
	IBAN        *string         `gorm:"column:iban"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
