package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Courier holds the per-carrier cash-on-delivery profile. The surcharge is
// a percentage of the subtotal plus a fixed component; listings may override
// both at checkout time.
type Courier struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string          `gorm:"column:name;not null;uniqueIndex:ux_couriers_name"`
	Country           string          `gorm:"column:country;not null"`
	CodEnabled        bool            `gorm:"column:cod_enabled;not null;default:false"`
	CodSurchargePct   decimal.Decimal `gorm:"column:cod_surcharge_pct;type:numeric(5,2);not null;default:0"`
	CodFixedFeeCents  int64           `gorm:"column:cod_fixed_fee_cents;not null;default:0"`
	TransportFeeCents int64           `gorm:"column:transport_fee_cents;not null;default:0"`
	HomeDelivery      bool            `gorm:"column:home_delivery;not null;default:true"`
	LockerDelivery    bool            `gorm:"column:locker_delivery;not null;default:false"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
