package enums

import "fmt"

// PayoutStatus reflects where a payout sits in the settlement pipeline.
type PayoutStatus string

const (
	PayoutStatusPending   PayoutStatus = "pending"
	PayoutStatusProcessed PayoutStatus = "processed"
	PayoutStatusFailed    PayoutStatus = "failed"
)

var validPayoutStatuses = []PayoutStatus{
	PayoutStatusPending,
	PayoutStatusProcessed,
	PayoutStatusFailed,
}

// String implements fmt.Stringer.
func (p PayoutStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PayoutStatus.
func (p PayoutStatus) IsValid() bool {
	for _, candidate := range validPayoutStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePayoutStatus converts raw input into a PayoutStatus.
func ParsePayoutStatus(value string) (PayoutStatus, error) {
	for _, candidate := range validPayoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout status %q", value)
}

// OrderPayoutStatus mirrors the payout marker carried on an order row.
type OrderPayoutStatus string

const (
	OrderPayoutStatusNone    OrderPayoutStatus = "none"
	OrderPayoutStatusPending OrderPayoutStatus = "pending"
	OrderPayoutStatusPaid    OrderPayoutStatus = "paid"
)

// IsValid reports whether the value is a known OrderPayoutStatus.
func (o OrderPayoutStatus) IsValid() bool {
	switch o {
	case OrderPayoutStatusNone, OrderPayoutStatusPending, OrderPayoutStatusPaid:
		return true
	default:
		return false
	}
}
