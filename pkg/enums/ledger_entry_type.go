package enums

import "fmt"

// LedgerEntryType classifies a movement on a seller's balance pair.
type LedgerEntryType string

const (
	LedgerEntryTypeDeliveryCredit     LedgerEntryType = "delivery_credit"
	LedgerEntryTypeMaturation         LedgerEntryType = "maturation"
	LedgerEntryTypeWithdrawalDebit    LedgerEntryType = "withdrawal_debit"
	LedgerEntryTypeWithdrawalSettled  LedgerEntryType = "withdrawal_settled"
	LedgerEntryTypeWithdrawalReversed LedgerEntryType = "withdrawal_reversed"
	LedgerEntryTypeRefundAdjustment   LedgerEntryType = "refund_adjustment"
)

var validLedgerEntryTypes = []LedgerEntryType{
	LedgerEntryTypeDeliveryCredit,
	LedgerEntryTypeMaturation,
	LedgerEntryTypeWithdrawalDebit,
	LedgerEntryTypeWithdrawalSettled,
	LedgerEntryTypeWithdrawalReversed,
	LedgerEntryTypeRefundAdjustment,
}

// String implements fmt.Stringer.
func (l LedgerEntryType) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LedgerEntryType.
func (l LedgerEntryType) IsValid() bool {
	for _, candidate := range validLedgerEntryTypes {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLedgerEntryType converts raw input into a LedgerEntryType.
func ParseLedgerEntryType(value string) (LedgerEntryType, error) {
	for _, candidate := range validLedgerEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry type %q", value)
}
