package enums

import "fmt"

// KYCStatus is the verification outcome reported by the external identity
// provider. The verification workflow itself lives outside this service.
type KYCStatus string

const (
	KYCStatusNotStarted KYCStatus = "not_started"
	KYCStatusPending    KYCStatus = "pending"
	KYCStatusVerified   KYCStatus = "verified"
)

var validKYCStatuses = []KYCStatus{
	KYCStatusNotStarted,
	KYCStatusPending,
	KYCStatusVerified,
}

// String implements fmt.Stringer.
func (k KYCStatus) String() string {
	return string(k)
}

// IsValid reports whether the value is a known KYCStatus.
func (k KYCStatus) IsValid() bool {
	for _, candidate := range validKYCStatuses {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseKYCStatus converts raw input into a KYCStatus.
func ParseKYCStatus(value string) (KYCStatus, error) {
	for _, candidate := range validKYCStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid kyc status %q", value)
}
