package enums

// Currency is the ISO 4217 currency code carried on money columns.
type Currency string

const (
	CurrencyRON Currency = "RON"
	CurrencyEUR Currency = "EUR"
)

// IsValid reports whether the value is a supported Currency.
func (c Currency) IsValid() bool {
	switch c {
	case CurrencyRON, CurrencyEUR:
		return true
	default:
		return false
	}
}
