// Package fees computes checkout totals and settlement splits. Everything in
// here is a pure function of its inputs so quotes are reproducible
// bit-for-bit for reconciliation.
package fees

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/targolabs/targo-backend/pkg/enums"
	pkgerrors "github.com/targolabs/targo-backend/pkg/errors"
)

// Card shipping rate table, RON cents.
const (
	CardShippingStandardCents  int64 = 1599
	CardShippingExpressCents   int64 = 2499
	CardShippingOvernightCents int64 = 3999
)

var romanianCountries = map[string]struct{}{
	"romania": {},
	"ro":      {},
	"românia": {},
}

// Item is one checkout line as the calculator sees it. COD overrides are
// pointers: nil means "use the courier defaults".
type Item struct {
	PriceCents           int64
	SellerCountry        string
	CodEnabled           bool
	CodFeePercent        *decimal.Decimal
	CodFixedFeeCents     *int64
	CodTransportFeeCents *int64
}

// CourierProfile carries the courier's default COD pricing.
type CourierProfile struct {
	CodFeePercent         decimal.Decimal
	CodFixedFeeCents      int64
	BaseShippingCostCents int64
}

// Breakdown is the quoted price decomposition. CodExtraFeeCents and
// BuyerFeeCents are mutually exclusive by payment method.
type Breakdown struct {
	SubtotalCents     int64 `json:"subtotalCents"`
	ShippingCostCents int64 `json:"shippingCostCents"`
	BuyerFeeCents     int64 `json:"buyerFeeCents"`
	CodExtraFeeCents  int64 `json:"codExtraFeeCents"`
	TotalCents        int64 `json:"totalCents"`
}

// CODEligible reports whether cash on delivery may be offered: every item must
// have it enabled and at least one seller must be in Romania.
func CODEligible(items []Item) bool {
	if len(items) == 0 {
		return false
	}
	anyRomanian := false
	for _, item := range items {
		if !item.CodEnabled {
			return false
		}
		if isRomanian(item.SellerCountry) {
			anyRomanian = true
		}
	}
	return anyRomanian
}

func isRomanian(country string) bool {
	_, ok := romanianCountries[strings.ToLower(strings.TrimSpace(country))]
	return ok
}

// Quote prices a cart for the chosen payment and shipping method. For COD the
// first item's own COD settings win over the courier defaults, matching how
// listings override courier pricing.
func Quote(items []Item, payment enums.PaymentMethod, shipping enums.ShippingMethod, courier *CourierProfile) (Breakdown, error) {
	if len(items) == 0 {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	var subtotal int64
	for _, item := range items {
		if item.PriceCents < 0 {
			return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative")
		}
		subtotal += item.PriceCents
	}

	switch payment {
	case enums.PaymentMethodCard:
		shippingCost, err := cardShippingCost(shipping)
		if err != nil {
			return Breakdown{}, err
		}
		return Breakdown{
			SubtotalCents:     subtotal,
			ShippingCostCents: shippingCost,
			TotalCents:        subtotal + shippingCost,
		}, nil

	case enums.PaymentMethodCOD:
		if !CODEligible(items) {
			return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "cash on delivery not available for this cart")
		}
		pct, fixed, transport, err := codSettings(items[0], courier)
		if err != nil {
			return Breakdown{}, err
		}
		codExtra := percentOf(subtotal, pct) + fixed
		return Breakdown{
			SubtotalCents:     subtotal,
			ShippingCostCents: transport,
			CodExtraFeeCents:  codExtra,
			TotalCents:        subtotal + transport + codExtra,
		}, nil

	default:
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method")
	}
}

func cardShippingCost(shipping enums.ShippingMethod) (int64, error) {
	switch shipping {
	case enums.ShippingMethodStandard:
		return CardShippingStandardCents, nil
	case enums.ShippingMethodExpress:
		return CardShippingExpressCents, nil
	case enums.ShippingMethodOvernight:
		return CardShippingOvernightCents, nil
	default:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "unsupported shipping method")
	}
}

func codSettings(first Item, courier *CourierProfile) (pct decimal.Decimal, fixedCents, transportCents int64, err error) {
	hasOwn := first.CodFeePercent != nil || first.CodFixedFeeCents != nil || first.CodTransportFeeCents != nil
	if hasOwn {
		if first.CodFeePercent != nil {
			pct = *first.CodFeePercent
		}
		if first.CodFixedFeeCents != nil {
			fixedCents = *first.CodFixedFeeCents
		}
		if first.CodTransportFeeCents != nil {
			transportCents = *first.CodTransportFeeCents
		} else if courier != nil {
			transportCents = courier.BaseShippingCostCents
		}
		return pct, fixedCents, transportCents, nil
	}
	if courier == nil {
		return decimal.Decimal{}, 0, 0, pkgerrors.New(pkgerrors.CodeValidation, "courier selection required for cash on delivery")
	}
	return courier.CodFeePercent, courier.CodFixedFeeCents, courier.BaseShippingCostCents, nil
}

// percentOf computes cents*pct/100 rounded half-up to a whole cent, once.
func percentOf(cents int64, pct decimal.Decimal) int64 {
	if pct.IsZero() || cents == 0 {
		return 0
	}
	return decimal.NewFromInt(cents).
		Mul(pct).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

// CommissionFor splits an order amount into platform commission and seller
// payout. Payout is derived by subtraction so the two always sum back to the
// amount exactly.
func CommissionFor(amountCents int64, rate decimal.Decimal) (commissionCents, payoutCents int64) {
	commissionCents = percentOf(amountCents, rate)
	payoutCents = amountCents - commissionCents
	return commissionCents, payoutCents
}
