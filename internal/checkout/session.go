package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/targolabs/targo-backend/internal/fees"
	"github.com/targolabs/targo-backend/pkg/enums"
	pkgerrors "github.com/targolabs/targo-backend/pkg/errors"
	"github.com/targolabs/targo-backend/pkg/types"
)

// Stage is the wizard position. Stages are strictly sequential going forward;
// back-navigation may land on any earlier stage without losing collected data.
type Stage string

const (
	StageShipping Stage = "shipping"
	StagePayment  Stage = "payment"
	StageReview   Stage = "review"
)

var stageOrder = map[Stage]int{
	StageShipping: 0,
	StagePayment:  1,
	StageReview:   2,
}

// IsValid reports whether the value is a known Stage.
func (s Stage) IsValid() bool {
	_, ok := stageOrder[s]
	return ok
}

// CartItem is one cart line frozen into the session at Start. COD overrides
// are pointers: nil means the courier defaults apply.
type CartItem struct {
	ListingID            *uuid.UUID       `json:"listing_id,omitempty"`
	SellerID             uuid.UUID        `json:"seller_id"`
	Title                string           `json:"title,omitempty"`
	PriceCents           int64            `json:"price_cents"`
	SellerCountry        string           `json:"seller_country"`
	CodEnabled           bool             `json:"cod_enabled"`
	CodFeePercent        *decimal.Decimal `json:"cod_fee_percent,omitempty"`
	CodFixedFeeCents     *int64           `json:"cod_fixed_fee_cents,omitempty"`
	CodTransportFeeCents *int64           `json:"cod_transport_fee_cents,omitempty"`
}

// PaymentSelection is the payment stage's output. Card checkouts carry a
// processor token and a shipping tier; COD checkouts carry the courier and
// hand-over choice instead.
type PaymentSelection struct {
	Method         enums.PaymentMethod  `json:"method"`
	CardToken      string               `json:"card_token,omitempty"`
	ShippingMethod enums.ShippingMethod `json:"shipping_method,omitempty"`
	CourierID      *uuid.UUID           `json:"courier_id,omitempty"`
	DeliveryType   enums.DeliveryType   `json:"delivery_type,omitempty"`
	LockerID       *string              `json:"locker_id,omitempty"`
}

// Session is the whole wizard state, serialized to redis as JSON. One session
// per buyer; starting a new checkout replaces the previous one.
type Session struct {
	ID        uuid.UUID              `json:"id"`
	BuyerID   uuid.UUID              `json:"buyer_id"`
	Stage     Stage                  `json:"stage"`
	Items     []CartItem             `json:"items"`
	Shipping  *types.ShippingAddress `json:"shipping,omitempty"`
	Payment   *PaymentSelection      `json:"payment,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// WithShipping records the validated address and advances to the payment
// stage. Allowed from any stage so a buyer returning to shipping can correct
// the address; an earlier payment selection survives the round trip.
func (s Session) WithShipping(addr types.ShippingAddress) (Session, error) {
	if !s.Stage.IsValid() {
		return Session{}, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout session is in an unknown stage")
	}
	s.Shipping = &addr
	s.Stage = StagePayment
	s.UpdatedAt = time.Now()
	return s, nil
}

// WithPayment records the payment selection and advances to review. The
// shipping stage must have been completed first.
func (s Session) WithPayment(sel PaymentSelection) (Session, error) {
	if s.Shipping == nil {
		return Session{}, pkgerrors.New(pkgerrors.CodeStateConflict, "shipping stage not completed")
	}
	s.Payment = &sel
	s.Stage = StageReview
	s.UpdatedAt = time.Now()
	return s, nil
}

// BackTo moves the wizard to an earlier stage, keeping everything collected
// so far.
func (s Session) BackTo(target Stage) (Session, error) {
	if !target.IsValid() {
		return Session{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown checkout stage")
	}
	if stageOrder[target] >= stageOrder[s.Stage] {
		return Session{}, pkgerrors.New(pkgerrors.CodeStateConflict, "can only navigate back to an earlier stage")
	}
	s.Stage = target
	s.UpdatedAt = time.Now()
	return s, nil
}

func (s Session) readyForSubmit() error {
	if s.Stage != StageReview {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is not at the review stage")
	}
	if s.Shipping == nil || s.Payment == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout session is incomplete")
	}
	return nil
}

func (s Session) feeItems() []fees.Item {
	items := make([]fees.Item, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, fees.Item{
			PriceCents:           item.PriceCents,
			SellerCountry:        item.SellerCountry,
			CodEnabled:           item.CodEnabled,
			CodFeePercent:        item.CodFeePercent,
			CodFixedFeeCents:     item.CodFixedFeeCents,
			CodTransportFeeCents: item.CodTransportFeeCents,
		})
	}
	return items
}

func (s Session) sellerID() uuid.UUID {
	if len(s.Items) == 0 {
		return uuid.Nil
	}
	return s.Items[0].SellerID
}

// listingID is only carried onto the order for single-line checkouts; a
// multi-line cart produces an order with no listing reference.
func (s Session) listingID() *uuid.UUID {
	if len(s.Items) == 1 {
		return s.Items[0].ListingID
	}
	return nil
}
