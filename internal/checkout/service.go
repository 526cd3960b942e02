package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/targolabs/targo-backend/internal/fees"
	"github.com/targolabs/targo-backend/pkg/config"
	"github.com/targolabs/targo-backend/pkg/db/models"
	"github.com/targolabs/targo-backend/pkg/enums"
	pkgerrors "github.com/targolabs/targo-backend/pkg/errors"
	"github.com/targolabs/targo-backend/pkg/logger"
	"github.com/targolabs/targo-backend/pkg/outbox"
	"github.com/targolabs/targo-backend/pkg/outbox/payloads"
	"github.com/targolabs/targo-backend/pkg/payments"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type chargeCreator interface {
	CreateCharge(ctx context.Context, params payments.ChargeParams) (*payments.Charge, error)
}

// Service drives the three-stage checkout wizard and converts a reviewed
// session into an order.
type Service interface {
	Start(ctx context.Context, input StartInput) (*Session, error)
	Current(ctx context.Context, buyerID uuid.UUID) (*Session, error)
	SubmitShipping(ctx context.Context, input ShippingInput) (*Session, error)
	SubmitPayment(ctx context.Context, input PaymentInput) (*Session, error)
	Back(ctx context.Context, input BackInput) (*Session, error)
	Quote(ctx context.Context, buyerID uuid.UUID) (*fees.Breakdown, error)
	Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	charges  chargeCreator
	sessions *sessionStore
	validate *validator.Validate
	currency enums.Currency
	logg     *logger.Logger
}

// NewService builds the checkout orchestrator with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, charges chargeCreator, kv sessionKV, cfg config.CheckoutConfig, settlement config.SettlementConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if charges == nil {
		return nil, fmt.Errorf("charge creator required")
	}
	if kv == nil {
		return nil, fmt.Errorf("session store required")
	}
	currency := enums.Currency(settlement.Currency)
	if !currency.IsValid() {
		currency = enums.CurrencyRON
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   outboxSvc,
		charges:  charges,
		sessions: &sessionStore{kv: kv, ttl: cfg.SessionTTL},
		validate: validator.New(validator.WithRequiredStructEnabled()),
		currency: currency,
		logg:     logg,
	}, nil
}

func (s *service) Start(ctx context.Context, input StartInput) (*Session, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	seller := input.Items[0].SellerID
	for _, item := range input.Items {
		if item.SellerID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item missing seller")
		}
		if item.SellerID != seller {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart spans multiple sellers, one order per seller")
		}
		if item.PriceCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item price must be positive")
		}
	}

	now := time.Now()
	sess := Session{
		ID:        uuid.New(),
		BuyerID:   input.BuyerID,
		Stage:     StageShipping,
		Items:     input.Items,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.save(ctx, sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *service) Current(ctx context.Context, buyerID uuid.UUID) (*Session, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return s.sessions.find(ctx, buyerID)
}

func (s *service) SubmitShipping(ctx context.Context, input ShippingInput) (*Session, error) {
	sess, err := s.Current(ctx, input.BuyerID)
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input.Address); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, addressValidationMessage(err))
	}
	next, err := sess.WithShipping(input.Address)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.save(ctx, next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *service) SubmitPayment(ctx context.Context, input PaymentInput) (*Session, error) {
	sess, err := s.Current(ctx, input.BuyerID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPaymentSelection(ctx, sess, input.Selection); err != nil {
		return nil, err
	}
	next, err := sess.WithPayment(input.Selection)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.save(ctx, next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *service) checkPaymentSelection(ctx context.Context, sess *Session, sel PaymentSelection) error {
	switch sel.Method {
	case enums.PaymentMethodCard:
		if strings.TrimSpace(sel.CardToken) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "card token required")
		}
		if !sel.ShippingMethod.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "shipping method required")
		}
		return nil

	case enums.PaymentMethodCOD:
		if !fees.CODEligible(sess.feeItems()) {
			return pkgerrors.New(pkgerrors.CodeValidation, "cash on delivery not available for this cart")
		}
		if sel.CourierID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "courier selection required for cash on delivery")
		}
		courier, err := s.repo.FindCourier(ctx, *sel.CourierID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "courier not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load courier")
		}
		if !courier.CodEnabled {
			return pkgerrors.New(pkgerrors.CodeValidation, "courier does not support cash on delivery")
		}
		switch sel.DeliveryType {
		case enums.DeliveryTypeHome:
			if !courier.HomeDelivery {
				return pkgerrors.New(pkgerrors.CodeValidation, "courier does not deliver to home addresses")
			}
		case enums.DeliveryTypeLocker:
			if !courier.LockerDelivery {
				return pkgerrors.New(pkgerrors.CodeValidation, "courier does not deliver to lockers")
			}
			if sel.LockerID == nil || strings.TrimSpace(*sel.LockerID) == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "locker selection required for locker delivery")
			}
		default:
			return pkgerrors.New(pkgerrors.CodeValidation, "delivery type required for cash on delivery")
		}
		return nil

	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method")
	}
}

func (s *service) Back(ctx context.Context, input BackInput) (*Session, error) {
	sess, err := s.Current(ctx, input.BuyerID)
	if err != nil {
		return nil, err
	}
	next, err := sess.BackTo(input.Stage)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.save(ctx, next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *service) Quote(ctx context.Context, buyerID uuid.UUID) (*fees.Breakdown, error) {
	sess, err := s.Current(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if sess.Payment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment stage not completed")
	}
	breakdown, err := s.quote(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &breakdown, nil
}

func (s *service) quote(ctx context.Context, sess *Session) (fees.Breakdown, error) {
	sel := sess.Payment
	var profile *fees.CourierProfile
	if sel.Method == enums.PaymentMethodCOD && sel.CourierID != nil {
		courier, err := s.repo.FindCourier(ctx, *sel.CourierID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return fees.Breakdown{}, pkgerrors.New(pkgerrors.CodeNotFound, "courier not found")
			}
			return fees.Breakdown{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load courier")
		}
		profile = &fees.CourierProfile{
			CodFeePercent:         courier.CodSurchargePct,
			CodFixedFeeCents:      courier.CodFixedFeeCents,
			BaseShippingCostCents: courier.TransportFeeCents,
		}
	}
	return fees.Quote(sess.feeItems(), sel.Method, sel.ShippingMethod, profile)
}

// Submit turns the reviewed session into an order. Card payments are charged
// through the processor first, under the client's idempotency key, so a retry
// after a dropped response replays the same charge instead of creating a new
// one; the order row is only written once the processor has answered. Any
// failure on this path leaves the session (and with it the cart snapshot)
// untouched so the buyer stays on review with an intact state.
func (s *service) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	sess, err := s.Current(ctx, input.BuyerID)
	if err != nil {
		return nil, err
	}
	if err := sess.readyForSubmit(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.IdempotencyKey) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency key required")
	}

	breakdown, err := s.quote(ctx, sess)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	orderID := uuid.New()
	order := &models.Order{
		ID:                  orderID,
		BuyerID:             sess.BuyerID,
		SellerID:            sess.sellerID(),
		ListingID:           sess.listingID(),
		Currency:            s.currency,
		AmountCents:         breakdown.TotalCents,
		SubtotalCents:       breakdown.SubtotalCents,
		ShippingCostCents:   breakdown.ShippingCostCents,
		BuyerFeeCents:       breakdown.BuyerFeeCents,
		CodExtraFeeCents:    breakdown.CodExtraFeeCents,
		PaymentMethod:       sess.Payment.Method,
		ShippingMethod:      sess.Payment.ShippingMethod,
		ShippingAddress:     *sess.Shipping,
		ShippingAddressText: sess.Shipping.FreeText(),
		InvoiceNumber:       invoiceNumber(now, orderID),
	}

	approvalURL := ""
	switch sess.Payment.Method {
	case enums.PaymentMethodCard:
		charge, err := s.charges.CreateCharge(ctx, payments.ChargeParams{
			IdempotencyKey: input.IdempotencyKey,
			OrderID:        order.ID,
			AmountCents:    breakdown.TotalCents,
			Currency:       string(s.currency),
			CardToken:      sess.Payment.CardToken,
			Description:    "Order " + order.InvoiceNumber,
		})
		if err != nil {
			return nil, err
		}
		approvalURL = charge.ApprovalURL
		if charge.Status == payments.ChargeStatusSucceeded {
			order.Status = enums.OrderStatusPaid
		} else {
			order.Status = enums.OrderStatusPending
		}
	case enums.PaymentMethodCOD:
		// Cash collection at hand-over is guaranteed by the courier
		// contract, so the seller may ship right away.
		order.Status = enums.OrderStatusPaid
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := s.emitOrderCreated(ctx, tx, order); err != nil {
			return err
		}
		if order.Status == enums.OrderStatusPaid {
			return s.emitOrderPaid(ctx, tx, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.sessions.delete(ctx, sess.BuyerID); err != nil {
		// The order exists; the stale session will expire on its own.
		if s.logg != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "failed to clear checkout session after order creation")
		}
	}

	return &SubmitResult{
		OrderID:       order.ID,
		InvoiceNumber: order.InvoiceNumber,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		Breakdown:     breakdown,
		ApprovalURL:   approvalURL,
	}, nil
}

func (s *service) emitOrderCreated(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: order.BuyerID, Role: string(enums.ActorRoleBuyer)},
		Data: payloads.OrderCreatedEvent{
			OrderID:       order.ID,
			BuyerID:       order.BuyerID,
			SellerID:      order.SellerID,
			PaymentMethod: order.PaymentMethod,
			AmountCents:   order.AmountCents,
			Currency:      string(order.Currency),
		},
	})
}

func (s *service) emitOrderPaid(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: order.BuyerID, Role: string(enums.ActorRoleBuyer)},
		Data: payloads.OrderStatusChangedEvent{
			OrderID:    order.ID,
			BuyerID:    order.BuyerID,
			SellerID:   order.SellerID,
			FromStatus: enums.OrderStatusPending,
			ToStatus:   enums.OrderStatusPaid,
			ChangedAt:  time.Now(),
		},
	})
}

func addressValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, strings.ToLower(fe.Field()))
		}
		return "invalid shipping address: " + strings.Join(fields, ", ")
	}
	return "invalid shipping address"
}

func invoiceNumber(now time.Time, id uuid.UUID) string {
	return fmt.Sprintf("TRG-%s-%s", now.UTC().Format("20060102"), strings.ToUpper(id.String()[:8]))
}
