package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/targolabs/targo-backend/pkg/db/models"
	"github.com/targolabs/targo-backend/pkg/enums"
	pkgerrors "github.com/targolabs/targo-backend/pkg/errors"
	"github.com/targolabs/targo-backend/pkg/outbox"
	"github.com/targolabs/targo-backend/pkg/outbox/payloads"
	"github.com/targolabs/targo-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// PayoutCrediter credits the seller's pending balance when an order is
// delivered. The call runs inside the delivery transaction so the status
// change and the credit commit or roll back together.
type PayoutCrediter interface {
	CreditForDelivery(ctx context.Context, tx *gorm.DB, order *models.Order) error
}

// Service defines order lifecycle operations beyond repository reads.
type Service interface {
	Get(ctx context.Context, actorID uuid.UUID, role enums.ActorRole, orderID uuid.UUID) (*models.Order, error)
	ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error)
	ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error)
	AddTracking(ctx context.Context, input AddTrackingInput) error
	ConfirmDelivery(ctx context.Context, input ConfirmDeliveryInput) error
	OverrideStatus(ctx context.Context, input OverrideStatusInput) error
	MarkPaid(ctx context.Context, orderID uuid.UUID) error
	Cancel(ctx context.Context, input CancelInput) error
	MarkRefunded(ctx context.Context, orderID uuid.UUID, reason string) error
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	payouts PayoutCrediter
}

// NewService builds an order lifecycle service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, payouts PayoutCrediter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if payouts == nil {
		return nil, fmt.Errorf("payout crediter required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  outboxSvc,
		payouts: payouts,
	}, nil
}

// allowedTransitions is the forward lifecycle. Admin overrides bypass it.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusPaid, enums.OrderStatusCancelled},
	enums.OrderStatusPaid:      {enums.OrderStatusShipped, enums.OrderStatusCancelled, enums.OrderStatusRefunded},
	enums.OrderStatusShipped:   {enums.OrderStatusDelivered, enums.OrderStatusRefunded},
	enums.OrderStatusDelivered: {enums.OrderStatusRefunded},
}

func canTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func eventForStatus(status enums.OrderStatus) enums.OutboxEventType {
	switch status {
	case enums.OrderStatusPaid:
		return enums.EventOrderPaid
	case enums.OrderStatusShipped:
		return enums.EventOrderShipped
	case enums.OrderStatusDelivered:
		return enums.EventOrderDelivered
	case enums.OrderStatusCancelled:
		return enums.EventOrderCancelled
	case enums.OrderStatusRefunded:
		return enums.EventOrderRefunded
	default:
		return enums.EventOrderCreated
	}
}

func (s *service) Get(ctx context.Context, actorID uuid.UUID, role enums.ActorRole, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	switch role {
	case enums.ActorRoleAdmin:
	case enums.ActorRoleBuyer:
		if order.BuyerID != actorID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to buyer")
		}
	case enums.ActorRoleSeller:
		if order.SellerID != actorID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to seller")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot read orders")
	}
	return order, nil
}

func (s *service) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListBuyerOrders(ctx, buyerID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list buyer orders")
	}
	return list, nil
}

func (s *service) ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListSellerOrders(ctx, sellerID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller orders")
	}
	return list, nil
}

func (s *service) AddTracking(ctx context.Context, input AddTrackingInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.SellerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	carrier := strings.TrimSpace(input.Carrier)
	tracking := strings.TrimSpace(input.TrackingNumber)
	if carrier == "" || tracking == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "carrier and tracking number required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.SellerID != input.SellerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to seller")
		}
		if order.Status != enums.OrderStatusPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "tracking can only be added to a paid order")
		}

		updates := map[string]any{
			"status":          enums.OrderStatusShipped,
			"carrier":         carrier,
			"tracking_number": tracking,
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}

		return s.emitStatusChange(ctx, tx, order, enums.OrderStatusPaid, enums.OrderStatusShipped, actorRef(input.SellerID, enums.ActorRoleSeller), false, "")
	})
}

func (s *service) ConfirmDelivery(ctx context.Context, input ConfirmDeliveryInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.BuyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.BuyerID != input.BuyerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to buyer")
		}
		if order.Status == enums.OrderStatusDelivered {
			return nil
		}
		if order.Status != enums.OrderStatusShipped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only a shipped order can be confirmed delivered")
		}

		confirmedAt := time.Now()
		updates := map[string]any{
			"status":                enums.OrderStatusDelivered,
			"delivery_confirmed_at": confirmedAt,
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}

		order.Status = enums.OrderStatusDelivered
		order.DeliveryConfirmedAt = &confirmedAt
		if err := s.payouts.CreditForDelivery(ctx, tx, order); err != nil {
			return err
		}

		return s.emitStatusChange(ctx, tx, order, enums.OrderStatusShipped, enums.OrderStatusDelivered, actorRef(input.BuyerID, enums.ActorRoleBuyer), false, "")
	})
}

func (s *service) OverrideStatus(ctx context.Context, input OverrideStatusInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.AdminID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status == input.Status {
			return nil
		}
		from := order.Status

		if err := repo.UpdateStatus(ctx, order.ID, input.Status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		// An override into delivered owes the seller the same credit a buyer
		// confirmation would have produced. The credit is idempotent per order,
		// so re-running the override cannot double-pay.
		if input.Status == enums.OrderStatusDelivered {
			order.Status = enums.OrderStatusDelivered
			if err := s.payouts.CreditForDelivery(ctx, tx, order); err != nil {
				return err
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusOverridden,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(input.AdminID, enums.ActorRoleAdmin),
			Data: payloads.OrderStatusChangedEvent{
				OrderID:    order.ID,
				BuyerID:    order.BuyerID,
				SellerID:   order.SellerID,
				FromStatus: from,
				ToStatus:   input.Status,
				Overridden: true,
				Reason:     input.Reason,
				ChangedAt:  time.Now(),
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
}

func (s *service) MarkPaid(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return s.transition(ctx, orderID, enums.OrderStatusPaid, actorRef(uuid.Nil, enums.ActorRoleProcessor), "")
}

func (s *service) Cancel(ctx context.Context, input CancelInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		switch input.ActorRole {
		case enums.ActorRoleBuyer:
			if order.BuyerID != input.ActorID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to buyer")
			}
		case enums.ActorRoleSeller:
			if order.SellerID != input.ActorID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to seller")
			}
		case enums.ActorRoleAdmin, enums.ActorRoleProcessor:
		default:
			return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot cancel orders")
		}
		if order.Status == enums.OrderStatusCancelled {
			return nil
		}
		if !canTransition(order.Status, enums.OrderStatusCancelled) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled")
		}

		if err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		return s.emitStatusChange(ctx, tx, order, order.Status, enums.OrderStatusCancelled, actorRef(input.ActorID, input.ActorRole), false, input.Reason)
	})
}

func (s *service) MarkRefunded(ctx context.Context, orderID uuid.UUID, reason string) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return s.transition(ctx, orderID, enums.OrderStatusRefunded, actorRef(uuid.Nil, enums.ActorRoleProcessor), reason)
}

// transition applies a processor-driven status change with the standard guard
// set, treating an already-applied status as a no-op.
func (s *service) transition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, actor *outbox.ActorRef, reason string) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status == target {
			return nil
		}
		if !canTransition(order.Status, target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
		}

		if err := repo.UpdateStatus(ctx, order.ID, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		return s.emitStatusChange(ctx, tx, order, order.Status, target, actor, false, reason)
	})
}

func (s *service) emitStatusChange(ctx context.Context, tx *gorm.DB, order *models.Order, from, target enums.OrderStatus, actor *outbox.ActorRef, overridden bool, reason string) error {
	event := outbox.DomainEvent{
		EventType:     eventForStatus(target),
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		Data: payloads.OrderStatusChangedEvent{
			OrderID:    order.ID,
			BuyerID:    order.BuyerID,
			SellerID:   order.SellerID,
			FromStatus: from,
			ToStatus:   target,
			Overridden: overridden,
			Reason:     reason,
			ChangedAt:  time.Now(),
		},
	}
	return s.outbox.Emit(ctx, tx, event)
}

func actorRef(userID uuid.UUID, role enums.ActorRole) *outbox.ActorRef {
	if userID == uuid.Nil && role == "" {
		return nil
	}
	return &outbox.ActorRef{UserID: userID, Role: role.String()}
}
