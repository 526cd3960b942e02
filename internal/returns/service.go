package returns

import (
	"context"
	"fmt"
	"strings"

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

// RefundAdjuster claws back a delivered order's payout when a return
// completes. Runs inside the completion transaction.
type RefundAdjuster interface {
	AdjustForRefund(ctx context.Context, tx *gorm.DB, order *models.Order, amountCents int64, reason string) (int64, error)
}

// Service drives the return workflow: buyers open and cancel, admins decide
// and complete.
type Service interface {
	Open(ctx context.Context, input OpenInput) (*models.Return, error)
	Approve(ctx context.Context, input DecisionInput) error
	Reject(ctx context.Context, input DecisionInput) error
	Complete(ctx context.Context, returnID, adminID uuid.UUID) error
	Cancel(ctx context.Context, returnID, buyerID uuid.UUID) error
	Get(ctx context.Context, returnID uuid.UUID) (*models.Return, error)
	List(ctx context.Context, params pagination.Params, filters ReturnFilters) (*ReturnList, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	payouts RefundAdjuster
}

// NewService builds a return workflow service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, payouts RefundAdjuster) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("returns repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if payouts == nil {
		return nil, fmt.Errorf("refund adjuster required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  outboxSvc,
		payouts: payouts,
	}, nil
}

// Open registers a return request against a delivered order. One open return
// per order at a time.
func (s *service) Open(ctx context.Context, input OpenInput) (*models.Return, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return reason required")
	}

	var created *models.Return
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.BuyerID != input.BuyerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to buyer")
		}
		if order.Status != enums.OrderStatusDelivered {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "returns can only be opened for delivered orders")
		}

		if _, err := repo.FindOpenByOrder(ctx, order.ID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "a return is already open for this order")
		} else if err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check open returns")
		}

		created, err = repo.Create(ctx, &models.Return{
			OrderID:     order.ID,
			BuyerID:     order.BuyerID,
			SellerID:    order.SellerID,
			Reason:      strings.TrimSpace(input.Reason),
			Description: strings.TrimSpace(input.Description),
			Status:      enums.ReturnStatusPending,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create return")
		}
		return s.emitUpdated(ctx, tx, created, actorRef(input.BuyerID, enums.ActorRoleBuyer))
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Approve moves a pending return to approved and pins the refund amount.
func (s *service) Approve(ctx context.Context, input DecisionInput) error {
	return s.decide(ctx, input, enums.ReturnStatusApproved)
}

// Reject closes a pending return without compensation.
func (s *service) Reject(ctx context.Context, input DecisionInput) error {
	return s.decide(ctx, input, enums.ReturnStatusRejected)
}

func (s *service) decide(ctx context.Context, input DecisionInput, target enums.ReturnStatus) error {
	if input.ReturnID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "return id required")
	}
	if input.AdminID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ret, err := repo.FindByID(ctx, input.ReturnID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load return")
		}
		if ret.Status != enums.ReturnStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only a pending return can be decided")
		}

		updates := map[string]any{"status": target}
		if notes := strings.TrimSpace(input.Notes); notes != "" {
			updates["admin_notes"] = notes
		}
		if target == enums.ReturnStatusApproved {
			order, err := repo.FindOrder(ctx, ret.OrderID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
			}
			refund := order.AmountCents
			if input.RefundAmountCents != nil {
				refund = *input.RefundAmountCents
			}
			if refund <= 0 || refund > order.AmountCents {
				return pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive and at most the order amount")
			}
			updates["refund_amount_cents"] = refund
		}

		if err := repo.Update(ctx, ret.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update return")
		}
		ret.Status = target
		return s.emitUpdated(ctx, tx, ret, actorRef(input.AdminID, enums.ActorRoleAdmin))
	})
}

// Complete finishes an approved return: instructs the processor to refund
// the buyer and claws back the seller's payout, all in one transaction. The
// refund.instructed event is emitted exactly once because completion is only
// reachable from approved.
func (s *service) Complete(ctx context.Context, returnID, adminID uuid.UUID) error {
	if returnID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "return id required")
	}
	if adminID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ret, err := repo.FindByID(ctx, returnID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load return")
		}
		if ret.Status != enums.ReturnStatusApproved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only an approved return can be completed")
		}

		order, err := repo.FindOrder(ctx, ret.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		refund := order.AmountCents
		if ret.RefundAmountCents != nil {
			refund = *ret.RefundAmountCents
		}

		if _, err := s.payouts.AdjustForRefund(ctx, tx, order, refund, "return "+ret.ID.String()); err != nil {
			return err
		}
		if err := repo.Update(ctx, ret.ID, map[string]any{"status": enums.ReturnStatusCompleted}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update return")
		}

		refundEvent := outbox.DomainEvent{
			EventType:     enums.EventRefundInstructed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(adminID, enums.ActorRoleAdmin),
			Data: payloads.RefundInstructedEvent{
				OrderID:     order.ID,
				BuyerID:     order.BuyerID,
				AmountCents: refund,
				Reason:      ret.Reason,
			},
		}
		if err := s.outbox.Emit(ctx, tx, refundEvent); err != nil {
			return err
		}
		ret.Status = enums.ReturnStatusCompleted
		return s.emitUpdated(ctx, tx, ret, actorRef(adminID, enums.ActorRoleAdmin))
	})
}

// Cancel lets the buyer withdraw a return that has not been decided yet.
func (s *service) Cancel(ctx context.Context, returnID, buyerID uuid.UUID) error {
	if returnID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "return id required")
	}
	if buyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ret, err := repo.FindByID(ctx, returnID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load return")
		}
		if ret.BuyerID != buyerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "return does not belong to buyer")
		}
		if ret.Status != enums.ReturnStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only a pending return can be cancelled")
		}

		if err := repo.Update(ctx, ret.ID, map[string]any{"status": enums.ReturnStatusCancelled}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update return")
		}
		ret.Status = enums.ReturnStatusCancelled
		return s.emitUpdated(ctx, tx, ret, actorRef(buyerID, enums.ActorRoleBuyer))
	})
}

func (s *service) Get(ctx context.Context, returnID uuid.UUID) (*models.Return, error) {
	if returnID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return id required")
	}
	ret, err := s.repo.FindByID(ctx, returnID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load return")
	}
	return ret, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ReturnFilters) (*ReturnList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list returns")
	}
	return list, nil
}

func (s *service) emitUpdated(ctx context.Context, tx *gorm.DB, ret *models.Return, actor *outbox.ActorRef) error {
	event := outbox.DomainEvent{
		EventType:     enums.EventReturnUpdated,
		AggregateType: enums.AggregateReturn,
		AggregateID:   ret.ID,
		Actor:         actor,
		Data: payloads.ReturnUpdatedEvent{
			ReturnID: ret.ID,
			OrderID:  ret.OrderID,
			Status:   ret.Status,
		},
	}
	return s.outbox.Emit(ctx, tx, event)
}

func actorRef(userID uuid.UUID, role enums.ActorRole) *outbox.ActorRef {
	return &outbox.ActorRef{UserID: userID, Role: role.String()}
}
