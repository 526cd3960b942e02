// Package paymentswebhook consumes processor webhook deliveries and feeds
// them into the order and payout lifecycles. Webhooks are not a privileged
// path: every event goes through the same guarded transitions any other
// caller would use.
package paymentswebhook

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/targolabs/targo-backend/internal/orders"
	"github.com/targolabs/targo-backend/internal/payouts"
	"github.com/targolabs/targo-backend/pkg/enums"
	pkgerrors "github.com/targolabs/targo-backend/pkg/errors"
	"github.com/targolabs/targo-backend/pkg/logger"
	"github.com/targolabs/targo-backend/pkg/payments"
)

type orderLifecycle interface {
	MarkPaid(ctx context.Context, orderID uuid.UUID) error
	Cancel(ctx context.Context, input orders.CancelInput) error
	MarkRefunded(ctx context.Context, orderID uuid.UUID, reason string) error
}

type transferCompleter interface {
	CompleteTransfer(ctx context.Context, input payouts.CompleteTransferInput) error
}

type ServiceParams struct {
	Orders  orderLifecycle
	Payouts transferCompleter
	Guard   *IdempotencyGuard
	Logger  *logger.Logger
}

type Service struct {
	orders  orderLifecycle
	payouts transferCompleter
	guard   *IdempotencyGuard
	logg    *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order lifecycle required")
	}
	if params.Payouts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transfer completer required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard required")
	}
	return &Service{
		orders:  params.Orders,
		payouts: params.Payouts,
		guard:   params.Guard,
		logg:    params.Logger,
	}, nil
}

// HandleEvent routes one verified delivery. Duplicates and unknown event
// types are acknowledged without side effects; a handler failure releases the
// idempotency mark so the processor's redelivery can retry.
func (s *Service) HandleEvent(ctx context.Context, event *payments.Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook event required")
	}
	duplicate, err := s.guard.CheckAndMark(ctx, event.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check webhook idempotency")
	}
	if duplicate {
		if s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "event_id", event.ID), "duplicate webhook delivery skipped")
		}
		return nil
	}

	if err := s.dispatch(ctx, event); err != nil {
		if delErr := s.guard.Delete(ctx, event.ID); delErr != nil && s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "event_id", event.ID), "failed to release webhook idempotency mark", delErr)
		}
		return err
	}
	return nil
}

func (s *Service) dispatch(ctx context.Context, event *payments.Event) error {
	switch event.Type {
	case payments.EventPaymentSucceeded:
		data, err := decodePayment(event)
		if err != nil {
			return err
		}
		return s.orders.MarkPaid(ctx, data.OrderID)

	case payments.EventPaymentFailed:
		data, err := decodePayment(event)
		if err != nil {
			return err
		}
		return s.orders.Cancel(ctx, orders.CancelInput{
			OrderID:   data.OrderID,
			ActorRole: enums.ActorRoleProcessor,
			Reason:    data.Reason,
		})

	case payments.EventPaymentRefunded:
		data, err := decodePayment(event)
		if err != nil {
			return err
		}
		return s.orders.MarkRefunded(ctx, data.OrderID, data.Reason)

	case payments.EventTransferCompleted:
		data, err := decodeTransfer(event)
		if err != nil {
			return err
		}
		return s.payouts.CompleteTransfer(ctx, payouts.CompleteTransferInput{
			WithdrawalID: data.WithdrawalID,
			Succeeded:    true,
			TransferRef:  data.TransferID,
		})

	case payments.EventTransferFailed:
		data, err := decodeTransfer(event)
		if err != nil {
			return err
		}
		return s.payouts.CompleteTransfer(ctx, payouts.CompleteTransferInput{
			WithdrawalID: data.WithdrawalID,
			Succeeded:    false,
			FailureNote:  data.FailureReason,
		})

	default:
		// Unknown types are acknowledged so the processor stops retrying.
		return nil
	}
}

func decodePayment(event *payments.Event) (*payments.PaymentEventData, error) {
	var data payments.PaymentEventData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment event")
	}
	if data.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment event missing order id")
	}
	return &data, nil
}

func decodeTransfer(event *payments.Event) (*payments.TransferEventData, error) {
	var data payments.TransferEventData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode transfer event")
	}
	if data.WithdrawalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer event missing withdrawal id")
	}
	return &data, nil
}
