package payouts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/targolabs/targo-backend/internal/fees"
	"github.com/targolabs/targo-backend/pkg/config"
	"github.com/targolabs/targo-backend/pkg/db"
	"github.com/targolabs/targo-backend/pkg/db/models"
	"github.com/targolabs/targo-backend/pkg/enums"
	pkgerrors "github.com/targolabs/targo-backend/pkg/errors"
	"github.com/targolabs/targo-backend/pkg/logger"
	"github.com/targolabs/targo-backend/pkg/metrics"
	"github.com/targolabs/targo-backend/pkg/outbox"
	"github.com/targolabs/targo-backend/pkg/outbox/payloads"
	"github.com/targolabs/targo-backend/pkg/pagination"
	"github.com/targolabs/targo-backend/pkg/payments"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type transferCreator interface {
	CreateTransfer(ctx context.Context, params payments.TransferParams) (*payments.Transfer, error)
}

// Service owns every movement on the seller balance pair: the delivery
// credit, the maturation sweep, withdrawals and refund clawbacks.
type Service interface {
	CreditForDelivery(ctx context.Context, tx *gorm.DB, order *models.Order) error
	AdjustForRefund(ctx context.Context, tx *gorm.DB, order *models.Order, amountCents int64, reason string) (int64, error)
	MatureBalances(ctx context.Context) (MaturationResult, error)
	Withdraw(ctx context.Context, input WithdrawInput) (*models.Withdrawal, error)
	CompleteTransfer(ctx context.Context, input CompleteTransferInput) error
	GetBalance(ctx context.Context, sellerID uuid.UUID) (*BalanceSummary, error)
	ListWithdrawals(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*WithdrawalList, error)
	ListLedgerEntries(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*LedgerList, error)
}

type service struct {
	repo       Repository
	tx         txRunner
	outbox     outboxPublisher
	transfers  transferCreator
	rate       decimal.Decimal
	maturation time.Duration
	currency   string
	metrics    *metrics.SettlementMetrics
	logg       *logger.Logger
}

// NewService builds the settlement service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, transfers transferCreator, cfg config.SettlementConfig, settlementMetrics *metrics.SettlementMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payouts repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if transfers == nil {
		return nil, fmt.Errorf("transfer client required")
	}
	return &service{
		repo:       repo,
		tx:         tx,
		outbox:     outboxSvc,
		transfers:  transfers,
		rate:       cfg.CommissionRate(),
		maturation: cfg.Maturation,
		currency:   cfg.Currency,
		metrics:    settlementMetrics,
		logg:       logg,
	}, nil
}

// CreditForDelivery records the one-per-order payout and credits the seller's
// pending balance. It must run inside the transaction that marks the order
// delivered. A duplicate credit for the same order is absorbed by the unique
// index on payouts.order_id and treated as a no-op.
func (s *service) CreditForDelivery(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	repo := s.repo.WithTx(tx)

	commission, net := fees.CommissionFor(order.AmountCents, s.rate)
	payout := &models.Payout{
		OrderID:               order.ID,
		SellerID:              order.SellerID,
		GrossAmountCents:      order.AmountCents,
		SellerCommissionCents: commission,
		BuyerFeeCents:         order.BuyerFeeCents,
		NetAmountCents:        net,
		Status:                enums.PayoutStatusPending,
	}
	payout, err := repo.CreatePayout(ctx, payout)
	if err != nil {
		if db.IsUniqueViolation(err, "ux_payouts_order_id") {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout")
	}

	updates := map[string]any{
		"seller_commission_cents": commission,
		"payout_amount_cents":     net,
		"payout_status":           enums.OrderPayoutStatusPending,
	}
	if err := repo.UpdateOrderSettlement(ctx, order.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order settlement")
	}

	if err := repo.EnsureBalanceRow(ctx, order.SellerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure balance row")
	}
	if err := repo.CreditPending(ctx, order.SellerID, net); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit pending balance")
	}

	entry := &models.LedgerEntry{
		SellerID:    order.SellerID,
		OrderID:     &order.ID,
		Type:        enums.LedgerEntryTypeDeliveryCredit,
		AmountCents: net,
	}
	if err := repo.CreateLedgerEntry(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record ledger entry")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventPayoutCredited,
		AggregateType: enums.AggregatePayout,
		AggregateID:   payout.ID,
		Data: payloads.PayoutCreditedEvent{
			PayoutID:       payout.ID,
			OrderID:        order.ID,
			SellerID:       order.SellerID,
			NetAmountCents: net,
			CreditedAt:     time.Now(),
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return err
	}
	s.metrics.IncPayoutCredited(order.PaymentMethod.String())
	return nil
}

// AdjustForRefund claws back up to the order's payout from the seller's
// balance, draining pending before available and never taking either bucket
// below zero. Returns the cents actually debited.
func (s *service) AdjustForRefund(ctx context.Context, tx *gorm.DB, order *models.Order, amountCents int64, reason string) (int64, error) {
	if order == nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	if amountCents <= 0 {
		return 0, nil
	}
	repo := s.repo.WithTx(tx)

	payout, err := repo.FindPayoutByOrder(ctx, order.ID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
	}
	clawback := amountCents
	if clawback > payout.NetAmountCents {
		clawback = payout.NetAmountCents
	}

	balance, err := repo.FindBalanceForUpdate(ctx, order.SellerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock balance")
	}

	pendingDebit := clawback
	if pendingDebit > balance.PendingCents {
		pendingDebit = balance.PendingCents
	}
	availableDebit := clawback - pendingDebit
	if availableDebit > balance.AvailableCents {
		availableDebit = balance.AvailableCents
	}
	debited := pendingDebit + availableDebit
	if debited == 0 {
		return 0, nil
	}

	ok, err := repo.ApplyRefundDebit(ctx, order.SellerID, pendingDebit, availableDebit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply refund debit")
	}
	if !ok {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "balance changed during refund adjustment")
	}

	metadata, _ := json.Marshal(map[string]string{"reason": reason})
	entry := &models.LedgerEntry{
		SellerID:    order.SellerID,
		OrderID:     &order.ID,
		Type:        enums.LedgerEntryTypeRefundAdjustment,
		AmountCents: -debited,
		Metadata:    metadata,
	}
	if err := repo.CreateLedgerEntry(ctx, entry); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record ledger entry")
	}
	return debited, nil
}

// MatureBalances moves funds credited at least the configured maturation
// period ago from pending to available, one guarded update per seller. A
// seller whose pending bucket no longer covers the matured total (a refund
// drained it) is skipped and retried on the next sweep.
func (s *service) MatureBalances(ctx context.Context) (MaturationResult, error) {
	var result MaturationResult
	cutoff := time.Now().Add(-s.maturation)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payouts, err := repo.FindMaturablePayouts(ctx, cutoff)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find maturable payouts")
		}
		if len(payouts) == 0 {
			return nil
		}

		bySeller := make(map[uuid.UUID][]models.Payout)
		for _, payout := range payouts {
			bySeller[payout.SellerID] = append(bySeller[payout.SellerID], payout)
		}

		now := time.Now()
		for sellerID, sellerPayouts := range bySeller {
			var total int64
			ids := make([]uuid.UUID, 0, len(sellerPayouts))
			orderIDs := make([]uuid.UUID, 0, len(sellerPayouts))
			for _, payout := range sellerPayouts {
				total += payout.NetAmountCents
				ids = append(ids, payout.ID)
				orderIDs = append(orderIDs, payout.OrderID)
			}

			ok, err := repo.MovePendingToAvailable(ctx, sellerID, total)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mature balance")
			}
			if !ok {
				if s.logg != nil {
					s.logg.Warn(s.logg.WithSellerID(ctx, sellerID.String()), "pending balance below matured total, deferring seller")
				}
				continue
			}
			if err := repo.MarkPayoutsMatured(ctx, ids, now); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payouts matured")
			}
			if err := repo.MarkOrdersPaidOut(ctx, orderIDs); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark orders paid out")
			}
			entry := &models.LedgerEntry{
				SellerID:    sellerID,
				Type:        enums.LedgerEntryTypeMaturation,
				AmountCents: total,
			}
			if err := repo.CreateLedgerEntry(ctx, entry); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record ledger entry")
			}
			event := outbox.DomainEvent{
				EventType:     enums.EventPayoutMatured,
				AggregateType: enums.AggregatePayout,
				AggregateID:   sellerID,
				Data: payloads.PayoutMaturedEvent{
					SellerID:    sellerID,
					AmountCents: total,
					PayoutCount: len(ids),
					MaturedAt:   now,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return err
			}

			result.SellersProcessed++
			result.PayoutsMatured += len(ids)
			result.CentsMatured += total
		}
		return nil
	})
	if err != nil {
		return MaturationResult{}, err
	}
	s.metrics.AddMaturedCents(result.CentsMatured)
	return result, nil
}

// Withdraw debits the available balance and asks the processor to wire the
// funds. The debit and the withdrawal row commit before the processor call;
// a failed call is compensated by reversing the in-transfer hold.
func (s *service) Withdraw(ctx context.Context, input WithdrawInput) (*models.Withdrawal, error) {
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal amount must be positive")
	}

	seller, err := s.repo.FindSeller(ctx, input.SellerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller")
	}
	if seller.KYCStatus != enums.KYCStatusVerified {
		return nil, pkgerrors.New(pkgerrors.CodeKYCRequired, "identity verification required before withdrawing")
	}
	if seller.IBAN == nil || *seller.IBAN == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bank account required before withdrawing")
	}

	var withdrawal *models.Withdrawal
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.EnsureBalanceRow(ctx, input.SellerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure balance row")
		}
		ok, err := repo.DebitAvailableForWithdrawal(ctx, input.SellerID, input.AmountCents)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit available balance")
		}
		if !ok {
			s.metrics.IncWithdrawal("rejected")
			return pkgerrors.New(pkgerrors.CodeInsufficient, "available balance does not cover the requested amount")
		}

		withdrawal, err = repo.CreateWithdrawal(ctx, &models.Withdrawal{
			SellerID:    input.SellerID,
			AmountCents: input.AmountCents,
			Status:      enums.WithdrawalStatusInTransfer,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create withdrawal")
		}

		entry := &models.LedgerEntry{
			SellerID:    input.SellerID,
			Type:        enums.LedgerEntryTypeWithdrawalDebit,
			AmountCents: -input.AmountCents,
		}
		if err := repo.CreateLedgerEntry(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record ledger entry")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventWithdrawalRequested,
			AggregateType: enums.AggregateWithdrawal,
			AggregateID:   withdrawal.ID,
			Actor:         &outbox.ActorRef{UserID: input.SellerID, Role: enums.ActorRoleSeller.String()},
			Data: payloads.WithdrawalRequestedEvent{
				WithdrawalID: withdrawal.ID,
				SellerID:     input.SellerID,
				AmountCents:  input.AmountCents,
				RequestedAt:  time.Now(),
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	transfer, err := s.transfers.CreateTransfer(ctx, payments.TransferParams{
		IdempotencyKey: "wd-" + withdrawal.ID.String(),
		WithdrawalID:   withdrawal.ID,
		SellerID:       input.SellerID,
		AmountCents:    input.AmountCents,
		Currency:       s.currency,
		IBAN:           *seller.IBAN,
	})
	if err != nil {
		if reverseErr := s.reverseFailedWithdrawal(ctx, withdrawal, "transfer request failed"); reverseErr != nil {
			return nil, reverseErr
		}
		s.metrics.IncWithdrawal("failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "request bank transfer")
	}

	if err := s.repo.UpdateWithdrawal(ctx, withdrawal.ID, map[string]any{"transfer_ref": transfer.ID}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store transfer reference")
	}
	withdrawal.TransferRef = &transfer.ID
	s.metrics.IncWithdrawal("accepted")
	return withdrawal, nil
}

// CompleteTransfer applies the processor's verdict on an in-transfer
// withdrawal. Repeated notifications for a settled withdrawal are no-ops.
func (s *service) CompleteTransfer(ctx context.Context, input CompleteTransferInput) error {
	if input.WithdrawalID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "withdrawal id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		withdrawal, err := repo.FindWithdrawal(ctx, input.WithdrawalID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load withdrawal")
		}
		if withdrawal.Status != enums.WithdrawalStatusInTransfer {
			return nil
		}

		now := time.Now()
		var status enums.WithdrawalStatus
		var entryType enums.LedgerEntryType
		var entryAmount int64

		if input.Succeeded {
			ok, err := repo.SettleInTransfer(ctx, withdrawal.SellerID, withdrawal.AmountCents)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle in-transfer balance")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeDependency, "in-transfer balance does not cover withdrawal")
			}
			status = enums.WithdrawalStatusCompleted
			entryType = enums.LedgerEntryTypeWithdrawalSettled
			entryAmount = -withdrawal.AmountCents
		} else {
			ok, err := repo.ReverseInTransfer(ctx, withdrawal.SellerID, withdrawal.AmountCents)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reverse in-transfer balance")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeDependency, "in-transfer balance does not cover withdrawal")
			}
			status = enums.WithdrawalStatusFailed
			entryType = enums.LedgerEntryTypeWithdrawalReversed
			entryAmount = withdrawal.AmountCents
		}

		updates := map[string]any{
			"status":       status,
			"processed_at": now,
		}
		if input.TransferRef != "" {
			updates["transfer_ref"] = input.TransferRef
		}
		if input.FailureNote != "" {
			updates["failure_note"] = input.FailureNote
		}
		if err := repo.UpdateWithdrawal(ctx, withdrawal.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update withdrawal")
		}

		entry := &models.LedgerEntry{
			SellerID:    withdrawal.SellerID,
			Type:        entryType,
			AmountCents: entryAmount,
		}
		if err := repo.CreateLedgerEntry(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record ledger entry")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventWithdrawalCompleted,
			AggregateType: enums.AggregateWithdrawal,
			AggregateID:   withdrawal.ID,
			Data: payloads.WithdrawalCompletedEvent{
				WithdrawalID: withdrawal.ID,
				SellerID:     withdrawal.SellerID,
				AmountCents:  withdrawal.AmountCents,
				Status:       status,
				TransferRef:  input.TransferRef,
				ProcessedAt:  now,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
		s.metrics.IncWithdrawal(string(status))
		return nil
	})
}

func (s *service) reverseFailedWithdrawal(ctx context.Context, withdrawal *models.Withdrawal, note string) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.ReverseInTransfer(ctx, withdrawal.SellerID, withdrawal.AmountCents)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reverse in-transfer balance")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeDependency, "in-transfer balance does not cover withdrawal")
		}
		updates := map[string]any{
			"status":       enums.WithdrawalStatusFailed,
			"failure_note": note,
			"processed_at": time.Now(),
		}
		if err := repo.UpdateWithdrawal(ctx, withdrawal.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update withdrawal")
		}
		entry := &models.LedgerEntry{
			SellerID:    withdrawal.SellerID,
			Type:        enums.LedgerEntryTypeWithdrawalReversed,
			AmountCents: withdrawal.AmountCents,
		}
		if err := repo.CreateLedgerEntry(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record ledger entry")
		}
		return nil
	})
}

func (s *service) GetBalance(ctx context.Context, sellerID uuid.UUID) (*BalanceSummary, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	balance, err := s.repo.FindBalance(ctx, sellerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &BalanceSummary{SellerID: sellerID}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load balance")
	}
	return &BalanceSummary{
		SellerID:            sellerID,
		PendingCents:        balance.PendingCents,
		AvailableCents:      balance.AvailableCents,
		InTransferCents:     balance.InTransferCents,
		LifetimeEarnedCents: balance.LifetimeEarnedCents,
	}, nil
}

func (s *service) ListWithdrawals(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*WithdrawalList, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListWithdrawals(ctx, sellerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list withdrawals")
	}
	return list, nil
}

func (s *service) ListLedgerEntries(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*LedgerList, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListLedgerEntries(ctx, sellerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}
	return list, nil
}
