package returns

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/targolabs/targo-backend/pkg/db/models"
	"github.com/targolabs/targo-backend/pkg/enums"
	pkgerrors "github.com/targolabs/targo-backend/pkg/errors"
	"github.com/targolabs/targo-backend/pkg/outbox"
	"github.com/targolabs/targo-backend/pkg/pagination"
)

type stubReturnsRepo struct {
	ret        *models.Return
	order      *models.Order
	openReturn *models.Return
	updates    map[string]any
}

func (s *stubReturnsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubReturnsRepo) Create(ctx context.Context, ret *models.Return) (*models.Return, error) {
	ret.ID = uuid.New()
	s.ret = ret
	return ret, nil
}

func (s *stubReturnsRepo) FindByID(ctx context.Context, returnID uuid.UUID) (*models.Return, error) {
	if s.ret == nil || s.ret.ID != returnID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.ret
	return &copied, nil
}

func (s *stubReturnsRepo) FindOpenByOrder(ctx context.Context, orderID uuid.UUID) (*models.Return, error) {
	if s.openReturn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.openReturn, nil
}

func (s *stubReturnsRepo) Update(ctx context.Context, returnID uuid.UUID, updates map[string]any) error {
	s.updates = updates
	if status, ok := updates["status"].(enums.ReturnStatus); ok {
		s.ret.Status = status
	}
	return nil
}

func (s *stubReturnsRepo) List(ctx context.Context, params pagination.Params, filters ReturnFilters) (*ReturnList, error) {
	panic("not implemented")
}

func (s *stubReturnsRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != orderID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

type stubOutboxPublisher struct {
	events []outbox.DomainEvent
}

func (s *stubOutboxPublisher) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubRefundAdjuster struct {
	calls   int
	amounts []int64
}

func (s *stubRefundAdjuster) AdjustForRefund(ctx context.Context, tx *gorm.DB, order *models.Order, amountCents int64, reason string) (int64, error) {
	s.calls++
	s.amounts = append(s.amounts, amountCents)
	return amountCents, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo *stubReturnsRepo, pub *stubOutboxPublisher, adjuster *stubRefundAdjuster) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, pub, adjuster)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func deliveredOrder() *models.Order {
	return &models.Order{
		ID:          uuid.New(),
		BuyerID:     uuid.New(),
		SellerID:    uuid.New(),
		AmountCents: 10000,
		Status:      enums.OrderStatusDelivered,
	}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	domainErr := pkgerrors.As(err)
	if domainErr == nil {
		t.Fatalf("expected domain error with code %s, got %v", code, err)
	}
	if domainErr.Code() != code {
		t.Fatalf("expected code %s, got %s", code, domainErr.Code())
	}
}

func TestOpenReturn(t *testing.T) {
	order := deliveredOrder()
	repo := &stubReturnsRepo{order: order}
	pub := &stubOutboxPublisher{}
	svc := newTestService(t, repo, pub, &stubRefundAdjuster{})

	ret, err := svc.Open(context.Background(), OpenInput{
		OrderID: order.ID,
		BuyerID: order.BuyerID,
		Reason:  "damaged in transit",
	})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if ret.Status != enums.ReturnStatusPending {
		t.Fatalf("expected pending, got %s", ret.Status)
	}
	if ret.SellerID != order.SellerID {
		t.Fatal("seller not copied from order")
	}
	if len(pub.events) != 1 || pub.events[0].EventType != enums.EventReturnUpdated {
		t.Fatalf("expected return.updated event, got %+v", pub.events)
	}
}

func TestOpenReturnGuards(t *testing.T) {
	order := deliveredOrder()
	order.Status = enums.OrderStatusShipped
	repo := &stubReturnsRepo{order: order}
	svc := newTestService(t, repo, &stubOutboxPublisher{}, &stubRefundAdjuster{})

	_, err := svc.Open(context.Background(), OpenInput{OrderID: order.ID, BuyerID: order.BuyerID, Reason: "x"})
	assertCode(t, err, pkgerrors.CodeStateConflict)

	order.Status = enums.OrderStatusDelivered
	_, err = svc.Open(context.Background(), OpenInput{OrderID: order.ID, BuyerID: uuid.New(), Reason: "x"})
	assertCode(t, err, pkgerrors.CodeForbidden)

	repo.openReturn = &models.Return{ID: uuid.New(), OrderID: order.ID, Status: enums.ReturnStatusPending}
	_, err = svc.Open(context.Background(), OpenInput{OrderID: order.ID, BuyerID: order.BuyerID, Reason: "x"})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestApprove(t *testing.T) {
	order := deliveredOrder()
	ret := &models.Return{ID: uuid.New(), OrderID: order.ID, BuyerID: order.BuyerID, SellerID: order.SellerID, Status: enums.ReturnStatusPending}
	repo := &stubReturnsRepo{ret: ret, order: order}
	pub := &stubOutboxPublisher{}
	svc := newTestService(t, repo, pub, &stubRefundAdjuster{})

	refund := int64(8000)
	err := svc.Approve(context.Background(), DecisionInput{
		ReturnID:          ret.ID,
		AdminID:           uuid.New(),
		Notes:             "photos confirm damage",
		RefundAmountCents: &refund,
	})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if repo.updates["refund_amount_cents"] != int64(8000) {
		t.Fatalf("refund amount not pinned: %v", repo.updates)
	}
	if ret.Status != enums.ReturnStatusApproved {
		t.Fatalf("expected approved, got %s", ret.Status)
	}
}

func TestApproveRejectsOversizedRefund(t *testing.T) {
	order := deliveredOrder()
	ret := &models.Return{ID: uuid.New(), OrderID: order.ID, Status: enums.ReturnStatusPending}
	repo := &stubReturnsRepo{ret: ret, order: order}
	svc := newTestService(t, repo, &stubOutboxPublisher{}, &stubRefundAdjuster{})

	refund := int64(10001)
	err := svc.Approve(context.Background(), DecisionInput{
		ReturnID:          ret.ID,
		AdminID:           uuid.New(),
		RefundAmountCents: &refund,
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestRejectOnlyFromPending(t *testing.T) {
	ret := &models.Return{ID: uuid.New(), Status: enums.ReturnStatusApproved}
	repo := &stubReturnsRepo{ret: ret}
	svc := newTestService(t, repo, &stubOutboxPublisher{}, &stubRefundAdjuster{})

	err := svc.Reject(context.Background(), DecisionInput{ReturnID: ret.ID, AdminID: uuid.New()})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestComplete(t *testing.T) {
	order := deliveredOrder()
	refund := int64(8000)
	ret := &models.Return{
		ID:                uuid.New(),
		OrderID:           order.ID,
		BuyerID:           order.BuyerID,
		SellerID:          order.SellerID,
		Status:            enums.ReturnStatusApproved,
		RefundAmountCents: &refund,
	}
	repo := &stubReturnsRepo{ret: ret, order: order}
	pub := &stubOutboxPublisher{}
	adjuster := &stubRefundAdjuster{}
	svc := newTestService(t, repo, pub, adjuster)

	if err := svc.Complete(context.Background(), ret.ID, uuid.New()); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if adjuster.calls != 1 || adjuster.amounts[0] != 8000 {
		t.Fatalf("payout must be debited exactly once with 8000, got %+v", adjuster.amounts)
	}
	var refundEvents int
	for _, event := range pub.events {
		if event.EventType == enums.EventRefundInstructed {
			refundEvents++
		}
	}
	if refundEvents != 1 {
		t.Fatalf("expected exactly one refund.instructed event, got %d", refundEvents)
	}
	if ret.Status != enums.ReturnStatusCompleted {
		t.Fatalf("expected completed, got %s", ret.Status)
	}

	// Completion is not repeatable; the state guard makes the refund
	// instruction single-shot.
	err := svc.Complete(context.Background(), ret.ID, uuid.New())
	assertCode(t, err, pkgerrors.CodeStateConflict)
	if adjuster.calls != 1 {
		t.Fatalf("debit must not repeat, got %d calls", adjuster.calls)
	}
}

func TestCancel(t *testing.T) {
	ret := &models.Return{ID: uuid.New(), BuyerID: uuid.New(), Status: enums.ReturnStatusPending}
	repo := &stubReturnsRepo{ret: ret}
	pub := &stubOutboxPublisher{}
	svc := newTestService(t, repo, pub, &stubRefundAdjuster{})

	if err := svc.Cancel(context.Background(), ret.ID, ret.BuyerID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if ret.Status != enums.ReturnStatusCancelled {
		t.Fatalf("expected cancelled, got %s", ret.Status)
	}

	ret.Status = enums.ReturnStatusApproved
	err := svc.Cancel(context.Background(), ret.ID, ret.BuyerID)
	assertCode(t, err, pkgerrors.CodeStateConflict)
}
