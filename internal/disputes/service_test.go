package disputes

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

type stubDisputesRepo struct {
	dispute *models.Dispute
	order   *models.Order
	updates map[string]any
}

func (s *stubDisputesRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubDisputesRepo) Create(ctx context.Context, dispute *models.Dispute) (*models.Dispute, error) {
	dispute.ID = uuid.New()
	s.dispute = dispute
	return dispute, nil
}

func (s *stubDisputesRepo) FindByID(ctx context.Context, disputeID uuid.UUID) (*models.Dispute, error) {
	if s.dispute == nil || s.dispute.ID != disputeID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.dispute
	return &copied, nil
}

func (s *stubDisputesRepo) Update(ctx context.Context, disputeID uuid.UUID, updates map[string]any) error {
	s.updates = updates
	if status, ok := updates["status"].(enums.DisputeStatus); ok {
		s.dispute.Status = status
	}
	return nil
}

func (s *stubDisputesRepo) List(ctx context.Context, params pagination.Params, filters DisputeFilters) (*DisputeList, error) {
	panic("not implemented")
}

func (s *stubDisputesRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
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

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo *stubDisputesRepo, pub *stubOutboxPublisher) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, pub)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
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

func TestOpenDispute(t *testing.T) {
	order := &models.Order{ID: uuid.New(), BuyerID: uuid.New(), SellerID: uuid.New(), Status: enums.OrderStatusShipped}
	repo := &stubDisputesRepo{order: order}
	pub := &stubOutboxPublisher{}
	svc := newTestService(t, repo, pub)

	dispute, err := svc.Open(context.Background(), OpenInput{
		OrderID:   order.ID,
		ActorID:   order.SellerID,
		ActorRole: enums.ActorRoleSeller,
		Reason:    "buyer refuses handover",
	})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if dispute.Status != enums.DisputeStatusPending {
		t.Fatalf("expected pending, got %s", dispute.Status)
	}
	if dispute.RaisedRole != enums.ActorRoleSeller {
		t.Fatalf("raised role not recorded: %s", dispute.RaisedRole)
	}
	if len(pub.events) != 1 || pub.events[0].EventType != enums.EventDisputeUpdated {
		t.Fatalf("expected dispute.updated event, got %+v", pub.events)
	}
}

func TestOpenDisputeOnlyByParties(t *testing.T) {
	order := &models.Order{ID: uuid.New(), BuyerID: uuid.New(), SellerID: uuid.New()}
	repo := &stubDisputesRepo{order: order}
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	_, err := svc.Open(context.Background(), OpenInput{
		OrderID:   order.ID,
		ActorID:   uuid.New(),
		ActorRole: enums.ActorRoleBuyer,
		Reason:    "x",
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestDisputeLifecycle(t *testing.T) {
	dispute := &models.Dispute{ID: uuid.New(), OrderID: uuid.New(), Status: enums.DisputeStatusPending}
	repo := &stubDisputesRepo{dispute: dispute}
	pub := &stubOutboxPublisher{}
	svc := newTestService(t, repo, pub)
	adminID := uuid.New()

	// Closing straight from pending is not allowed.
	err := svc.Resolve(context.Background(), ResolveInput{DisputeID: dispute.ID, AdminID: adminID, Resolution: "refund via return flow"})
	assertCode(t, err, pkgerrors.CodeStateConflict)

	if err := svc.StartInvestigation(context.Background(), dispute.ID, adminID); err != nil {
		t.Fatalf("investigation failed: %v", err)
	}
	if dispute.Status != enums.DisputeStatusInvestigating {
		t.Fatalf("expected investigating, got %s", dispute.Status)
	}

	if err := svc.Resolve(context.Background(), ResolveInput{DisputeID: dispute.ID, AdminID: adminID, Resolution: "refund via return flow"}); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if dispute.Status != enums.DisputeStatusResolved {
		t.Fatalf("expected resolved, got %s", dispute.Status)
	}
	if repo.updates["resolution"] != "refund via return flow" || repo.updates["resolved_by"] != adminID {
		t.Fatalf("resolution fields not written: %v", repo.updates)
	}

	// Terminal disputes stay closed.
	err = svc.Dismiss(context.Background(), ResolveInput{DisputeID: dispute.ID, AdminID: adminID, Resolution: "n/a"})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestResolveRequiresText(t *testing.T) {
	dispute := &models.Dispute{ID: uuid.New(), Status: enums.DisputeStatusInvestigating}
	repo := &stubDisputesRepo{dispute: dispute}
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	err := svc.Resolve(context.Background(), ResolveInput{DisputeID: dispute.ID, AdminID: uuid.New(), Resolution: "  "})
	assertCode(t, err, pkgerrors.CodeValidation)
}
