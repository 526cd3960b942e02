package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/targolabs/targo-backend/internal/orders"
	"github.com/targolabs/targo-backend/internal/payouts"
	"github.com/targolabs/targo-backend/pkg/db/models"
	"github.com/targolabs/targo-backend/pkg/enums"
)

type stubMaturer struct {
	result payouts.MaturationResult
	err    error
	calls  int
}

func (s *stubMaturer) MatureBalances(ctx context.Context) (payouts.MaturationResult, error) {
	s.calls++
	return s.result, s.err
}

func TestMaturationJob(t *testing.T) {
	maturer := &stubMaturer{result: payouts.MaturationResult{SellersProcessed: 2, PayoutsMatured: 5, CentsMatured: 45000}}
	job, err := NewMaturationJob(maturer, testLogger())
	if err != nil {
		t.Fatalf("job constructor failed: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if maturer.calls != 1 {
		t.Fatalf("expected one sweep, got %d", maturer.calls)
	}

	maturer.err = errors.New("database down")
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected sweep error to surface")
	}
}

type stubPendingReader struct {
	orders []models.Order
	err    error
	cutoff time.Time
}

func (s *stubPendingReader) FindPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	s.cutoff = cutoff
	return s.orders, s.err
}

type stubOrderCanceller struct {
	inputs []orders.CancelInput
	failID uuid.UUID
}

func (s *stubOrderCanceller) Cancel(ctx context.Context, input orders.CancelInput) error {
	if input.OrderID == s.failID {
		return errors.New("order already paid")
	}
	s.inputs = append(s.inputs, input)
	return nil
}

func TestOrderTTLJobExpiresStaleOrders(t *testing.T) {
	stale := []models.Order{
		{ID: uuid.New(), Status: enums.OrderStatusPending},
		{ID: uuid.New(), Status: enums.OrderStatusPending},
	}
	reader := &stubPendingReader{orders: stale}
	canceller := &stubOrderCanceller{}
	job, err := NewOrderTTLJob(OrderTTLJobParams{
		Logger:    testLogger(),
		Reader:    reader,
		Canceller: canceller,
		TTL:       48 * time.Hour,
	})
	if err != nil {
		t.Fatalf("job constructor failed: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(canceller.inputs) != 2 {
		t.Fatalf("expected two cancellations, got %d", len(canceller.inputs))
	}
	for _, input := range canceller.inputs {
		if input.ActorRole != enums.ActorRoleProcessor {
			t.Fatalf("expiry must cancel as processor, got %s", input.ActorRole)
		}
		if input.Reason != "payment window expired" {
			t.Fatalf("unexpected reason %q", input.Reason)
		}
	}
	if time.Since(reader.cutoff) < 48*time.Hour {
		t.Fatalf("cutoff not pushed back by the ttl: %s", reader.cutoff)
	}
}

func TestOrderTTLJobContinuesPastFailures(t *testing.T) {
	failing := uuid.New()
	stale := []models.Order{
		{ID: failing, Status: enums.OrderStatusPending},
		{ID: uuid.New(), Status: enums.OrderStatusPending},
	}
	canceller := &stubOrderCanceller{failID: failing}
	job, err := NewOrderTTLJob(OrderTTLJobParams{
		Logger:    testLogger(),
		Reader:    &stubPendingReader{orders: stale},
		Canceller: canceller,
	})
	if err != nil {
		t.Fatalf("job constructor failed: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected combined error for the failed order")
	}
	if len(canceller.inputs) != 1 {
		t.Fatalf("remaining orders must still be expired, got %d", len(canceller.inputs))
	}
}

type stubRetentionRepo struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (s *stubRetentionRepo) DeletePublishedBefore(cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.deleted, s.err
}

func TestOutboxRetentionJob(t *testing.T) {
	repo := &stubRetentionRepo{deleted: 12}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     testLogger(),
		Repository: repo,
		Retention:  30 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("job constructor failed: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if time.Since(repo.cutoff) < 29*24*time.Hour {
		t.Fatalf("cutoff not pushed back by the retention window: %s", repo.cutoff)
	}

	repo.err = errors.New("database down")
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected retention error to surface")
	}
}
