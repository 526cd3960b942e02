package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/targolabs/targo-backend/internal/orders"
	"github.com/targolabs/targo-backend/pkg/db/models"
	"github.com/targolabs/targo-backend/pkg/enums"
	"github.com/targolabs/targo-backend/pkg/logger"
)

// A card checkout that redirected to the processor's hosted page and never
// came back stays pending. After this window the payment session is long
// dead, so the order is cancelled through the regular transition.
const defaultPendingOrderTTL = 48 * time.Hour

type pendingOrderReader interface {
	FindPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
}

type orderCanceller interface {
	Cancel(ctx context.Context, input orders.CancelInput) error
}

// OrderTTLJobParams configure the pending order expiry job.
type OrderTTLJobParams struct {
	Logger    *logger.Logger
	Reader    pendingOrderReader
	Canceller orderCanceller
	TTL       time.Duration
}

// NewOrderTTLJob builds the job that expires stale pending orders.
func NewOrderTTLJob(params OrderTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("pending order reader required")
	}
	if params.Canceller == nil {
		return nil, fmt.Errorf("order canceller required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPendingOrderTTL
	}
	return &orderTTLJob{
		logg:      params.Logger,
		reader:    params.Reader,
		canceller: params.Canceller,
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

type orderTTLJob struct {
	logg      *logger.Logger
	reader    pendingOrderReader
	canceller orderCanceller
	ttl       time.Duration
	now       func() time.Time
}

func (j *orderTTLJob) Name() string { return "order-ttl" }

func (j *orderTTLJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	stale, err := j.reader.FindPendingBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query stale pending orders: %w", err)
	}

	var errs []error
	expired := 0
	for _, order := range stale {
		err := j.canceller.Cancel(ctx, orders.CancelInput{
			OrderID:   order.ID,
			ActorRole: enums.ActorRoleProcessor,
			Reason:    "payment window expired",
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("expire order %s: %w", order.ID, err))
			continue
		}
		expired++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"orders_found":   len(stale),
		"orders_expired": expired,
	})
	j.logg.Info(logCtx, "pending order expiry complete")
	return multierr.Combine(errs...)
}
