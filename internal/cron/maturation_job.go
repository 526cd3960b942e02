package cron

import (
	"context"
	"fmt"

	"github.com/targolabs/targo-backend/internal/payouts"
	"github.com/targolabs/targo-backend/pkg/logger"
)

type balanceMaturer interface {
	MatureBalances(ctx context.Context) (payouts.MaturationResult, error)
}

// NewMaturationJob builds the sweep that moves matured pending funds into the
// withdrawable bucket.
func NewMaturationJob(maturer balanceMaturer, logg *logger.Logger) (Job, error) {
	if maturer == nil {
		return nil, fmt.Errorf("balance maturer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &maturationJob{maturer: maturer, logg: logg}, nil
}

type maturationJob struct {
	maturer balanceMaturer
	logg    *logger.Logger
}

func (j *maturationJob) Name() string { return "balance-maturation" }

func (j *maturationJob) Run(ctx context.Context) error {
	result, err := j.maturer.MatureBalances(ctx)
	if err != nil {
		return fmt.Errorf("mature balances: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"sellers_processed": result.SellersProcessed,
		"payouts_matured":   result.PayoutsMatured,
		"cents_matured":     result.CentsMatured,
	})
	j.logg.Info(logCtx, "balance maturation sweep complete")
	return nil
}
