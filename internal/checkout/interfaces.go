package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/targolabs/targo-backend/pkg/db/models"
)

// Repository is the persistence surface of the checkout orchestrator. Order
// rows are created here once and owned by the order state machine afterwards.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	FindCourier(ctx context.Context, id uuid.UUID) (*models.Courier, error)
}
