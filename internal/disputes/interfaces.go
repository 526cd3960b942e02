package disputes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/targolabs/targo-backend/pkg/db/models"
	"github.com/targolabs/targo-backend/pkg/pagination"
)

// Repository defines persistence operations for the disputes table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, dispute *models.Dispute) (*models.Dispute, error)
	FindByID(ctx context.Context, disputeID uuid.UUID) (*models.Dispute, error)
	Update(ctx context.Context, disputeID uuid.UUID, updates map[string]any) error
	List(ctx context.Context, params pagination.Params, filters DisputeFilters) (*DisputeList, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}
