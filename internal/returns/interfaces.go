package returns

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/targolabs/targo-backend/pkg/db/models"
	"github.com/targolabs/targo-backend/pkg/pagination"
)

// Repository defines persistence operations for the returns table plus the
// order lookups the workflow guards depend on.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, ret *models.Return) (*models.Return, error)
	FindByID(ctx context.Context, returnID uuid.UUID) (*models.Return, error)
	FindOpenByOrder(ctx context.Context, orderID uuid.UUID) (*models.Return, error)
	Update(ctx context.Context, returnID uuid.UUID, updates map[string]any) error
	List(ctx context.Context, params pagination.Params, filters ReturnFilters) (*ReturnList, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}
