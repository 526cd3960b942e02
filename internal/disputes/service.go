package disputes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/targolabs/targo-backend/pkg/db/models"
	"github.com/targolabs/targo-backend/pkg/enums"
	pkgerrors "github.com/targolabs/targo-backend/pkg/errors"
	"github.com/targolabs/targo-backend/pkg/outbox"
	"github.com/targolabs/targo-backend/pkg/outbox/payloads"
	"github.com/targolabs/targo-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service drives the dispute workflow. Disputes never move money; a verdict
// that warrants compensation is carried out through the return workflow.
type Service interface {
	Open(ctx context.Context, input OpenInput) (*models.Dispute, error)
	StartInvestigation(ctx context.Context, disputeID, adminID uuid.UUID) error
	Resolve(ctx context.Context, input ResolveInput) error
	Dismiss(ctx context.Context, input ResolveInput) error
	Get(ctx context.Context, disputeID uuid.UUID) (*models.Dispute, error)
	List(ctx context.Context, params pagination.Params, filters DisputeFilters) (*DisputeList, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds a dispute workflow service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("disputes repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

// Open registers an escalation by one of the order's parties.
func (s *service) Open(ctx context.Context, input OpenInput) (*models.Dispute, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute reason required")
	}

	var created *models.Dispute
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		switch input.ActorRole {
		case enums.ActorRoleBuyer:
			if order.BuyerID != input.ActorID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to buyer")
			}
		case enums.ActorRoleSeller:
			if order.SellerID != input.ActorID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to seller")
			}
		default:
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the order parties can open a dispute")
		}

		created, err = repo.Create(ctx, &models.Dispute{
			OrderID:     order.ID,
			RaisedBy:    input.ActorID,
			RaisedRole:  input.ActorRole,
			Reason:      strings.TrimSpace(input.Reason),
			Description: strings.TrimSpace(input.Description),
			Status:      enums.DisputeStatusPending,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create dispute")
		}
		return s.emitUpdated(ctx, tx, created, &outbox.ActorRef{UserID: input.ActorID, Role: input.ActorRole.String()})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// StartInvestigation moves a pending dispute under active review.
func (s *service) StartInvestigation(ctx context.Context, disputeID, adminID uuid.UUID) error {
	if disputeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "dispute id required")
	}
	if adminID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		dispute, err := repo.FindByID(ctx, disputeID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "dispute not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dispute")
		}
		if dispute.Status != enums.DisputeStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only a pending dispute can move to investigating")
		}

		if err := repo.Update(ctx, dispute.ID, map[string]any{"status": enums.DisputeStatusInvestigating}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update dispute")
		}
		dispute.Status = enums.DisputeStatusInvestigating
		return s.emitUpdated(ctx, tx, dispute, &outbox.ActorRef{UserID: adminID, Role: enums.ActorRoleAdmin.String()})
	})
}

// Resolve closes an investigated dispute in the raiser's favor or otherwise;
// the resolution text is mandatory and only ever set on a terminal dispute.
func (s *service) Resolve(ctx context.Context, input ResolveInput) error {
	return s.close(ctx, input, enums.DisputeStatusResolved)
}

// Dismiss closes an investigated dispute without action.
func (s *service) Dismiss(ctx context.Context, input ResolveInput) error {
	return s.close(ctx, input, enums.DisputeStatusDismissed)
}

func (s *service) close(ctx context.Context, input ResolveInput, target enums.DisputeStatus) error {
	if input.DisputeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "dispute id required")
	}
	if input.AdminID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	resolution := strings.TrimSpace(input.Resolution)
	if resolution == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "resolution text required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		dispute, err := repo.FindByID(ctx, input.DisputeID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "dispute not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dispute")
		}
		if dispute.Status != enums.DisputeStatusInvestigating {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only an investigated dispute can be closed")
		}

		updates := map[string]any{
			"status":      target,
			"resolution":  resolution,
			"resolved_by": input.AdminID,
			"resolved_at": time.Now(),
		}
		if err := repo.Update(ctx, dispute.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update dispute")
		}
		dispute.Status = target
		return s.emitUpdated(ctx, tx, dispute, &outbox.ActorRef{UserID: input.AdminID, Role: enums.ActorRoleAdmin.String()})
	})
}

func (s *service) Get(ctx context.Context, disputeID uuid.UUID) (*models.Dispute, error) {
	if disputeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute id required")
	}
	dispute, err := s.repo.FindByID(ctx, disputeID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dispute not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dispute")
	}
	return dispute, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters DisputeFilters) (*DisputeList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list disputes")
	}
	return list, nil
}

func (s *service) emitUpdated(ctx context.Context, tx *gorm.DB, dispute *models.Dispute, actor *outbox.ActorRef) error {
	event := outbox.DomainEvent{
		EventType:     enums.EventDisputeUpdated,
		AggregateType: enums.AggregateDispute,
		AggregateID:   dispute.ID,
		Actor:         actor,
		Data: payloads.DisputeUpdatedEvent{
			DisputeID: dispute.ID,
			OrderID:   dispute.OrderID,
			Status:    dispute.Status,
		},
	}
	return s.outbox.Emit(ctx, tx, event)
}
