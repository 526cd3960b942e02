package disputes

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/targolabs/targo-backend/api/middleware"
	"github.com/targolabs/targo-backend/api/responses"
	"github.com/targolabs/targo-backend/api/validators"
	internaldisputes "github.com/targolabs/targo-backend/internal/disputes"
	"github.com/targolabs/targo-backend/pkg/enums"
	pkgerrors "github.com/targolabs/targo-backend/pkg/errors"
	"github.com/targolabs/targo-backend/pkg/logger"
)

type openRequest struct {
	OrderID     uuid.UUID `json:"order_id" validate:"required"`
	Reason      string    `json:"reason" validate:"required,min=3,max=120"`
	Description string    `json:"description" validate:"max=2000"`
}

// Open escalates an order on behalf of the buyer or the seller.
func Open(svc internaldisputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, role, err := middleware.Actor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if role != enums.ActorRoleBuyer && role != enums.ActorRoleSeller {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "only order parties can open a dispute"))
			return
		}

		var req openRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dispute, err := svc.Open(r.Context(), internaldisputes.OpenInput{
			OrderID:     req.OrderID,
			ActorID:     actorID,
			ActorRole:   role,
			Reason:      req.Reason,
			Description: req.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dispute)
	}
}

// Get returns one dispute after checking the caller raised it or is an admin.
func Get(svc internaldisputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, role, err := middleware.Actor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		disputeID, err := ParseDisputeID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dispute, err := svc.Get(r.Context(), disputeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if role != enums.ActorRoleAdmin && dispute.RaisedBy != actorID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "dispute does not belong to caller"))
			return
		}
		responses.WriteSuccess(w, dispute)
	}
}

// List pages through the disputes raised by the caller.
func List(svc internaldisputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, _, err := middleware.Actor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := buildFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.RaisedBy = &actorID

		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ParseDisputeID reads the disputeId route parameter.
func ParseDisputeID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "disputeId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute id is required")
	}
	disputeID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid dispute id")
	}
	return disputeID, nil
}

func buildFilters(r *http.Request) (internaldisputes.DisputeFilters, error) {
	var filters internaldisputes.DisputeFilters

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseDisputeStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}

	orderID, err := validators.ParseQueryUUID(r, "order_id")
	if err != nil {
		return filters, err
	}
	filters.OrderID = orderID

	return filters, nil
}
