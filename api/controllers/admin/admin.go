// Package admin exposes the back-office override surface. Every handler in
// this package sits behind RequireRole(admin) in the router.
package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/targolabs/targo-backend/api/middleware"
	"github.com/targolabs/targo-backend/api/responses"
	"github.com/targolabs/targo-backend/api/validators"
	internaldisputes "github.com/targolabs/targo-backend/internal/disputes"
	internalorders "github.com/targolabs/targo-backend/internal/orders"
	internalpayouts "github.com/targolabs/targo-backend/internal/payouts"
	internalreturns "github.com/targolabs/targo-backend/internal/returns"
	"github.com/targolabs/targo-backend/pkg/enums"
	pkgerrors "github.com/targolabs/targo-backend/pkg/errors"
	"github.com/targolabs/targo-backend/pkg/logger"
)

type overrideStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

type returnDecisionRequest struct {
	Notes             string `json:"notes" validate:"max=2000"`
	RefundAmountCents *int64 `json:"refund_amount_cents,omitempty" validate:"omitempty,gt=0"`
}

type resolveDisputeRequest struct {
	Resolution string `json:"resolution" validate:"required,min=3,max=2000"`
}

// OverrideOrderStatus force-writes an order status outside the normal flow.
func OverrideOrderStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, _, err := middleware.Actor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseUUIDParam(r, "orderId", "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req overrideStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(strings.TrimSpace(req.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target status"))
			return
		}

		if err := svc.OverrideStatus(r.Context(), internalorders.OverrideStatusInput{
			OrderID: orderID,
			AdminID: adminID,
			Status:  status,
			Reason:  req.Reason,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(status)})
	}
}

// ListSellerWithdrawals pages through a seller's withdrawal history.
func ListSellerWithdrawals(svc internalpayouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := parseUUIDParam(r, "sellerId", "seller id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListWithdrawals(r.Context(), sellerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ListSellerLedger pages through a seller's settlement audit trail.
func ListSellerLedger(svc internalpayouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := parseUUIDParam(r, "sellerId", "seller id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListLedgerEntries(r.Context(), sellerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ListReturns pages through every return request, filterable by status.
func ListReturns(svc internalreturns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filters internalreturns.ReturnFilters
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseReturnStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}

		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ApproveReturn accepts a pending return, with an optional partial amount.
func ApproveReturn(svc internalreturns.Service, logg *logger.Logger) http.HandlerFunc {
	return returnDecision(logg, svc.Approve, enums.ReturnStatusApproved)
}

// RejectReturn declines a pending return.
func RejectReturn(svc internalreturns.Service, logg *logger.Logger) http.HandlerFunc {
	return returnDecision(logg, svc.Reject, enums.ReturnStatusRejected)
}

func returnDecision(logg *logger.Logger, decide func(ctx context.Context, input internalreturns.DecisionInput) error, outcome enums.ReturnStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, _, err := middleware.Actor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		returnID, err := parseUUIDParam(r, "returnId", "return id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req returnDecisionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := decide(r.Context(), internalreturns.DecisionInput{
			ReturnID:          returnID,
			AdminID:           adminID,
			Notes:             req.Notes,
			RefundAmountCents: req.RefundAmountCents,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(outcome)})
	}
}

// CompleteReturn settles an approved return once the item is back.
func CompleteReturn(svc internalreturns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, _, err := middleware.Actor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		returnID, err := parseUUIDParam(r, "returnId", "return id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Complete(r.Context(), returnID, adminID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(enums.ReturnStatusCompleted)})
	}
}

// ListDisputes pages through every dispute, filterable by status and order.
func ListDisputes(svc internaldisputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filters internaldisputes.DisputeFilters
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseDisputeStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}
		orderID, err := validators.ParseQueryUUID(r, "order_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.OrderID = orderID

		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// InvestigateDispute claims a pending dispute for review.
func InvestigateDispute(svc internaldisputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, _, err := middleware.Actor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		disputeID, err := parseUUIDParam(r, "disputeId", "dispute id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.StartInvestigation(r.Context(), disputeID, adminID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(enums.DisputeStatusInvestigating)})
	}
}

// ResolveDispute closes a dispute with a verdict.
func ResolveDispute(svc internaldisputes.Service, logg *logger.Logger) http.HandlerFunc {
	return disputeVerdict(logg, svc.Resolve, enums.DisputeStatusResolved)
}

// DismissDispute closes a dispute without action.
func DismissDispute(svc internaldisputes.Service, logg *logger.Logger) http.HandlerFunc {
	return disputeVerdict(logg, svc.Dismiss, enums.DisputeStatusDismissed)
}

func disputeVerdict(logg *logger.Logger, decide func(ctx context.Context, input internaldisputes.ResolveInput) error, outcome enums.DisputeStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, _, err := middleware.Actor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		disputeID, err := parseUUIDParam(r, "disputeId", "dispute id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req resolveDisputeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := decide(r.Context(), internaldisputes.ResolveInput{
			DisputeID:  disputeID,
			AdminID:    adminID,
			Resolution: req.Resolution,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(outcome)})
	}
}

func parseUUIDParam(r *http.Request, param, label string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, label+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+label)
	}
	return id, nil
}
