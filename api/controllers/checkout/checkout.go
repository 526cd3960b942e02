package checkout

import (
	"net/http"
	"strings"

	"github.com/targolabs/targo-backend/api/middleware"
	"github.com/targolabs/targo-backend/api/responses"
	"github.com/targolabs/targo-backend/api/validators"
	internalcheckout "github.com/targolabs/targo-backend/internal/checkout"
	pkgerrors "github.com/targolabs/targo-backend/pkg/errors"
	"github.com/targolabs/targo-backend/pkg/logger"
	"github.com/targolabs/targo-backend/pkg/types"
)

type startRequest struct {
	Items []internalcheckout.CartItem `json:"items" validate:"required,min=1,dive"`
}

type shippingRequest struct {
	Address types.ShippingAddress `json:"address" validate:"required"`
}

type paymentRequest struct {
	Payment internalcheckout.PaymentSelection `json:"payment" validate:"required"`
}

type backRequest struct {
	Stage string `json:"stage" validate:"required"`
}

// Start opens a checkout session for the caller's cart.
func Start(svc internalcheckout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, _, err := middleware.Actor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req startRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess, err := svc.Start(r.Context(), internalcheckout.StartInput{
			BuyerID: buyerID,
			Items:   req.Items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sess)
	}
}

// Current returns the caller's active checkout session.
func Current(svc internalcheckout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, _, err := middleware.Actor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess, err := svc.Current(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sess)
	}
}

// SubmitShipping records the delivery address and advances the wizard.
func SubmitShipping(svc internalcheckout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, _, err := middleware.Actor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req shippingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess, err := svc.SubmitShipping(r.Context(), internalcheckout.ShippingInput{
			BuyerID: buyerID,
			Address: req.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sess)
	}
}

// SubmitPayment records the payment selection and advances to review.
func SubmitPayment(svc internalcheckout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, _, err := middleware.Actor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req paymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess, err := svc.SubmitPayment(r.Context(), internalcheckout.PaymentInput{
			BuyerID:   buyerID,
			Selection: req.Payment,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sess)
	}
}

// Back rewinds the wizard to an earlier stage without losing collected data.
func Back(svc internalcheckout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, _, err := middleware.Actor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req backRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stage := internalcheckout.Stage(strings.TrimSpace(req.Stage))
		if !stage.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown checkout stage"))
			return
		}

		sess, err := svc.Back(r.Context(), internalcheckout.BackInput{
			BuyerID: buyerID,
			Stage:   stage,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sess)
	}
}

// Quote prices the session's cart against the selected payment and shipping.
func Quote(svc internalcheckout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, _, err := middleware.Actor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		breakdown, err := svc.Quote(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, breakdown)
	}
}

// Submit places the order for the reviewed session.
func Submit(svc internalcheckout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, _, err := middleware.Actor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
		if idempotencyKey == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
			return
		}

		result, err := svc.Submit(r.Context(), internalcheckout.SubmitInput{
			BuyerID:        buyerID,
			IdempotencyKey: idempotencyKey,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
