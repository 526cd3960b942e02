package webhooks

import (
	"io"
	"net/http"

	"github.com/targolabs/targo-backend/api/responses"
	paymentswebhook "github.com/targolabs/targo-backend/internal/webhooks/payments"
	pkgerrors "github.com/targolabs/targo-backend/pkg/errors"
	"github.com/targolabs/targo-backend/pkg/logger"
	"github.com/targolabs/targo-backend/pkg/payments"
)

const signatureHeader = "X-Targo-Signature"

// maxWebhookBody caps processor payloads at 1 MiB.
const maxWebhookBody = 1 << 20

// PaymentsWebhook verifies, decodes and dispatches processor callbacks.
func PaymentsWebhook(svc *paymentswebhook.Service, webhookSecret string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read webhook payload"))
			return
		}

		event, err := payments.ParseEvent(payload, webhookSecret, r.Header.Get(signatureHeader))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{
				"event_id":   event.ID,
				"event_type": event.Type,
			})
		}

		if err := svc.HandleEvent(ctx, event); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"received": event.ID})
	}
}
