package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/targolabs/targo-backend/api/controllers"
	admincontrollers "github.com/targolabs/targo-backend/api/controllers/admin"
	checkoutcontrollers "github.com/targolabs/targo-backend/api/controllers/checkout"
	disputecontrollers "github.com/targolabs/targo-backend/api/controllers/disputes"
	ordercontrollers "github.com/targolabs/targo-backend/api/controllers/orders"
	returncontrollers "github.com/targolabs/targo-backend/api/controllers/returns"
	walletcontrollers "github.com/targolabs/targo-backend/api/controllers/wallet"
	webhookcontrollers "github.com/targolabs/targo-backend/api/controllers/webhooks"
	"github.com/targolabs/targo-backend/api/middleware"
	checkoutsvc "github.com/targolabs/targo-backend/internal/checkout"
	"github.com/targolabs/targo-backend/internal/disputes"
	"github.com/targolabs/targo-backend/internal/orders"
	"github.com/targolabs/targo-backend/internal/payouts"
	"github.com/targolabs/targo-backend/internal/returns"
	paymentswebhook "github.com/targolabs/targo-backend/internal/webhooks/payments"
	"github.com/targolabs/targo-backend/pkg/config"
	"github.com/targolabs/targo-backend/pkg/db"
	"github.com/targolabs/targo-backend/pkg/enums"
	"github.com/targolabs/targo-backend/pkg/logger"
	"github.com/targolabs/targo-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
	payoutsService payouts.Service,
	returnsService returns.Service,
	disputesService disputes.Service,
	paymentsWebhookService *paymentswebhook.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	withdrawPolicy := middleware.WithdrawRateLimitPolicy(cfg.Withdraw)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payments", webhookcontrollers.PaymentsWebhook(paymentsWebhookService, cfg.Payments.WebhookSecret, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/checkout", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.ActorRoleBuyer, logg))
			r.Post("/", checkoutcontrollers.Start(checkoutService, logg))
			r.Get("/", checkoutcontrollers.Current(checkoutService, logg))
			r.Put("/shipping", checkoutcontrollers.SubmitShipping(checkoutService, logg))
			r.Put("/payment", checkoutcontrollers.SubmitPayment(checkoutService, logg))
			r.Post("/back", checkoutcontrollers.Back(checkoutService, logg))
			r.Get("/quote", checkoutcontrollers.Quote(checkoutService, logg))
			r.Post("/submit", checkoutcontrollers.Submit(checkoutService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(ordersService, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(ordersService, logg))
			r.Post("/{orderId}/tracking", ordercontrollers.AddTracking(ordersService, logg))
			r.Post("/{orderId}/confirm-delivery", ordercontrollers.ConfirmDelivery(ordersService, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.Cancel(ordersService, logg))
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.ActorRoleSeller, logg))
			r.Get("/balance", walletcontrollers.Balance(payoutsService, logg))
			r.With(middleware.UserRateLimit(withdrawPolicy, redisClient, logg)).
				Post("/withdrawals", walletcontrollers.Withdraw(payoutsService, logg))
			r.Get("/withdrawals", walletcontrollers.ListWithdrawals(payoutsService, logg))
			r.Get("/ledger", walletcontrollers.ListLedger(payoutsService, logg))
		})

		r.Route("/returns", func(r chi.Router) {
			r.Post("/", returncontrollers.Open(returnsService, logg))
			r.Get("/", returncontrollers.List(returnsService, logg))
			r.Get("/{returnId}", returncontrollers.Get(returnsService, logg))
			r.Post("/{returnId}/cancel", returncontrollers.Cancel(returnsService, logg))
		})

		r.Route("/disputes", func(r chi.Router) {
			r.Post("/", disputecontrollers.Open(disputesService, logg))
			r.Get("/", disputecontrollers.List(disputesService, logg))
			r.Get("/{disputeId}", disputecontrollers.Get(disputesService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.ActorRoleAdmin, logg))
			r.Post("/orders/{orderId}/override", admincontrollers.OverrideOrderStatus(ordersService, logg))
			r.Route("/sellers/{sellerId}", func(r chi.Router) {
				r.Get("/withdrawals", admincontrollers.ListSellerWithdrawals(payoutsService, logg))
				r.Get("/ledger", admincontrollers.ListSellerLedger(payoutsService, logg))
			})
			r.Route("/returns", func(r chi.Router) {
				r.Get("/", admincontrollers.ListReturns(returnsService, logg))
				r.Post("/{returnId}/approve", admincontrollers.ApproveReturn(returnsService, logg))
				r.Post("/{returnId}/reject", admincontrollers.RejectReturn(returnsService, logg))
				r.Post("/{returnId}/complete", admincontrollers.CompleteReturn(returnsService, logg))
			})
			r.Route("/disputes", func(r chi.Router) {
				r.Get("/", admincontrollers.ListDisputes(disputesService, logg))
				r.Post("/{disputeId}/investigate", admincontrollers.InvestigateDispute(disputesService, logg))
				r.Post("/{disputeId}/resolve", admincontrollers.ResolveDispute(disputesService, logg))
				r.Post("/{disputeId}/dismiss", admincontrollers.DismissDispute(disputesService, logg))
			})
		})
	})

	return r
}
