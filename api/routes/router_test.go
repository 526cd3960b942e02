package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	checkoutsvc "github.com/targolabs/targo-backend/internal/checkout"
	"github.com/targolabs/targo-backend/internal/disputes"
	"github.com/targolabs/targo-backend/internal/fees"
	"github.com/targolabs/targo-backend/internal/orders"
	"github.com/targolabs/targo-backend/internal/payouts"
	"github.com/targolabs/targo-backend/internal/returns"
	pkgAuth "github.com/targolabs/targo-backend/pkg/auth"
	"github.com/targolabs/targo-backend/pkg/config"
	"github.com/targolabs/targo-backend/pkg/db/models"
	"github.com/targolabs/targo-backend/pkg/enums"
	"github.com/targolabs/targo-backend/pkg/logger"
	"github.com/targolabs/targo-backend/pkg/pagination"
	"github.com/targolabs/targo-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCheckoutService struct{}

func (stubCheckoutService) Start(ctx context.Context, input checkoutsvc.StartInput) (*checkoutsvc.Session, error) {
	return &checkoutsvc.Session{}, nil
}

func (stubCheckoutService) Current(ctx context.Context, buyerID uuid.UUID) (*checkoutsvc.Session, error) {
	return &checkoutsvc.Session{BuyerID: buyerID, Stage: checkoutsvc.StageShipping}, nil
}

func (stubCheckoutService) SubmitShipping(ctx context.Context, input checkoutsvc.ShippingInput) (*checkoutsvc.Session, error) {
	return &checkoutsvc.Session{}, nil
}

func (stubCheckoutService) SubmitPayment(ctx context.Context, input checkoutsvc.PaymentInput) (*checkoutsvc.Session, error) {
	return &checkoutsvc.Session{}, nil
}

func (stubCheckoutService) Back(ctx context.Context, input checkoutsvc.BackInput) (*checkoutsvc.Session, error) {
	return &checkoutsvc.Session{}, nil
}

func (stubCheckoutService) Quote(ctx context.Context, buyerID uuid.UUID) (*fees.Breakdown, error) {
	return &fees.Breakdown{}, nil
}

func (stubCheckoutService) Submit(ctx context.Context, input checkoutsvc.SubmitInput) (*checkoutsvc.SubmitResult, error) {
	return &checkoutsvc.SubmitResult{}, nil
}

type stubOrdersService struct{}

func (stubOrdersService) Get(ctx context.Context, actorID uuid.UUID, role enums.ActorRole, orderID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID}, nil
}

func (stubOrdersService) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters orders.OrderFilters) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (stubOrdersService) ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters orders.OrderFilters) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (stubOrdersService) AddTracking(ctx context.Context, input orders.AddTrackingInput) error {
	return nil
}

func (stubOrdersService) ConfirmDelivery(ctx context.Context, input orders.ConfirmDeliveryInput) error {
	return nil
}

func (stubOrdersService) OverrideStatus(ctx context.Context, input orders.OverrideStatusInput) error {
	return nil
}

func (stubOrdersService) MarkPaid(ctx context.Context, orderID uuid.UUID) error {
	return nil
}

func (stubOrdersService) Cancel(ctx context.Context, input orders.CancelInput) error {
	return nil
}

func (stubOrdersService) MarkRefunded(ctx context.Context, orderID uuid.UUID, reason string) error {
	return nil
}

type stubPayoutsService struct{}

func (stubPayoutsService) CreditForDelivery(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	return nil
}

func (stubPayoutsService) AdjustForRefund(ctx context.Context, tx *gorm.DB, order *models.Order, amountCents int64, reason string) (int64, error) {
	return 0, nil
}

func (stubPayoutsService) MatureBalances(ctx context.Context) (payouts.MaturationResult, error) {
	return payouts.MaturationResult{}, nil
}

func (stubPayoutsService) Withdraw(ctx context.Context, input payouts.WithdrawInput) (*models.Withdrawal, error) {
	return &models.Withdrawal{}, nil
}

func (stubPayoutsService) CompleteTransfer(ctx context.Context, input payouts.CompleteTransferInput) error {
	return nil
}

func (stubPayoutsService) GetBalance(ctx context.Context, sellerID uuid.UUID) (*payouts.BalanceSummary, error) {
	return &payouts.BalanceSummary{}, nil
}

func (stubPayoutsService) ListWithdrawals(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*payouts.WithdrawalList, error) {
	return &payouts.WithdrawalList{}, nil
}

func (stubPayoutsService) ListLedgerEntries(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*payouts.LedgerList, error) {
	return &payouts.LedgerList{}, nil
}

type stubReturnsService struct{}

func (stubReturnsService) Open(ctx context.Context, input returns.OpenInput) (*models.Return, error) {
	return &models.Return{}, nil
}

func (stubReturnsService) Approve(ctx context.Context, input returns.DecisionInput) error {
	return nil
}

func (stubReturnsService) Reject(ctx context.Context, input returns.DecisionInput) error {
	return nil
}

func (stubReturnsService) Complete(ctx context.Context, returnID, adminID uuid.UUID) error {
	return nil
}

func (stubReturnsService) Cancel(ctx context.Context, returnID, buyerID uuid.UUID) error {
	return nil
}

func (stubReturnsService) Get(ctx context.Context, returnID uuid.UUID) (*models.Return, error) {
	return &models.Return{}, nil
}

func (stubReturnsService) List(ctx context.Context, params pagination.Params, filters returns.ReturnFilters) (*returns.ReturnList, error) {
	return &returns.ReturnList{}, nil
}

type stubDisputesService struct{}

func (stubDisputesService) Open(ctx context.Context, input disputes.OpenInput) (*models.Dispute, error) {
	return &models.Dispute{}, nil
}

func (stubDisputesService) StartInvestigation(ctx context.Context, disputeID, adminID uuid.UUID) error {
	return nil
}

func (stubDisputesService) Resolve(ctx context.Context, input disputes.ResolveInput) error {
	return nil
}

func (stubDisputesService) Dismiss(ctx context.Context, input disputes.ResolveInput) error {
	return nil
}

func (stubDisputesService) Get(ctx context.Context, disputeID uuid.UUID) (*models.Dispute, error) {
	return &models.Dispute{}, nil
}

func (stubDisputesService) List(ctx context.Context, params pagination.Params, filters disputes.DisputeFilters) (*disputes.DisputeList, error) {
	return &disputes.DisputeList{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubCheckoutService{},
		stubOrdersService{},
		stubPayoutsService{},
		stubReturnsService{},
		stubDisputesService{},
		nil, // payments webhook service
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.ActorRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestProtectedGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestProtectedGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleBuyer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for authenticated list got %d", resp.Code)
	}
}

func TestCheckoutRequiresBuyerRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	seller := httptest.NewRequest(http.MethodGet, "/api/v1/checkout", nil)
	seller.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleSeller))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, seller)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for seller on checkout got %d", resp.Code)
	}

	buyer := httptest.NewRequest(http.MethodGet, "/api/v1/checkout", nil)
	buyer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleBuyer))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, buyer)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for buyer on checkout got %d", resp.Code)
	}
}

func TestWalletRequiresSellerRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	buyer := httptest.NewRequest(http.MethodGet, "/api/v1/wallet/balance", nil)
	buyer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleBuyer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, buyer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for buyer on wallet got %d", resp.Code)
	}

	seller := httptest.NewRequest(http.MethodGet, "/api/v1/wallet/balance", nil)
	seller.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleSeller))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, seller)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for seller on wallet got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/returns", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleSeller))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/returns", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestAdminSellerLedgerRoute(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/sellers/"+uuid.NewString()+"/ledger", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin ledger inspection got %d", resp.Code)
	}
}
