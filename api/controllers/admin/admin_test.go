package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/targolabs/targo-backend/api/middleware"
	internaldisputes "github.com/targolabs/targo-backend/internal/disputes"
	internalorders "github.com/targolabs/targo-backend/internal/orders"
	internalpayouts "github.com/targolabs/targo-backend/internal/payouts"
	internalreturns "github.com/targolabs/targo-backend/internal/returns"
	"github.com/targolabs/targo-backend/pkg/db/models"
	"github.com/targolabs/targo-backend/pkg/enums"
	"github.com/targolabs/targo-backend/pkg/pagination"
)

type stubAdminOrdersService struct {
	override func(ctx context.Context, input internalorders.OverrideStatusInput) error
}

func (s *stubAdminOrdersService) Get(ctx context.Context, actorID uuid.UUID, role enums.ActorRole, orderID uuid.UUID) (*models.Order, error) {
	return nil, nil
}

func (s *stubAdminOrdersService) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters internalorders.OrderFilters) (*internalorders.OrderList, error) {
	return nil, nil
}

func (s *stubAdminOrdersService) ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters internalorders.OrderFilters) (*internalorders.OrderList, error) {
	return nil, nil
}

func (s *stubAdminOrdersService) AddTracking(ctx context.Context, input internalorders.AddTrackingInput) error {
	return nil
}

func (s *stubAdminOrdersService) ConfirmDelivery(ctx context.Context, input internalorders.ConfirmDeliveryInput) error {
	return nil
}

func (s *stubAdminOrdersService) OverrideStatus(ctx context.Context, input internalorders.OverrideStatusInput) error {
	if s.override != nil {
		return s.override(ctx, input)
	}
	return nil
}

func (s *stubAdminOrdersService) MarkPaid(ctx context.Context, orderID uuid.UUID) error {
	return nil
}

func (s *stubAdminOrdersService) Cancel(ctx context.Context, input internalorders.CancelInput) error {
	return nil
}

func (s *stubAdminOrdersService) MarkRefunded(ctx context.Context, orderID uuid.UUID, reason string) error {
	return nil
}

type stubAdminReturnsService struct {
	approve  func(ctx context.Context, input internalreturns.DecisionInput) error
	reject   func(ctx context.Context, input internalreturns.DecisionInput) error
	complete func(ctx context.Context, returnID, adminID uuid.UUID) error
	list     func(ctx context.Context, params pagination.Params, filters internalreturns.ReturnFilters) (*internalreturns.ReturnList, error)
}

func (s *stubAdminReturnsService) Open(ctx context.Context, input internalreturns.OpenInput) (*models.Return, error) {
	return nil, nil
}

func (s *stubAdminReturnsService) Approve(ctx context.Context, input internalreturns.DecisionInput) error {
	if s.approve != nil {
		return s.approve(ctx, input)
	}
	return nil
}

func (s *stubAdminReturnsService) Reject(ctx context.Context, input internalreturns.DecisionInput) error {
	if s.reject != nil {
		return s.reject(ctx, input)
	}
	return nil
}

func (s *stubAdminReturnsService) Complete(ctx context.Context, returnID, adminID uuid.UUID) error {
	if s.complete != nil {
		return s.complete(ctx, returnID, adminID)
	}
	return nil
}

func (s *stubAdminReturnsService) Cancel(ctx context.Context, returnID, buyerID uuid.UUID) error {
	return nil
}

func (s *stubAdminReturnsService) Get(ctx context.Context, returnID uuid.UUID) (*models.Return, error) {
	return nil, nil
}

func (s *stubAdminReturnsService) List(ctx context.Context, params pagination.Params, filters internalreturns.ReturnFilters) (*internalreturns.ReturnList, error) {
	if s.list != nil {
		return s.list(ctx, params, filters)
	}
	return &internalreturns.ReturnList{}, nil
}

type stubAdminDisputesService struct {
	investigate func(ctx context.Context, disputeID, adminID uuid.UUID) error
	resolve     func(ctx context.Context, input internaldisputes.ResolveInput) error
	dismiss     func(ctx context.Context, input internaldisputes.ResolveInput) error
}

func (s *stubAdminDisputesService) Open(ctx context.Context, input internaldisputes.OpenInput) (*models.Dispute, error) {
	return nil, nil
}

func (s *stubAdminDisputesService) StartInvestigation(ctx context.Context, disputeID, adminID uuid.UUID) error {
	if s.investigate != nil {
		return s.investigate(ctx, disputeID, adminID)
	}
	return nil
}

func (s *stubAdminDisputesService) Resolve(ctx context.Context, input internaldisputes.ResolveInput) error {
	if s.resolve != nil {
		return s.resolve(ctx, input)
	}
	return nil
}

func (s *stubAdminDisputesService) Dismiss(ctx context.Context, input internaldisputes.ResolveInput) error {
	if s.dismiss != nil {
		return s.dismiss(ctx, input)
	}
	return nil
}

func (s *stubAdminDisputesService) Get(ctx context.Context, disputeID uuid.UUID) (*models.Dispute, error) {
	return nil, nil
}

func (s *stubAdminDisputesService) List(ctx context.Context, params pagination.Params, filters internaldisputes.DisputeFilters) (*internaldisputes.DisputeList, error) {
	return &internaldisputes.DisputeList{}, nil
}

type stubAdminPayoutsService struct {
	listWithdrawals func(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*internalpayouts.WithdrawalList, error)
	listLedger      func(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*internalpayouts.LedgerList, error)
}

func (s *stubAdminPayoutsService) CreditForDelivery(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	return nil
}

func (s *stubAdminPayoutsService) AdjustForRefund(ctx context.Context, tx *gorm.DB, order *models.Order, amountCents int64, reason string) (int64, error) {
	return 0, nil
}

func (s *stubAdminPayoutsService) MatureBalances(ctx context.Context) (internalpayouts.MaturationResult, error) {
	return internalpayouts.MaturationResult{}, nil
}

func (s *stubAdminPayoutsService) Withdraw(ctx context.Context, input internalpayouts.WithdrawInput) (*models.Withdrawal, error) {
	return nil, nil
}

func (s *stubAdminPayoutsService) CompleteTransfer(ctx context.Context, input internalpayouts.CompleteTransferInput) error {
	return nil
}

func (s *stubAdminPayoutsService) GetBalance(ctx context.Context, sellerID uuid.UUID) (*internalpayouts.BalanceSummary, error) {
	return nil, nil
}

func (s *stubAdminPayoutsService) ListWithdrawals(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*internalpayouts.WithdrawalList, error) {
	if s.listWithdrawals != nil {
		return s.listWithdrawals(ctx, sellerID, params)
	}
	return &internalpayouts.WithdrawalList{}, nil
}

func (s *stubAdminPayoutsService) ListLedgerEntries(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*internalpayouts.LedgerList, error) {
	if s.listLedger != nil {
		return s.listLedger(ctx, sellerID, params)
	}
	return &internalpayouts.LedgerList{}, nil
}

func adminRequest(req *http.Request, adminID uuid.UUID) *http.Request {
	req = req.WithContext(middleware.WithUserID(req.Context(), adminID.String()))
	return req.WithContext(middleware.WithRole(req.Context(), string(enums.ActorRoleAdmin)))
}

func withParam(req *http.Request, name, value string) *http.Request {
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add(name, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
}

func TestOverrideOrderStatusSuccess(t *testing.T) {
	adminID := uuid.New()
	orderID := uuid.New()
	called := false
	svc := &stubAdminOrdersService{
		override: func(ctx context.Context, input internalorders.OverrideStatusInput) error {
			if input.OrderID != orderID {
				t.Fatalf("unexpected order id %s", input.OrderID)
			}
			if input.AdminID != adminID {
				t.Fatalf("unexpected admin id %s", input.AdminID)
			}
			if input.Status != enums.OrderStatusRefunded {
				t.Fatalf("unexpected status %s", input.Status)
			}
			if input.Reason != "chargeback upheld" {
				t.Fatalf("unexpected reason %q", input.Reason)
			}
			called = true
			return nil
		},
	}

	handler := OverrideOrderStatus(svc, nil)
	body := `{"status":"refunded","reason":"chargeback upheld"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/orders/"+orderID.String()+"/override", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withParam(req, "orderId", orderID.String())
	req = adminRequest(req, adminID)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !called {
		t.Fatalf("service not invoked")
	}
}

func TestOverrideOrderStatusUnknownStatus(t *testing.T) {
	orderID := uuid.New()
	handler := OverrideOrderStatus(&stubAdminOrdersService{}, nil)
	body := `{"status":"vanished","reason":"because"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/orders/"+orderID.String()+"/override", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withParam(req, "orderId", orderID.String())
	req = adminRequest(req, uuid.New())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestApproveReturnPartialRefund(t *testing.T) {
	adminID := uuid.New()
	returnID := uuid.New()
	called := false
	svc := &stubAdminReturnsService{
		approve: func(ctx context.Context, input internalreturns.DecisionInput) error {
			if input.ReturnID != returnID {
				t.Fatalf("unexpected return id %s", input.ReturnID)
			}
			if input.AdminID != adminID {
				t.Fatalf("unexpected admin id %s", input.AdminID)
			}
			if input.RefundAmountCents == nil || *input.RefundAmountCents != 2500 {
				t.Fatalf("partial refund amount not forwarded")
			}
			called = true
			return nil
		},
	}

	handler := ApproveReturn(svc, nil)
	body := `{"notes":"half refund, item used","refund_amount_cents":2500}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/returns/"+returnID.String()+"/approve", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withParam(req, "returnId", returnID.String())
	req = adminRequest(req, adminID)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !called {
		t.Fatalf("service not invoked")
	}
}

func TestRejectReturnSuccess(t *testing.T) {
	returnID := uuid.New()
	called := false
	svc := &stubAdminReturnsService{
		reject: func(ctx context.Context, input internalreturns.DecisionInput) error {
			if input.Notes != "outside the return window" {
				t.Fatalf("unexpected notes %q", input.Notes)
			}
			called = true
			return nil
		},
	}

	handler := RejectReturn(svc, nil)
	body := `{"notes":"outside the return window"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/returns/"+returnID.String()+"/reject", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withParam(req, "returnId", returnID.String())
	req = adminRequest(req, uuid.New())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !called {
		t.Fatalf("service not invoked")
	}
}

func TestCompleteReturnSuccess(t *testing.T) {
	adminID := uuid.New()
	returnID := uuid.New()
	called := false
	svc := &stubAdminReturnsService{
		complete: func(ctx context.Context, incomingReturn, incomingAdmin uuid.UUID) error {
			if incomingReturn != returnID {
				t.Fatalf("unexpected return id %s", incomingReturn)
			}
			if incomingAdmin != adminID {
				t.Fatalf("unexpected admin id %s", incomingAdmin)
			}
			called = true
			return nil
		},
	}

	handler := CompleteReturn(svc, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/returns/"+returnID.String()+"/complete", nil)
	req = withParam(req, "returnId", returnID.String())
	req = adminRequest(req, adminID)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !called {
		t.Fatalf("service not invoked")
	}
}

func TestListReturnsStatusFilter(t *testing.T) {
	svc := &stubAdminReturnsService{
		list: func(ctx context.Context, params pagination.Params, filters internalreturns.ReturnFilters) (*internalreturns.ReturnList, error) {
			if filters.Status == nil || *filters.Status != enums.ReturnStatusPending {
				t.Fatalf("status filter not parsed")
			}
			if filters.BuyerID != nil || filters.SellerID != nil {
				t.Fatalf("admin list should not scope by party")
			}
			return &internalreturns.ReturnList{}, nil
		},
	}

	handler := ListReturns(svc, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/returns?status=pending", nil)
	req = adminRequest(req, uuid.New())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestInvestigateDisputeSuccess(t *testing.T) {
	adminID := uuid.New()
	disputeID := uuid.New()
	called := false
	svc := &stubAdminDisputesService{
		investigate: func(ctx context.Context, incomingDispute, incomingAdmin uuid.UUID) error {
			if incomingDispute != disputeID {
				t.Fatalf("unexpected dispute id %s", incomingDispute)
			}
			if incomingAdmin != adminID {
				t.Fatalf("unexpected admin id %s", incomingAdmin)
			}
			called = true
			return nil
		},
	}

	handler := InvestigateDispute(svc, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/disputes/"+disputeID.String()+"/investigate", nil)
	req = withParam(req, "disputeId", disputeID.String())
	req = adminRequest(req, adminID)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !called {
		t.Fatalf("service not invoked")
	}
}

func TestResolveDisputeSuccess(t *testing.T) {
	adminID := uuid.New()
	disputeID := uuid.New()
	called := false
	svc := &stubAdminDisputesService{
		resolve: func(ctx context.Context, input internaldisputes.ResolveInput) error {
			if input.DisputeID != disputeID {
				t.Fatalf("unexpected dispute id %s", input.DisputeID)
			}
			if input.Resolution != "refund issued to buyer" {
				t.Fatalf("unexpected resolution %q", input.Resolution)
			}
			called = true
			return nil
		},
	}

	handler := ResolveDispute(svc, nil)
	body := `{"resolution":"refund issued to buyer"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/disputes/"+disputeID.String()+"/resolve", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withParam(req, "disputeId", disputeID.String())
	req = adminRequest(req, adminID)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !called {
		t.Fatalf("service not invoked")
	}
}

func TestListSellerWithdrawalsSuccess(t *testing.T) {
	sellerID := uuid.New()
	svc := &stubAdminPayoutsService{
		listWithdrawals: func(ctx context.Context, incomingSeller uuid.UUID, params pagination.Params) (*internalpayouts.WithdrawalList, error) {
			if incomingSeller != sellerID {
				t.Fatalf("unexpected seller id %s", incomingSeller)
			}
			if params.Limit != 10 {
				t.Fatalf("limit not parsed, got %d", params.Limit)
			}
			return &internalpayouts.WithdrawalList{}, nil
		},
	}

	handler := ListSellerWithdrawals(svc, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/sellers/"+sellerID.String()+"/withdrawals?limit=10", nil)
	req = withParam(req, "sellerId", sellerID.String())
	req = adminRequest(req, uuid.New())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestListSellerLedgerInvalidSellerID(t *testing.T) {
	handler := ListSellerLedger(&stubAdminPayoutsService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/sellers/not-a-uuid/ledger", nil)
	req = withParam(req, "sellerId", "not-a-uuid")
	req = adminRequest(req, uuid.New())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestDismissDisputeMissingResolution(t *testing.T) {
	disputeID := uuid.New()
	handler := DismissDispute(&stubAdminDisputesService{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/disputes/"+disputeID.String()+"/dismiss", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req = withParam(req, "disputeId", disputeID.String())
	req = adminRequest(req, uuid.New())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
