package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/targolabs/targo-backend/api/middleware"
	internalorders "github.com/targolabs/targo-backend/internal/orders"
	"github.com/targolabs/targo-backend/pkg/db/models"
	"github.com/targolabs/targo-backend/pkg/enums"
	"github.com/targolabs/targo-backend/pkg/pagination"
)

type stubOrdersService struct {
	get             func(ctx context.Context, actorID uuid.UUID, role enums.ActorRole, orderID uuid.UUID) (*models.Order, error)
	listBuyer       func(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters internalorders.OrderFilters) (*internalorders.OrderList, error)
	listSeller      func(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters internalorders.OrderFilters) (*internalorders.OrderList, error)
	addTracking     func(ctx context.Context, input internalorders.AddTrackingInput) error
	confirmDelivery func(ctx context.Context, input internalorders.ConfirmDeliveryInput) error
	cancel          func(ctx context.Context, input internalorders.CancelInput) error
}

func (s *stubOrdersService) Get(ctx context.Context, actorID uuid.UUID, role enums.ActorRole, orderID uuid.UUID) (*models.Order, error) {
	if s.get != nil {
		return s.get(ctx, actorID, role, orderID)
	}
	return nil, nil
}

func (s *stubOrdersService) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters internalorders.OrderFilters) (*internalorders.OrderList, error) {
	if s.listBuyer != nil {
		return s.listBuyer(ctx, buyerID, params, filters)
	}
	return &internalorders.OrderList{}, nil
}

func (s *stubOrdersService) ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters internalorders.OrderFilters) (*internalorders.OrderList, error) {
	if s.listSeller != nil {
		return s.listSeller(ctx, sellerID, params, filters)
	}
	return &internalorders.OrderList{}, nil
}

func (s *stubOrdersService) AddTracking(ctx context.Context, input internalorders.AddTrackingInput) error {
	if s.addTracking != nil {
		return s.addTracking(ctx, input)
	}
	return nil
}

func (s *stubOrdersService) ConfirmDelivery(ctx context.Context, input internalorders.ConfirmDeliveryInput) error {
	if s.confirmDelivery != nil {
		return s.confirmDelivery(ctx, input)
	}
	return nil
}

func (s *stubOrdersService) OverrideStatus(ctx context.Context, input internalorders.OverrideStatusInput) error {
	return nil
}

func (s *stubOrdersService) MarkPaid(ctx context.Context, orderID uuid.UUID) error {
	return nil
}

func (s *stubOrdersService) Cancel(ctx context.Context, input internalorders.CancelInput) error {
	if s.cancel != nil {
		return s.cancel(ctx, input)
	}
	return nil
}

func (s *stubOrdersService) MarkRefunded(ctx context.Context, orderID uuid.UUID, reason string) error {
	return nil
}

func actorRequest(req *http.Request, actorID uuid.UUID, role enums.ActorRole) *http.Request {
	req = req.WithContext(middleware.WithUserID(req.Context(), actorID.String()))
	return req.WithContext(middleware.WithRole(req.Context(), string(role)))
}

func withOrderParam(req *http.Request, orderID uuid.UUID) *http.Request {
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("orderId", orderID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
}

func TestListBuyerPerspective(t *testing.T) {
	buyerID := uuid.New()
	expected := &internalorders.OrderList{
		Orders: []internalorders.OrderSummary{
			{InvoiceNumber: "TRG-000042"},
		},
	}
	svc := &stubOrdersService{
		listBuyer: func(ctx context.Context, incoming uuid.UUID, params pagination.Params, filters internalorders.OrderFilters) (*internalorders.OrderList, error) {
			if incoming != buyerID {
				t.Fatalf("unexpected buyer id %s", incoming)
			}
			if params.Limit != 5 {
				t.Fatalf("unexpected limit %d", params.Limit)
			}
			if filters.Status == nil || *filters.Status != enums.OrderStatusShipped {
				t.Fatalf("status filter not parsed")
			}
			if filters.PaymentMethod == nil || *filters.PaymentMethod != enums.PaymentMethodCOD {
				t.Fatalf("payment method filter not parsed")
			}
			return expected, nil
		},
	}

	handler := List(svc, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=5&status=shipped&payment_method=cod", nil)
	req = actorRequest(req, buyerID, enums.ActorRoleBuyer)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data internalorders.OrderList `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Orders) != 1 || envelope.Data.Orders[0].InvoiceNumber != "TRG-000042" {
		t.Fatalf("unexpected orders in response")
	}
}

func TestListSellerPerspective(t *testing.T) {
	sellerID := uuid.New()
	called := false
	svc := &stubOrdersService{
		listSeller: func(ctx context.Context, incoming uuid.UUID, params pagination.Params, filters internalorders.OrderFilters) (*internalorders.OrderList, error) {
			if incoming != sellerID {
				t.Fatalf("unexpected seller id %s", incoming)
			}
			called = true
			return &internalorders.OrderList{}, nil
		},
	}

	handler := List(svc, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req = actorRequest(req, sellerID, enums.ActorRoleSeller)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !called {
		t.Fatalf("seller list not invoked")
	}
}

func TestListInvalidStatusFilter(t *testing.T) {
	handler := List(&stubOrdersService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=teleported", nil)
	req = actorRequest(req, uuid.New(), enums.ActorRoleBuyer)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListMissingActor(t *testing.T) {
	handler := List(&stubOrdersService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestDetailSuccess(t *testing.T) {
	buyerID := uuid.New()
	orderID := uuid.New()
	svc := &stubOrdersService{
		get: func(ctx context.Context, actorID uuid.UUID, role enums.ActorRole, incoming uuid.UUID) (*models.Order, error) {
			if actorID != buyerID {
				t.Fatalf("unexpected actor id %s", actorID)
			}
			if incoming != orderID {
				t.Fatalf("unexpected order id %s", incoming)
			}
			return &models.Order{ID: orderID, Status: enums.OrderStatusPaid}, nil
		},
	}

	handler := Detail(svc, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)
	req = withOrderParam(req, orderID)
	req = actorRequest(req, buyerID, enums.ActorRoleBuyer)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data models.Order `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != orderID {
		t.Fatalf("unexpected order in response")
	}
}

func TestDetailInvalidOrderID(t *testing.T) {
	handler := Detail(&stubOrdersService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("orderId", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
	req = actorRequest(req, uuid.New(), enums.ActorRoleBuyer)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAddTrackingSuccess(t *testing.T) {
	sellerID := uuid.New()
	orderID := uuid.New()
	called := false
	svc := &stubOrdersService{
		addTracking: func(ctx context.Context, input internalorders.AddTrackingInput) error {
			if input.OrderID != orderID {
				t.Fatalf("unexpected order id %s", input.OrderID)
			}
			if input.SellerID != sellerID {
				t.Fatalf("unexpected seller id %s", input.SellerID)
			}
			if input.Carrier != "fan-courier" || input.TrackingNumber != "FC123456" {
				t.Fatalf("unexpected tracking payload %+v", input)
			}
			called = true
			return nil
		},
	}

	handler := AddTracking(svc, nil)
	body := `{"carrier":"fan-courier","tracking_number":"FC123456"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/tracking", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withOrderParam(req, orderID)
	req = actorRequest(req, sellerID, enums.ActorRoleSeller)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !called {
		t.Fatalf("service not invoked")
	}
}

func TestAddTrackingBuyerForbidden(t *testing.T) {
	orderID := uuid.New()
	handler := AddTracking(&stubOrdersService{}, nil)
	body := `{"carrier":"fan-courier","tracking_number":"FC123456"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/tracking", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withOrderParam(req, orderID)
	req = actorRequest(req, uuid.New(), enums.ActorRoleBuyer)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestAddTrackingShortTrackingNumber(t *testing.T) {
	orderID := uuid.New()
	handler := AddTracking(&stubOrdersService{}, nil)
	body := `{"carrier":"fan-courier","tracking_number":"FC"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/tracking", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withOrderParam(req, orderID)
	req = actorRequest(req, uuid.New(), enums.ActorRoleSeller)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestConfirmDeliverySuccess(t *testing.T) {
	buyerID := uuid.New()
	orderID := uuid.New()
	called := false
	svc := &stubOrdersService{
		confirmDelivery: func(ctx context.Context, input internalorders.ConfirmDeliveryInput) error {
			if input.OrderID != orderID {
				t.Fatalf("unexpected order id %s", input.OrderID)
			}
			if input.BuyerID != buyerID {
				t.Fatalf("unexpected buyer id %s", input.BuyerID)
			}
			called = true
			return nil
		},
	}

	handler := ConfirmDelivery(svc, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/confirm-delivery", nil)
	req = withOrderParam(req, orderID)
	req = actorRequest(req, buyerID, enums.ActorRoleBuyer)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !called {
		t.Fatalf("service not invoked")
	}
}

func TestConfirmDeliverySellerForbidden(t *testing.T) {
	orderID := uuid.New()
	handler := ConfirmDelivery(&stubOrdersService{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/confirm-delivery", nil)
	req = withOrderParam(req, orderID)
	req = actorRequest(req, uuid.New(), enums.ActorRoleSeller)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestCancelSuccess(t *testing.T) {
	buyerID := uuid.New()
	orderID := uuid.New()
	called := false
	svc := &stubOrdersService{
		cancel: func(ctx context.Context, input internalorders.CancelInput) error {
			if input.OrderID != orderID {
				t.Fatalf("unexpected order id %s", input.OrderID)
			}
			if input.ActorID != buyerID {
				t.Fatalf("unexpected actor id %s", input.ActorID)
			}
			if input.ActorRole != enums.ActorRoleBuyer {
				t.Fatalf("unexpected actor role %s", input.ActorRole)
			}
			if input.Reason != "ordered by mistake" {
				t.Fatalf("unexpected reason %q", input.Reason)
			}
			called = true
			return nil
		},
	}

	handler := Cancel(svc, nil)
	body := `{"reason":"ordered by mistake"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withOrderParam(req, orderID)
	req = actorRequest(req, buyerID, enums.ActorRoleBuyer)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !called {
		t.Fatalf("service not invoked")
	}
}

func TestCancelMissingReason(t *testing.T) {
	orderID := uuid.New()
	handler := Cancel(&stubOrdersService{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req = withOrderParam(req, orderID)
	req = actorRequest(req, uuid.New(), enums.ActorRoleBuyer)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
