package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/targolabs/targo-backend/pkg/config"
	pkgerrors "github.com/targolabs/targo-backend/pkg/errors"
)

type fakeRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: make(map[string]int64)}
}

func (f *fakeRateStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return f.counts[key], nil
}

func TestUserRateLimitAllowsUnderLimit(t *testing.T) {
	store := newFakeRateStore()
	policy := NewRateLimitPolicy("withdraw", time.Minute, 5)
	handler := UserRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/wallet/withdrawals", nil)
	req = req.WithContext(WithUserID(req.Context(), "11111111-1111-1111-1111-111111111111"))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestUserRateLimitBlocksOverLimit(t *testing.T) {
	store := newFakeRateStore()
	policy := NewRateLimitPolicy("withdraw", time.Minute, 2)
	handler := UserRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/wallet/withdrawals", nil)
		req = req.WithContext(WithUserID(req.Context(), "11111111-1111-1111-1111-111111111111"))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if i < 2 {
			if rec.Code != http.StatusCreated {
				t.Fatalf("expected success before limit, got %d", rec.Code)
			}
			continue
		}
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429 after limit, got %d", rec.Code)
		}
		var payload struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("parse error response: %v", err)
		}
		if payload.Error.Code != string(pkgerrors.CodeRateLimit) {
			t.Fatalf("expected error code %s got %s", pkgerrors.CodeRateLimit, payload.Error.Code)
		}
	}
}

func TestUserRateLimitSeparateUsers(t *testing.T) {
	store := newFakeRateStore()
	policy := NewRateLimitPolicy("withdraw", time.Minute, 1)
	handler := UserRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	users := []string{
		"11111111-1111-1111-1111-111111111111",
		"22222222-2222-2222-2222-222222222222",
	}
	for _, userID := range users {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/wallet/withdrawals", nil)
		req = req.WithContext(WithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("user %s should have its own window, got %d", userID, rec.Code)
		}
	}
}

func TestUserRateLimitSkipsAnonymous(t *testing.T) {
	store := newFakeRateStore()
	policy := NewRateLimitPolicy("withdraw", time.Minute, 1)
	handler := UserRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/wallet/withdrawals", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("requests without a user id pass through, got %d", rec.Code)
		}
	}
}

func TestWithdrawRateLimitPolicyFromConfig(t *testing.T) {
	policy := WithdrawRateLimitPolicy(config.WithdrawRateLimitConfig{
		Window: 30 * time.Second,
		Limit:  3,
	})
	if !policy.enabled() {
		t.Fatalf("policy should be enabled")
	}
	if policy.normalizedName() != "withdraw" {
		t.Fatalf("unexpected policy name %q", policy.normalizedName())
	}
	if policy.userKey("u1") != "rl:user:withdraw:u1" {
		t.Fatalf("unexpected key %q", policy.userKey("u1"))
	}
}
