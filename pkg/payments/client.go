package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/targolabs/targo-backend/pkg/config"
	pkgerrors "github.com/targolabs/targo-backend/pkg/errors"
	"github.com/targolabs/targo-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"

	testKeyPrefix = "tg_test_"
	liveKeyPrefix = "tg_live_"
)

var (
	errAPIKeyRequired        = errors.New("payments api key is required")
	errWebhookSecretRequired = errors.New("payments webhook secret is required")
	errInvalidPaymentsEnv    = fmt.Errorf("payments environment must be %q or %q", testEnv, liveEnv)
	errLoggerRequired        = errors.New("payments logger is required")
)

var baseURLs = map[string]string{
	testEnv: "https://api.test.platapay.ro",
	liveEnv: "https://api.platapay.ro",
}

// Client wraps the card processor's REST API with centralized auth, logging,
// idempotency keys, and error mapping. COD orders never touch it; the processor
// only sees card charges, refunds, and seller bank transfers.
type Client struct {
	httpClient    *http.Client
	apiKey        string
	environment   string
	webhookSecret string
	baseURL       string
	logger        *logger.Logger
}

// NewClient initializes the processor wrapper and validates the credentials.
// The key prefix must match the configured environment so a live key can never
// leak into a test deployment (or the reverse).
func NewClient(ctx context.Context, cfg config.PaymentsConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	if err := validateKeyForEnv(apiKey, env); err != nil {
		return nil, err
	}

	webhookSecret := strings.TrimSpace(cfg.WebhookSecret)
	if webhookSecret == "" {
		return nil, errWebhookSecretRequired
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = baseURLs[env]
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		httpClient:    &http.Client{Timeout: timeout},
		apiKey:        apiKey,
		environment:   env,
		webhookSecret: webhookSecret,
		baseURL:       strings.TrimRight(baseURL, "/"),
		logger:        logg,
	}

	logg.Info(ctx, "payments client initialized")
	return c, nil
}

func normalizeEnv(env string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case testEnv, "":
		return testEnv, nil
	case liveEnv:
		return liveEnv, nil
	default:
		return "", errInvalidPaymentsEnv
	}
}

func validateKeyForEnv(apiKey, env string) error {
	switch env {
	case liveEnv:
		if !strings.HasPrefix(apiKey, liveKeyPrefix) {
			return fmt.Errorf("live environment requires a %q key", liveKeyPrefix)
		}
	default:
		if !strings.HasPrefix(apiKey, testKeyPrefix) {
			return fmt.Errorf("test environment requires a %q key", testKeyPrefix)
		}
	}
	return nil
}

// Environment reports the normalized processor environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret returns the webhook secret used to verify callbacks.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.webhookSecret
}

// NewIdempotencyKey returns a unique key for processor operations.
func (c *Client) NewIdempotencyKey(prefix string) string {
	key := strings.TrimSpace(prefix)
	if key == "" {
		key = "targo"
	}
	return fmt.Sprintf("%s-%s", key, uuid.NewString())
}

// CreateCharge authorizes and captures a card payment for a checkout.
func (c *Client) CreateCharge(ctx context.Context, params ChargeParams) (*Charge, error) {
	if params.IdempotencyKey == "" {
		params.IdempotencyKey = c.NewIdempotencyKey("charge")
	}
	c.log(ctx, "request", "create_charge", map[string]any{
		"order_id":     params.OrderID,
		"amount_cents": params.AmountCents,
		"currency":     params.Currency,
	})

	var charge Charge
	if err := c.do(ctx, http.MethodPost, "/v1/charges", params, &charge); err != nil {
		c.log(ctx, "error", "create_charge", map[string]any{"error": err.Error()})
		return nil, c.mapError(err, "create charge")
	}

	c.log(ctx, "response", "create_charge", map[string]any{
		"charge_id": charge.ID,
		"status":    charge.Status,
	})
	return &charge, nil
}

// RefundCharge returns funds to the buyer for a captured charge.
func (c *Client) RefundCharge(ctx context.Context, params RefundParams) (*Refund, error) {
	if params.IdempotencyKey == "" {
		params.IdempotencyKey = c.NewIdempotencyKey("refund")
	}
	c.log(ctx, "request", "refund_charge", map[string]any{
		"charge_id":    params.ChargeID,
		"amount_cents": params.AmountCents,
	})

	var refund Refund
	path := fmt.Sprintf("/v1/charges/%s/refunds", params.ChargeID)
	if err := c.do(ctx, http.MethodPost, path, params, &refund); err != nil {
		c.log(ctx, "error", "refund_charge", map[string]any{"error": err.Error()})
		return nil, c.mapError(err, "refund charge")
	}

	c.log(ctx, "response", "refund_charge", map[string]any{
		"refund_id": refund.ID,
		"status":    refund.Status,
	})
	return &refund, nil
}

// CreateTransfer initiates a bank transfer to a seller's IBAN for a withdrawal.
func (c *Client) CreateTransfer(ctx context.Context, params TransferParams) (*Transfer, error) {
	if params.IdempotencyKey == "" {
		params.IdempotencyKey = c.NewIdempotencyKey("transfer")
	}
	c.log(ctx, "request", "create_transfer", map[string]any{
		"withdrawal_id": params.WithdrawalID,
		"amount_cents":  params.AmountCents,
	})

	var transfer Transfer
	if err := c.do(ctx, http.MethodPost, "/v1/transfers", params, &transfer); err != nil {
		c.log(ctx, "error", "create_transfer", map[string]any{"error": err.Error()})
		return nil, c.mapError(err, "create transfer")
	}

	c.log(ctx, "response", "create_transfer", map[string]any{
		"transfer_id": transfer.ID,
		"status":      transfer.Status,
	})
	return &transfer, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(payload, apiErr); err != nil || apiErr.Code == "" {
			apiErr.Message = strings.TrimSpace(string(payload))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		code := domainCodeForStatus(apiErr.StatusCode)
		switch apiErr.Code {
		case "idempotency_key_reused":
			code = pkgerrors.CodeIdempotency
		case "unauthorized", "invalid_api_key":
			code = pkgerrors.CodeUnauthorized
		}
		return pkgerrors.Wrap(code, err, fmt.Sprintf("payments %s failed", op))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("payments %s failed", op))
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return pkgerrors.CodeUnauthorized
	case status == http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case status == http.StatusConflict:
		return pkgerrors.CodeConflict
	case status == http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case status >= 400 && status < 500:
		return pkgerrors.CodeValidation
	default:
		return pkgerrors.CodeDependency
	}
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("payments %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("payments %s", op))
	}
}
