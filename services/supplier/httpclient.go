package supplier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"staygate/models"
)

// HTTPClient talks to the supplier's JSON API. It is constructed once at
// process start with an explicit lifecycle and shared by reference.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	retries int
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewHTTPClient builds the production supplier client. Timeout bounds each
// remote call; retries bounds transport-level retries for idempotent reads.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, retries int, logger *zap.Logger) *HTTPClient {
	if retries < 1 {
		retries = 1
	}
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		retries: retries,
		// Suppliers meter partner traffic; stay under 10 req/s with bursts.
		limiter: rate.NewLimiter(rate.Limit(10), 20),
		logger:  logger,
	}
}

type apiEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// post sends one JSON request. Only idempotent operations may pass
// retryable=true: a timed-out non-idempotent write has an unknown outcome
// and must be resolved through Status, never replayed blindly.
func (c *HTTPClient) post(ctx context.Context, path string, body any, retryable bool, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", path, err)
	}

	attempts := 1
	if retryable {
		attempts = c.retries
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return &TransientError{Op: path, Err: err}
		}
		lastErr = c.once(ctx, path, payload, out)
		if lastErr == nil || !IsTransient(lastErr) {
			return lastErr
		}
		c.logger.Warn("supplier call failed, retrying",
			zap.String("path", path), zap.Int("attempt", i+1), zap.Error(lastErr))
	}
	return lastErr
}

func (c *HTTPClient) once(ctx context.Context, path string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransientError{Op: path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransientError{Op: path, Err: err}
	}

	if resp.StatusCode >= 500 {
		return &TransientError{Op: path, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	if envelope.Error != nil {
		return &RejectedError{Code: envelope.Error.Code, Message: envelope.Error.Message}
	}
	if resp.StatusCode >= 400 {
		return &RejectedError{Code: fmt.Sprintf("http_%d", resp.StatusCode), Message: string(raw)}
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", path, err)
		}
	}
	return nil
}

// Search returns the supplier's rates for the stay.
func (c *HTTPClient) Search(ctx context.Context, req models.SearchRequest) ([]models.Rate, error) {
	var rates []models.Rate
	if err := c.post(ctx, "/search", req, true, &rates); err != nil {
		return nil, err
	}
	return rates, nil
}

// LockRate prebooks the rate identified by matchHash, yielding a bookHash
// and the revalidated, authoritative price.
func (c *HTTPClient) LockRate(ctx context.Context, matchHash string) (*models.LockResult, error) {
	var result models.LockResult
	body := map[string]string{"matchHash": matchHash}
	if err := c.post(ctx, "/lock", body, true, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateBookingForm opens the supplier's booking form for a locked rate. The
// correlation ID is the supplier-side idempotency key, so the call is safe to
// replay after a timeout.
func (c *HTTPClient) CreateBookingForm(ctx context.Context, correlationID, bookHash string) (*models.BookingForm, error) {
	var form models.BookingForm
	body := map[string]string{"correlationId": correlationID, "bookHash": bookHash}
	if err := c.post(ctx, "/booking/form", body, true, &form); err != nil {
		return nil, err
	}
	return &form, nil
}

// SubmitBooking attaches guests and payment and hands the booking to the
// supplier for asynchronous processing.
func (c *HTTPClient) SubmitBooking(ctx context.Context, correlationID string, guests models.GuestDetails, payment models.PaymentOption) error {
	body := map[string]any{
		"correlationId": correlationID,
		"guests":        guests,
		"payment":       payment,
	}
	return c.post(ctx, "/booking/finish", body, false, nil)
}

// Status reads the asynchronous processing state for a correlation ID.
func (c *HTTPClient) Status(ctx context.Context, correlationID string) (*models.StatusResult, error) {
	var result models.StatusResult
	body := map[string]string{"correlationId": correlationID}
	if err := c.post(ctx, "/booking/status", body, true, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CancelBooking cancels a confirmed booking.
func (c *HTTPClient) CancelBooking(ctx context.Context, correlationID, orderID string) error {
	body := map[string]string{"correlationId": correlationID, "orderId": orderID}
	return c.post(ctx, "/booking/cancel", body, false, nil)
}
