// internal/domain/payment/client.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/estyshop/ecommerce-backend/internal/config"
)

// Client talks to the Paystack REST API. Amounts cross this boundary
// in kobo, the same unit the rest of the system stores, so there is no
// conversion on either side.
type Client struct {
	config     *config.Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

// NewClient builds a Paystack client from configuration. The secret
// key is injected via config, never hardcoded.
func NewClient(cfg *config.Config) *Client {
	settings := gobreaker.Settings{
		Name:    "paystack",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A 4xx means the provider answered; only connectivity
		// problems and 5xx responses count against the breaker.
		IsSuccessful: func(err error) bool {
			var pe *ProviderError
			if errors.As(err, &pe) {
				return pe.StatusCode > 0 && pe.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
	}

	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.External.Paystack.Timeout},
		breaker:    gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

// InitializeRequest is the payload for registering a charge with the
// provider. Amount is in kobo.
type InitializeRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"`
	Reference   string `json:"reference"`
	Currency    string `json:"currency,omitempty"`
	CallbackURL string `json:"callback_url,omitempty"`
}

// Authorization is what the provider hands back for a freshly
// initialized transaction.
type Authorization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// VerifyData is the slice of the provider's verify payload the
// workflow acts on.
type VerifyData struct {
	ID              int64  `json:"id"`
	Status          string `json:"status"`
	Reference       string `json:"reference"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	GatewayResponse string `json:"gateway_response"`
	PaidAt          string `json:"paid_at"`
	Channel         string `json:"channel"`
	Customer        struct {
		Email string `json:"email"`
	} `json:"customer"`
}

// Bank is one entry of the provider's bank directory.
type Bank struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Code     string `json:"code"`
	Currency string `json:"currency"`
	Type     string `json:"type"`
	Country  string `json:"country"`
}

// ResolvedAccount is the provider's answer to an account lookup.
type ResolvedAccount struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	BankID        int64  `json:"bank_id"`
}

// InitializeTransaction registers a pending charge and returns the
// hosted checkout authorization.
func (c *Client) InitializeTransaction(ctx context.Context, req *InitializeRequest) (*Authorization, error) {
	body, err := c.call(ctx, http.MethodPost, "/transaction/initialize", req)
	if err != nil {
		return nil, err
	}

	var auth Authorization
	if err := decodeEnvelope(body, &auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

// VerifyTransaction asks the provider for the settled state of one
// reference.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*VerifyData, error) {
	body, err := c.call(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, err
	}

	var data VerifyData
	if err := decodeEnvelope(body, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ListBanks fetches the bank directory for a country.
func (c *Client) ListBanks(ctx context.Context, country string) ([]Bank, error) {
	body, err := c.call(ctx, http.MethodGet, "/bank?country="+url.QueryEscape(country), nil)
	if err != nil {
		return nil, err
	}

	var banks []Bank
	if err := decodeEnvelope(body, &banks); err != nil {
		return nil, err
	}
	return banks, nil
}

// ResolveAccount looks up the holder of a bank account.
func (c *Client) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*ResolvedAccount, error) {
	query := url.Values{}
	query.Set("account_number", accountNumber)
	query.Set("bank_code", bankCode)

	body, err := c.call(ctx, http.MethodGet, "/bank/resolve?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var account ResolvedAccount
	if err := decodeEnvelope(body, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// call runs one logical API call: circuit breaker on the outside,
// bounded retries on the inside. An open breaker fails fast instead of
// burning the whole retry budget per request.
func (c *Client) call(ctx context.Context, method, endpoint string, payload interface{}) ([]byte, error) {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.callWithRetry(ctx, method, endpoint, payload)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &ProviderError{Message: "payment provider temporarily unavailable", Err: err}
		}
		return nil, err
	}
	return body, nil
}

// callWithRetry retries failed requests with linearly growing delays.
// Rate limiting is special cased: a 429 waits out Retry-After and does
// not consume an attempt.
func (c *Client) callWithRetry(ctx context.Context, method, endpoint string, payload interface{}) ([]byte, error) {
	maxAttempts := c.config.External.Paystack.MaxRetries
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	baseDelay := c.config.External.Paystack.RetryDelay

	var lastErr error
	for attempt := 0; attempt < maxAttempts; {
		body, err := c.do(ctx, method, endpoint, payload)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		var pe *ProviderError
		if errors.As(err, &pe) && pe.StatusCode == http.StatusTooManyRequests {
			wait := pe.RetryAfter
			if wait <= 0 {
				wait = baseDelay
			}
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		attempt++
		if attempt < maxAttempts {
			if err := sleep(ctx, baseDelay*time.Duration(attempt)); err != nil {
				return nil, err
			}
		}
	}
	return nil, lastErr
}

// do performs a single HTTP exchange with the provider.
func (c *Client) do(ctx context.Context, method, endpoint string, payload interface{}) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.External.Paystack.BaseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.External.Paystack.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Message: "failed to read response", Err: err}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &ProviderError{
			StatusCode: resp.StatusCode,
			Message:    "rate limited",
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Message: apiMessage(data)}
	}
	return data, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func parseRetryAfter(header string) time.Duration {
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// apiMessage pulls the human readable message out of an error body
// without exposing the rest of the payload to callers.
func apiMessage(data []byte) string {
	var env apiEnvelope
	if err := json.Unmarshal(data, &env); err == nil && env.Message != "" {
		return env.Message
	}
	return "request rejected"
}

// decodeEnvelope unwraps the provider's {status, message, data}
// wrapper around every response.
func decodeEnvelope(body []byte, dest interface{}) error {
	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &ProviderError{Message: "malformed response", Err: err}
	}
	if !env.Status {
		return &ProviderError{Message: env.Message}
	}
	if dest == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return &ProviderError{Message: "malformed response data", Err: err}
	}
	return nil
}
