// internal/domain/payment/client_test.go
package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estyshop/ecommerce-backend/internal/config"
)

func clientConfig(baseURL string) *config.Config {
	cfg := &config.Config{}
	cfg.External.Paystack.SecretKey = "sk_test_abc123"
	cfg.External.Paystack.BaseURL = baseURL
	cfg.External.Paystack.Timeout = 2 * time.Second
	cfg.External.Paystack.MaxRetries = 3
	cfg.External.Paystack.RetryDelay = time.Millisecond
	return cfg
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(clientConfig(server.URL))
}

func writeEnvelope(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  true,
		"message": "ok",
		"data":    data,
	})
}

func writeAPIError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  false,
		"message": message,
	})
}

func TestInitializeTransaction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_abc123", r.Header.Get("Authorization"))

		var req InitializeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(2500), req.Amount)
		assert.Equal(t, "ada@example.com", req.Email)
		assert.Equal(t, "ref-1", req.Reference)

		writeEnvelope(w, map[string]interface{}{
			"authorization_url": "https://checkout.paystack.com/abc123",
			"access_code":       "abc123",
			"reference":         req.Reference,
		})
	})

	auth, err := client.InitializeTransaction(context.Background(), &InitializeRequest{
		Email:     "ada@example.com",
		Amount:    2500,
		Reference: "ref-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc123", auth.AuthorizationURL)
	assert.Equal(t, "abc123", auth.AccessCode)
	assert.Equal(t, "ref-1", auth.Reference)
}

func TestVerifyTransaction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/transaction/verify/ref-123", r.URL.Path)

		writeEnvelope(w, map[string]interface{}{
			"id":        42,
			"status":    "success",
			"reference": "ref-123",
			"amount":    2500,
			"currency":  "NGN",
			"customer":  map[string]interface{}{"email": "ada@example.com"},
		})
	})

	data, err := client.VerifyTransaction(context.Background(), "ref-123")
	require.NoError(t, err)
	assert.Equal(t, "success", data.Status)
	assert.Equal(t, "ref-123", data.Reference)
	assert.Equal(t, int64(2500), data.Amount)
	assert.Equal(t, "NGN", data.Currency)
	assert.Equal(t, "ada@example.com", data.Customer.Email)
}

func TestCallRetriesServerErrors(t *testing.T) {
	var hits int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			writeAPIError(w, http.StatusBadGateway, "upstream hiccup")
			return
		}
		writeEnvelope(w, map[string]interface{}{"status": "success", "amount": 2500})
	})

	_, err := client.VerifyTransaction(context.Background(), "ref-123")
	require.NoError(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestCallExhaustsRetryBudget(t *testing.T) {
	var hits int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeAPIError(w, http.StatusInternalServerError, "provider down")
	})

	_, err := client.VerifyTransaction(context.Background(), "ref-123")
	require.Error(t, err)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusInternalServerError, pe.StatusCode)
	assert.Contains(t, pe.Message, "provider down")
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestCallRateLimitDoesNotConsumeRetries(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 2 {
			w.Header().Set("Retry-After", "0")
			writeAPIError(w, http.StatusTooManyRequests, "rate limited")
			return
		}
		writeEnvelope(w, map[string]interface{}{"status": "success", "amount": 2500})
	}))
	t.Cleanup(server.Close)

	// A single-attempt budget still survives two rate limit responses.
	cfg := clientConfig(server.URL)
	cfg.External.Paystack.MaxRetries = 1
	client := NewClient(cfg)

	_, err := client.VerifyTransaction(context.Background(), "ref-123")
	require.NoError(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestCallSurfacesProviderMessage(t *testing.T) {
	var hits int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeAPIError(w, http.StatusBadRequest, "Invalid key")
	})

	_, err := client.VerifyTransaction(context.Background(), "ref-123")
	require.Error(t, err)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusBadRequest, pe.StatusCode)
	assert.Equal(t, "Invalid key", pe.Message)
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestCallRejectedEnvelopeIsNotRetried(t *testing.T) {
	var hits int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		// HTTP 200 with a false status still means rejection.
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  false,
			"message": "Invalid reference",
		})
	})

	_, err := client.VerifyTransaction(context.Background(), "ref-123")
	require.Error(t, err)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Invalid reference", pe.Message)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestBreakerFailsFastAfterConsecutiveFailures(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeAPIError(w, http.StatusServiceUnavailable, "maintenance")
	}))
	t.Cleanup(server.Close)

	cfg := clientConfig(server.URL)
	cfg.External.Paystack.MaxRetries = 1
	client := NewClient(cfg)

	for i := 0; i < 5; i++ {
		_, err := client.ListBanks(context.Background(), "nigeria")
		require.Error(t, err)
	}
	assert.EqualValues(t, 5, atomic.LoadInt32(&hits))

	// Breaker is open now: the provider is no longer consulted.
	_, err := client.ListBanks(context.Background(), "nigeria")
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.EqualValues(t, 5, atomic.LoadInt32(&hits))
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeAPIError(w, http.StatusNotFound, "Transaction reference not found")
	}))
	t.Cleanup(server.Close)

	cfg := clientConfig(server.URL)
	cfg.External.Paystack.MaxRetries = 1
	client := NewClient(cfg)

	for i := 0; i < 7; i++ {
		_, err := client.VerifyTransaction(context.Background(), "ref-missing")
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}
	assert.EqualValues(t, 7, atomic.LoadInt32(&hits))
}

func TestListBanks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bank", r.URL.Path)
		assert.Equal(t, "nigeria", r.URL.Query().Get("country"))

		writeEnvelope(w, []map[string]interface{}{
			{"id": 1, "name": "Access Bank", "code": "044", "currency": "NGN"},
			{"id": 9, "name": "Zenith Bank", "code": "057", "currency": "NGN"},
		})
	})

	banks, err := client.ListBanks(context.Background(), "nigeria")
	require.NoError(t, err)
	require.Len(t, banks, 2)
	assert.Equal(t, "Access Bank", banks[0].Name)
	assert.Equal(t, "044", banks[0].Code)
}

func TestResolveAccount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bank/resolve", r.URL.Path)
		assert.Equal(t, "0001234567", r.URL.Query().Get("account_number"))
		assert.Equal(t, "058", r.URL.Query().Get("bank_code"))

		writeEnvelope(w, map[string]interface{}{
			"account_number": "0001234567",
			"account_name":   "ADA OBI",
			"bank_id":        9,
		})
	})

	account, err := client.ResolveAccount(context.Background(), "0001234567", "058")
	require.NoError(t, err)
	assert.Equal(t, "ADA OBI", account.AccountName)
	assert.EqualValues(t, 9, account.BankID)
}

func TestCallCancelledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, nil)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.VerifyTransaction(ctx, "ref-123")
	assert.ErrorIs(t, err, context.Canceled)
}
