// internal/domain/payment/service.go
package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/estyshop/ecommerce-backend/internal/cache"
	"github.com/estyshop/ecommerce-backend/internal/config"
	"github.com/estyshop/ecommerce-backend/internal/domain/order"
	"github.com/estyshop/ecommerce-backend/internal/pkg/email"
)

// Provider transaction states the workflow acts on. Anything else
// fails verification.
const (
	txStatusSuccess   = "success"
	txStatusAbandoned = "abandoned"
)

// Service owns the payment workflow. It never opens a database
// transaction around a provider call: state is read first, the network
// call runs on its own, then the outcome lands through the order
// service's idempotent mutators.
type Service struct {
	config *config.Config
	client *Client
	orders *order.Service
	cache  cache.Store
	email  *email.Service
}

// NewService creates a payment service.
func NewService(cfg *config.Config, client *Client, orders *order.Service, store cache.Store, mailer *email.Service) *Service {
	return &Service{
		config: cfg,
		client: client,
		orders: orders,
		cache:  store,
		email:  mailer,
	}
}

// InitializeResponse carries everything the frontend needs to hand the
// shopper to the provider's hosted checkout page.
type InitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
	OrderNumber      string `json:"order_number"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	PublicKey        string `json:"public_key,omitempty"`
}

// Initialize registers the order's charge with the provider and
// returns the hosted checkout URL. Nothing is written locally, so a
// shopper who closed the payment page can simply initialize again.
func (s *Service) Initialize(ctx context.Context, userID *uint, orderNumber string) (*InitializeResponse, error) {
	ord, err := s.orders.FindForPayment(ctx, userID, orderNumber)
	if err != nil {
		return nil, err
	}
	if ord.PaymentComplete || ord.Status != order.OrderStatusPending {
		return nil, ErrOrderNotPayable
	}

	auth, err := s.client.InitializeTransaction(ctx, &InitializeRequest{
		Email:       ord.Shipping.Email,
		Amount:      ord.Amount,
		Reference:   ord.Reference,
		Currency:    ord.Currency,
		CallbackURL: s.config.External.Paystack.CallbackURL,
	})
	if err != nil {
		return nil, err
	}

	return &InitializeResponse{
		AuthorizationURL: auth.AuthorizationURL,
		AccessCode:       auth.AccessCode,
		Reference:        ord.Reference,
		OrderNumber:      ord.OrderNumber,
		Amount:           ord.Amount,
		Currency:         ord.Currency,
		PublicKey:        s.config.External.Paystack.PublicKey,
	}, nil
}

// VerificationResult is the outcome of settling one payment reference.
type VerificationResult struct {
	Reference       string            `json:"reference"`
	OrderNumber     string            `json:"order_number"`
	Status          string            `json:"status"`
	Amount          int64             `json:"amount"`
	Currency        string            `json:"currency"`
	PaymentComplete bool              `json:"payment_complete"`
	OrderStatus     order.OrderStatus `json:"order_status"`
	VerifiedAt      time.Time         `json:"verified_at"`
}

// Verify settles one payment reference against the provider. Repeated
// calls are safe: a cached success short-circuits the provider round
// trip entirely, and the underlying order mutations are idempotent.
func (s *Service) Verify(ctx context.Context, reference string) (*VerificationResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, order.ErrOrderNotFound
	}

	key := cache.KeyVerification(reference)
	var cached VerificationResult
	if err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil {
		return &cached, nil
	}

	ord, err := s.orders.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	data, err := s.client.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}

	switch data.Status {
	case txStatusSuccess:
		// Exact integer equality. A charge for any other amount is a
		// discrepancy, not a rounding artifact.
		if data.Amount != ord.Amount {
			return nil, &AmountMismatchError{
				Reference: reference,
				Expected:  ord.Amount,
				Received:  data.Amount,
			}
		}

		updated, err := s.orders.MarkPaymentComplete(ctx, ord.ID)
		if err != nil {
			return nil, err
		}

		result := s.result(reference, txStatusSuccess, updated)
		s.notifyPaymentReceived(updated)

		if err := cache.SetJSON(ctx, s.cache, key, result, cache.TTLHot); err != nil {
			logrus.WithError(err).WithField("reference", reference).Warn("failed to cache verification result")
		}
		return result, nil

	case txStatusAbandoned:
		updated, err := s.orders.ResetToPending(ctx, ord.ID)
		if err != nil {
			return nil, err
		}
		return s.result(reference, txStatusAbandoned, updated), nil

	default:
		return nil, fmt.Errorf("%w: provider reported %q", ErrVerificationFailed, data.Status)
	}
}

// ListBanks returns the provider's bank directory for one country,
// cached for a day.
func (s *Service) ListBanks(ctx context.Context, country string) ([]Bank, error) {
	country = strings.ToLower(strings.TrimSpace(country))
	if country == "" {
		country = "nigeria"
	}

	key := cache.KeyBankList(country)
	var banks []Bank
	if err := cache.GetJSON(ctx, s.cache, key, &banks); err == nil {
		return banks, nil
	}

	fetched, err := s.client.ListBanks(ctx, country)
	if err != nil {
		return nil, err
	}

	if err := cache.SetJSON(ctx, s.cache, key, fetched, cache.TTLReference); err != nil {
		logrus.WithError(err).WithField("country", country).Warn("failed to cache bank list")
	}
	return fetched, nil
}

// ResolveAccount looks up the holder of a bank account. Results are
// not cached.
func (s *Service) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*ResolvedAccount, error) {
	accountNumber = strings.TrimSpace(accountNumber)
	bankCode = strings.TrimSpace(bankCode)
	if accountNumber == "" || bankCode == "" {
		return nil, ErrAccountDetailsRequired
	}
	return s.client.ResolveAccount(ctx, accountNumber, bankCode)
}

func (s *Service) result(reference, status string, ord *order.Order) *VerificationResult {
	return &VerificationResult{
		Reference:       reference,
		OrderNumber:     ord.OrderNumber,
		Status:          status,
		Amount:          ord.Amount,
		Currency:        ord.Currency,
		PaymentComplete: ord.PaymentComplete,
		OrderStatus:     ord.Status,
		VerifiedAt:      time.Now().UTC(),
	}
}

// notifyPaymentReceived sends the receipt mail. Failures are logged
// and swallowed, the payment is already settled.
func (s *Service) notifyPaymentReceived(ord *order.Order) {
	if s.email == nil {
		return
	}
	if err := s.email.SendPaymentReceived(ord); err != nil {
		logrus.WithError(err).WithField("order_number", ord.OrderNumber).Warn("failed to send payment received email")
	}
}
