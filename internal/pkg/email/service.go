// internal/pkg/email/service.go
package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/estyshop/ecommerce-backend/internal/config"
	"github.com/estyshop/ecommerce-backend/internal/domain/order"
	"github.com/estyshop/ecommerce-backend/internal/pkg/money"
)

// Service sends transactional mail over SMTP. Delivery is best effort:
// callers log failures and move on, an order never fails because a
// notification did not go out.
type Service struct {
	config    *config.Config
	templates *template.Template
}

// NewService creates the mail service with its templates parsed once.
func NewService(cfg *config.Config) *Service {
	return &Service{
		config:    cfg,
		templates: template.Must(template.New("email").Parse(mailTemplates)),
	}
}

// Enabled reports whether outbound mail is configured. When false
// every send becomes a silent no-op, which keeps development and test
// environments quiet.
func (s *Service) Enabled() bool {
	return s.config.External.Email.Enabled && s.config.External.Email.SMTPHost != ""
}

type orderMailData struct {
	SiteName    string
	Customer    string
	OrderNumber string
	Amount      string
	Status      string
	Items       []orderMailItem
}

type orderMailItem struct {
	Name     string
	Size     string
	Quantity int
	Subtotal string
}

// SendOrderConfirmation mails the shopper after checkout creates their
// pending order.
func (s *Service) SendOrderConfirmation(ord *order.Order) error {
	subject := fmt.Sprintf("Order Confirmation - %s", ord.OrderNumber)
	return s.send(ord.Shipping.Email, subject, "order_confirmation", s.orderData(ord))
}

// SendPaymentReceived mails the shopper once their payment verifies.
func (s *Service) SendPaymentReceived(ord *order.Order) error {
	subject := fmt.Sprintf("Payment Received - %s", ord.OrderNumber)
	return s.send(ord.Shipping.Email, subject, "payment_received", s.orderData(ord))
}

func (s *Service) orderData(ord *order.Order) orderMailData {
	data := orderMailData{
		SiteName:    s.config.App.CompanyName,
		Customer:    ord.CustomerName(),
		OrderNumber: ord.OrderNumber,
		Amount:      money.Format(ord.Amount, ord.Currency),
		Status:      string(ord.Status),
	}
	for _, item := range ord.Items {
		data.Items = append(data.Items, orderMailItem{
			Name:     item.Name,
			Size:     item.Size,
			Quantity: item.Quantity,
			Subtotal: money.Format(item.Subtotal, ord.Currency),
		})
	}
	return data
}

func (s *Service) send(to, subject, templateName string, data interface{}) error {
	if !s.Enabled() {
		return nil
	}
	if to == "" {
		return fmt.Errorf("no recipient address")
	}

	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("failed to render %s email: %w", templateName, err)
	}

	return s.deliver(to, subject, body.String())
}
