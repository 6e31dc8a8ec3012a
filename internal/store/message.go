package store

import (
	"fmt"
	"strings"

	"github.com/fjod/flore/internal/domain"
	"github.com/fjod/flore/internal/whatsapp"
	"github.com/shopspring/decimal"
)

// BuildOrderSummary returns ErrEmptyCart instead of an empty summary.
func (s *CartStore) BuildOrderSummary() (domain.OrderSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.lines) == 0 {
		return domain.OrderSummary{}, ErrEmptyCart
	}

	return domain.OrderSummary{
		Lines:     append([]domain.CartLine(nil), s.lines...),
		Total:     s.totalLocked(),
		ItemCount: s.countLocked(),
	}, nil
}

// BuildCheckoutMessage renders the order text sent to the shop and, when
// d.ContactNumber is set, the deep-link carrying it. It does not touch storage.
func (s *CartStore) BuildCheckoutMessage(d domain.CheckoutDetails) (domain.CheckoutMessage, error) {
	if err := validateDetails(d); err != nil {
		return domain.CheckoutMessage{}, err
	}

	s.mu.Lock()
	lines := append([]domain.CartLine(nil), s.lines...)
	total := s.totalLocked()
	shopName := s.shopName
	s.mu.Unlock()

	return buildMessage(shopName, lines, total, d), nil
}

// PrepareCheckout builds the summary and the message from one read of the
// cart, so both describe exactly the same lines.
func (s *CartStore) PrepareCheckout(d domain.CheckoutDetails) (domain.OrderSummary, domain.CheckoutMessage, error) {
	s.mu.Lock()
	if len(s.lines) == 0 {
		s.mu.Unlock()
		return domain.OrderSummary{}, domain.CheckoutMessage{}, ErrEmptyCart
	}
	summary := domain.OrderSummary{
		Lines:     append([]domain.CartLine(nil), s.lines...),
		Total:     s.totalLocked(),
		ItemCount: s.countLocked(),
	}
	shopName := s.shopName
	s.mu.Unlock()

	if err := validateDetails(d); err != nil {
		return domain.OrderSummary{}, domain.CheckoutMessage{}, err
	}
	return summary, buildMessage(shopName, summary.Lines, summary.Total, d), nil
}

func validateDetails(d domain.CheckoutDetails) error {
	if strings.TrimSpace(d.CustomerName) == "" {
		return ErrMissingCustomerName
	}
	if strings.TrimSpace(d.CustomerPhone) == "" {
		return ErrMissingCustomerPhone
	}
	return nil
}

func buildMessage(shopName string, lines []domain.CartLine, total decimal.Decimal, d domain.CheckoutDetails) domain.CheckoutMessage {
	text := renderMessage(shopName, lines, total, d)
	return domain.CheckoutMessage{
		Text: text,
		Link: whatsapp.Link(d.ContactNumber, text),
	}
}

func renderMessage(shopName string, lines []domain.CartLine, total decimal.Decimal, d domain.CheckoutDetails) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*Novo pedido - %s*\n\n", shopName)
	for _, l := range lines {
		fmt.Fprintf(&b, "%dx %s - %s\n", l.Quantity, l.Name, FormatPrice(l.Subtotal()))
	}
	fmt.Fprintf(&b, "\n*Total: %s*\n\n", FormatPrice(total))

	writeField(&b, "Cliente", d.CustomerName)
	writeField(&b, "Telefone", d.CustomerPhone)
	writeField(&b, "E-mail", d.CustomerEmail)
	writeField(&b, "Endereço de entrega", d.DeliveryAddress)
	writeField(&b, "Horário de entrega", d.DeliveryTime)
	writeField(&b, "Forma de pagamento", d.PaymentMethod)
	writeField(&b, "Observações", d.Notes)

	return strings.TrimRight(b.String(), "\n")
}

func writeField(b *strings.Builder, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	fmt.Fprintf(b, "*%s:* %s\n", label, value)
}

// FormatPrice renders an amount the way the storefront shows it: "R$ 269.70".
func FormatPrice(amount decimal.Decimal) string {
	return "R$ " + amount.StringFixed(2)
}
