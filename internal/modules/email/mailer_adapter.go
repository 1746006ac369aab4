package email

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"agromart.store/app/internal/mailer"
	"agromart.store/app/internal/modules/orders"
	"agromart.store/app/internal/shared/money"
)

// Notifier composes the storefront's transactional mail and hands it to a
// mailer.Service.
type Notifier struct {
	mailer           mailer.Service
	fromAddr         string
	fromName         string
	contactRecipient string
	baseURL          string
}

type NotifierCfg struct {
	FromAddr         string
	FromName         string
	ContactRecipient string
	BaseURL          string
}

func NewNotifier(m mailer.Service, cfg NotifierCfg) *Notifier {
	return &Notifier{
		mailer:           m,
		fromAddr:         cfg.FromAddr,
		fromName:         cfg.FromName,
		contactRecipient: cfg.ContactRecipient,
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// SendReceipt mails the paid order's receipt to the shipping email.
func (n *Notifier) SendReceipt(ctx context.Context, o orders.Order, lines []orders.Line) error {
	data := receiptData{
		Name:       o.FullName(),
		OrderID:    o.ID,
		Total:      money.Format(o.TotalAmount, o.Currency),
		ReceiptURL: fmt.Sprintf("%s/orders/%d/receipt", n.baseURL, o.ID),
		Address:    fmt.Sprintf("%s, %s, %s %s", o.Address, o.City, o.State, o.PinCode),
	}
	if o.GatewayPaymentRef != nil {
		data.PaymentRef = *o.GatewayPaymentRef
	}
	for _, l := range lines {
		data.Lines = append(data.Lines, receiptLine{
			Name:      l.ProductName,
			Quantity:  l.Quantity,
			UnitPrice: money.Format(l.UnitPrice, o.Currency),
			LineTotal: money.Format(l.LineTotal, o.Currency),
		})
	}

	text, html, err := render("receipt", data)
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, mailer.Email{
		From:     n.fromAddr,
		FromName: n.fromName,
		To:       []string{o.Email},
		Subject:  fmt.Sprintf("Your Agromart receipt for order #%d", o.ID),
		TextBody: text,
		HTMLBody: html,
	})
}

type ContactMessage struct {
	Name    string
	Email   string
	Phone   string
	Comment string
}

// SendContact forwards a contact-form submission to the shop inbox with
// Reply-To set to the sender.
func (n *Notifier) SendContact(ctx context.Context, m ContactMessage) error {
	text, html, err := render("contact", m)
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, mailer.Email{
		From:     n.fromAddr,
		FromName: n.fromName,
		To:       []string{n.contactRecipient},
		ReplyTo:  m.Email,
		Subject:  "Contact form: " + m.Name,
		TextBody: text,
		HTMLBody: html,
	})
}

func render(name string, data any) (string, string, error) {
	var text, html bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&text, name, data); err != nil {
		return "", "", fmt.Errorf("render %s text: %w", name, err)
	}
	if err := htmlTemplates.ExecuteTemplate(&html, name, data); err != nil {
		return "", "", fmt.Errorf("render %s html: %w", name, err)
	}
	return text.String(), html.String(), nil
}
