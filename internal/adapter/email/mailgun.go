// Package email sends appointment confirmations through Mailgun.
package email

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/xiaot623/healthflow/internal/domain"
)

// DefaultBaseURL is Mailgun's US API endpoint.
const DefaultBaseURL = "https://api.mailgun.net"

// ErrNotConfigured is returned when credentials are incomplete.
var ErrNotConfigured = errors.New("email service not configured")

// MailgunClient implements tools.EmailService.
type MailgunClient struct {
	client *resty.Client
	domain string
	from   string
}

// NewMailgunClient creates a Mailgun client. An empty baseURL selects DefaultBaseURL.
func NewMailgunClient(baseURL, apiKey, sendingDomain, fromEmail string) (*MailgunClient, error) {
	if apiKey == "" || sendingDomain == "" || fromEmail == "" {
		return nil, ErrNotConfigured
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimSuffix(baseURL, "/"))
	client.SetTimeout(15 * time.Second)
	client.SetBasicAuth("api", apiKey)

	return &MailgunClient{
		client: client,
		domain: sendingDomain,
		from:   fmt.Sprintf("Appointment Bot <%s>", fromEmail),
	}, nil
}

// SendConfirmation emails the patient a booking confirmation.
func (m *MailgunClient) SendConfirmation(ctx context.Context, c domain.Confirmation) error {
	resp, err := m.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"from":    m.from,
			"to":      c.To,
			"subject": "Your Appointment Confirmation",
			"html":    confirmationHTML(c),
		}).
		Post(fmt.Sprintf("/v3/%s/messages", m.domain))
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mailgun error [%d]: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return nil
}

func confirmationHTML(c domain.Confirmation) string {
	return fmt.Sprintf(`<html>
  <body>
    <h3>Appointment Confirmed!</h3>
    <p>Dear %s,</p>
    <p>This is a confirmation that your appointment with <strong>%s</strong> has been successfully booked.</p>
    <p><strong>Time:</strong> %s</p>
    <p>Thank you for using our service.</p>
  </body>
</html>`, html.EscapeString(c.PatientName), html.EscapeString(c.DoctorName), html.EscapeString(c.TimeText))
}
