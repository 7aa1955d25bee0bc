package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"
)

// email request payload for ZeptoMail API
type emailRequest struct {
	From     emailAddress  `json:"from"`
	To       []toRecipient `json:"to"`
	Subject  string        `json:"subject"`
	HtmlBody string        `json:"htmlbody"`
}

type emailAddress struct {
	Address string `json:"address"`
}

type toRecipient struct {
	Email emailWithName `json:"email_address"`
}

type emailWithName struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// Mailer sends HTML email through the ZeptoMail HTTP API.
type Mailer struct {
	apiURL string
	apiKey string
	from   string
	client *http.Client
	logger *slog.Logger
}

func NewMailer(apiURL, apiKey, from string, logger *slog.Logger) *Mailer {
	return &Mailer{
		apiURL: apiURL,
		apiKey: apiKey,
		from:   from,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

// Enabled reports whether the mailer has enough config to send anything.
func (m *Mailer) Enabled() bool {
	return m != nil && m.apiURL != "" && m.apiKey != "" && m.from != ""
}

func (m *Mailer) SendEmail(ctx context.Context, to, toName, subject, body string) error {
	if !m.Enabled() {
		return fmt.Errorf("missing required email config")
	}

	payload := emailRequest{
		From: emailAddress{Address: m.from},
		To: []toRecipient{
			{Email: emailWithName{Address: to, Name: toName}},
		},
		Subject:  subject,
		HtmlBody: body,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("zeptomail API error: %s", resp.Status)
	}

	m.logger.Info("email sent", "to", to, "subject", subject)
	return nil
}

var reminderTmpl = template.Must(template.New("reminder").Parse(
	`<p>Hello {{.Name}},</p>` +
		`<p>Your {{.Period}} contribution of ₹{{printf "%.2f" .Amount}} towards {{.DonationType}} was due on {{.Due}}.</p>` +
		`<p>Thank you for your continued support.</p>`))

type ReminderData struct {
	Name         string
	Period       string
	Amount       float64
	DonationType string
	Due          string
}

// ReminderBody renders the subscription reminder email. Values are HTML-escaped.
func ReminderBody(d ReminderData) (string, error) {
	var buf bytes.Buffer
	if err := reminderTmpl.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}
