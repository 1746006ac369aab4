package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Mailtrap sends through the Mailtrap HTTP send API.
type Mailtrap struct {
	apiURL string
	token  string
	http   *http.Client
}

func NewMailtrap(apiURL, token string) *Mailtrap {
	return &Mailtrap{apiURL: apiURL, token: token, http: &http.Client{Timeout: 10 * time.Second}}
}

type mailtrapAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type mailtrapPayload struct {
	From     mailtrapAddress   `json:"from"`
	To       []mailtrapAddress `json:"to"`
	Cc       []mailtrapAddress `json:"cc,omitempty"`
	Bcc      []mailtrapAddress `json:"bcc,omitempty"`
	Subject  string            `json:"subject"`
	Text     string            `json:"text,omitempty"`
	HTML     string            `json:"html,omitempty"`
	Category string            `json:"category,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
}

func addresses(in []string) []mailtrapAddress {
	out := make([]mailtrapAddress, 0, len(in))
	for _, a := range in {
		out = append(out, mailtrapAddress{Email: a})
	}
	return out
}

func (m *Mailtrap) Send(ctx context.Context, e Email) error {
	if m.apiURL == "" || m.token == "" {
		return fmt.Errorf("mailer: mailtrap credentials not configured")
	}
	headers := e.Headers
	if e.ReplyTo != "" {
		headers = make(map[string]string, len(e.Headers)+1)
		for k, v := range e.Headers {
			headers[k] = v
		}
		headers["Reply-To"] = e.ReplyTo
	}
	body, err := json.Marshal(mailtrapPayload{
		From:     mailtrapAddress{Email: e.From, Name: e.FromName},
		To:       addresses(e.To),
		Cc:       addresses(e.Cc),
		Bcc:      addresses(e.Bcc),
		Subject:  e.Subject,
		Text:     e.TextBody,
		HTML:     e.HTMLBody,
		Category: "Transactional",
		Headers:  headers,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.token)
	req.Header.Set("Content-Type", "application/json")

	res, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("mailtrap send: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode >= 400 {
		return fmt.Errorf("mailtrap API error: %d", res.StatusCode)
	}
	return nil
}
