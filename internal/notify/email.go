package notify

import (
	"context"
	"fmt"
	"strings"

	"salonbackend/internal/utils"
)

type EmailClient struct {
	baseURL   string
	from      string
	poster    poster
	RequestID string
}

func NewEmailClient(baseURL, apiKey, from string) *EmailClient {
	return &EmailClient{baseURL: strings.TrimSpace(baseURL), from: from, poster: newPoster(apiKey)}
}

type emailRequest struct {
	From       string         `json:"from"`
	To         string         `json:"to"`
	Subject    string         `json:"subject"`
	TemplateID string         `json:"template_id,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
}

// SendEmail posts a templated email to the mail provider.
func (c *EmailClient) SendEmail(ctx context.Context, to, subject, templateID string, data map[string]any) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("email recipient is empty")
	}
	if c.baseURL == "" {
		utils.LogEvent(c.RequestID, "notify", "email_mock", fmt.Sprintf("to=%s subject=%q template=%s", to, subject, templateID))
		return nil
	}
	return c.poster.postJSON(ctx, joinURL(c.baseURL, "/send"), emailRequest{
		From:       c.from,
		To:         to,
		Subject:    subject,
		TemplateID: templateID,
		Data:       data,
	})
}
