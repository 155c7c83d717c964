package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/splitfair/splitfair/internal/models"
	"github.com/splitfair/splitfair/internal/service"
)

const graphAPIVersion = "v17.0"

// WhatsAppNotifier sends the digest as a text message through the Meta
// WhatsApp Business API.
type WhatsAppNotifier struct {
	accessToken string
	recipient   string
	endpoint    string
	httpClient  *http.Client
}

// NewWhatsAppNotifier creates a notifier posting to the Graph API messages
// endpoint for the given business phone number.
func NewWhatsAppNotifier(accessToken, phoneNumberID, recipient string) *WhatsAppNotifier {
	return &WhatsAppNotifier{
		accessToken: accessToken,
		recipient:   recipient,
		endpoint:    fmt.Sprintf("https://graph.facebook.com/%s/%s/messages", graphAPIVersion, phoneNumberID),
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Name implements Notifier.
func (n *WhatsAppNotifier) Name() string { return "whatsapp" }

// SendSummary delivers the plain-text digest to the configured recipient
// number.
func (n *WhatsAppNotifier) SendSummary(ctx context.Context, user *models.User, summary *service.Summary) error {
	return n.sendText(ctx, n.recipient, FormatSummaryText(summary, time.Now()))
}

func (n *WhatsAppNotifier) sendText(ctx context.Context, to, text string) error {
	payload, err := json.Marshal(map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": text},
	})
	if err != nil {
		return fmt.Errorf("failed to encode WhatsApp message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build WhatsApp request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call WhatsApp API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("WhatsApp API returned %d: %s", resp.StatusCode, body)
	}
	return nil
}
