package alert

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// EventRecipeDetected is the only event the webhook emits.
const EventRecipeDetected = "recipe.detected"

// WebhookEvent is the JSON body posted to a webhook endpoint.
type WebhookEvent struct {
	Event   string        `json:"event"`
	SentAt  time.Time     `json:"sent_at"`
	Capture *Notification `json:"capture"`
}

// Webhook posts detected recipes to a generic HTTP endpoint. When a secret
// is set the body is signed with HMAC-SHA256 in X-Signature-256.
type Webhook struct {
	client *http.Client
	url    string
	secret string
	now    func() time.Time
}

// NewWebhook creates a new generic webhook notifier.
func NewWebhook(url, secret string) *Webhook {
	return &Webhook{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
		secret: secret,
		now:    time.Now,
	}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Send(ctx context.Context, n *Notification) error {
	body, err := json.Marshal(WebhookEvent{
		Event:   EventRecipeDetected,
		SentAt:  w.now().UTC(),
		Capture: n,
	})
	if err != nil {
		return fmt.Errorf("marshal webhook event %s: %w", n.CaptureID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "reciperadar/1.0")
	req.Header.Set("X-Reciperadar-Event", EventRecipeDetected)
	req.Header.Set("X-Reciperadar-Capture", n.CaptureID)
	if w.secret != "" {
		req.Header.Set("X-Signature-256", "sha256="+sign(w.secret, body))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook %s: %w", n.CaptureID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s status %d", n.CaptureID, resp.StatusCode)
	}
	return nil
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
