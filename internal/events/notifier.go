package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// WebhookNotifier posts events to a configured webhook URL, cooldown-gated
// per camera. Grounded on internal/telegram/bot.go's enabled/cooldown
// tracked SendMessage.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client

	mu       sync.Mutex
	enabled  bool
	cooldown time.Duration
	last     map[string]time.Time
}

// NewWebhookNotifier creates a Notifier posting to url with the given
// per-camera cooldown (default 30s, matching the teacher's default).
func NewWebhookNotifier(url string, cooldown time.Duration) *WebhookNotifier {
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &WebhookNotifier{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		enabled:    true,
		cooldown:   cooldown,
		last:       make(map[string]time.Time),
	}
}

// SetEnabled enables or disables outbound notifications.
func (n *WebhookNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// Notify posts ev to the webhook URL, skipping silently if disabled or if
// the per-camera cooldown hasn't elapsed.
func (n *WebhookNotifier) Notify(ev Event) error {
	n.mu.Lock()
	if !n.enabled {
		n.mu.Unlock()
		return nil
	}
	if last, ok := n.last[ev.CameraID]; ok && time.Since(last) < n.cooldown {
		n.mu.Unlock()
		return nil
	}
	n.last[ev.CameraID] = time.Now()
	n.mu.Unlock()

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("notifier: marshal event: %w", err)
	}

	resp, err := n.httpClient.Post(n.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notifier: post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notifier: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
