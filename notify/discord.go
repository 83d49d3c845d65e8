// Package notify sends fire-and-forget operator notifications to a
// Discord webhook. Delivery failure is never fatal: callers log and
// move on.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Notifier is the outbound message channel the engine talks to.
type Notifier interface {
	Send(text string) error
}

// Discord posts plain-content messages to a webhook URL. A zero URL
// disables sending entirely.
type Discord struct {
	webhookURL string
	client     *http.Client
}

// NewDiscord creates a notifier with a short request timeout so a slow
// webhook can never stall the trading tick.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

func (d *Discord) Send(text string) error {
	if d.webhookURL == "" {
		return nil
	}
	payload, err := json.Marshal(map[string]string{"content": text})
	if err != nil {
		return err
	}
	resp, err := d.client.Post(d.webhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("discord returned status %d", resp.StatusCode)
	}
	return nil
}

// Nop discards every message; used where no webhook is configured.
type Nop struct{}

func (Nop) Send(string) error { return nil }
