package push

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// WebPushConfig holds the VAPID identity of the server
type WebPushConfig struct {
	Subscriber      string
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	TTL             int
}

// WebPushSender sends notifications to browser push subscriptions
type WebPushSender struct {
	cfg        WebPushConfig
	httpClient webpush.HTTPClient
}

// NewWebPushSender creates a sender using the default HTTP client
func NewWebPushSender(cfg WebPushConfig) *WebPushSender {
	if cfg.TTL == 0 {
		cfg.TTL = 30
	}
	return &WebPushSender{cfg: cfg, httpClient: http.DefaultClient}
}

// Send delivers n to the subscription given as its JSON representation
func (s *WebPushSender) Send(ctx context.Context, subscriptionJSON string, n Notification) error {
	var sub webpush.Subscription
	if err := json.Unmarshal([]byte(subscriptionJSON), &sub); err != nil {
		return fmt.Errorf("invalid push subscription: %w", err)
	}

	body, err := json.Marshal(map[string]any{
		"type":  n.Type,
		"title": n.Title,
		"body":  n.Body,
		"data":  n.Data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, body, &sub, &webpush.Options{
		HTTPClient:      s.httpClient,
		Subscriber:      s.cfg.Subscriber,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		TTL:             s.cfg.TTL,
	})
	if err != nil {
		return fmt.Errorf("failed to send web push: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", ErrSubscriptionGone, resp.StatusCode)
	case resp.StatusCode >= 300:
		return fmt.Errorf("push service rejected notification: status %d", resp.StatusCode)
	}
	return nil
}
