package push

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// APNSConfig holds token-based APNs credentials
type APNSConfig struct {
	KeyFile    string
	KeyID      string
	TeamID     string
	Topic      string
	Production bool
}

type apnsPusher interface {
	PushWithContext(ctx apns2.Context, n *apns2.Notification) (*apns2.Response, error)
}

// APNSSender sends notifications to iOS devices
type APNSSender struct {
	client apnsPusher
	topic  string
}

// NewAPNSSender loads the .p8 signing key and creates a client
func NewAPNSSender(cfg APNSConfig) (*APNSSender, error) {
	authKey, err := token.AuthKeyFromFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs key: %w", err)
	}
	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}
	return &APNSSender{client: client, topic: cfg.Topic}, nil
}

// Send delivers n to the device token
func (s *APNSSender) Send(ctx context.Context, deviceToken string, n Notification) error {
	p := payload.NewPayload().AlertTitle(n.Title).AlertBody(n.Body).Sound("default").Custom("type", n.Type)
	for k, v := range n.Data {
		p.Custom(k, v)
	}

	res, err := s.client.PushWithContext(ctx, &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       s.topic,
		Payload:     p,
	})
	if err != nil {
		return fmt.Errorf("failed to push to APNs: %w", err)
	}
	if !res.Sent() {
		if res.StatusCode == http.StatusGone || res.Reason == apns2.ReasonBadDeviceToken || res.Reason == apns2.ReasonUnregistered {
			return fmt.Errorf("%w: %s", ErrSubscriptionGone, res.Reason)
		}
		return fmt.Errorf("APNs rejected notification: %d %s", res.StatusCode, res.Reason)
	}
	return nil
}
