package services

import (
	"context"
	"errors"

	"dating-api/internal/push"
	"dating-api/internal/repository"

	"github.com/rs/zerolog/log"
)

// PushSender delivers a notification to one device or subscription
type PushSender interface {
	Send(ctx context.Context, target string, n push.Notification) error
}

// Dispatcher routes notifications to the live WebSocket of a user and falls
// back to APNs and Web Push when the user is offline. Failures are logged.
type Dispatcher struct {
	hub     *WSHub
	users   repository.UserRepository
	apns    PushSender
	webPush PushSender
}

// NewDispatcher creates a dispatcher; nil senders disable their channel
func NewDispatcher(hub *WSHub, users repository.UserRepository, apns, webPush PushSender) *Dispatcher {
	return &Dispatcher{hub: hub, users: users, apns: apns, webPush: webPush}
}

// Notify implements Notifier
func (d *Dispatcher) Notify(ctx context.Context, userID int64, n push.Notification) {
	if d.hub != nil && d.hub.IsOnline(userID) {
		err := d.hub.SendToUser(userID, WSMessage{Type: n.Type, Message: n.Body, Data: n.Data})
		if err == nil {
			return
		}
		log.Warn().Err(err).Int64("user_id", userID).Str("type", n.Type).Msg("WebSocket delivery failed, falling back to push")
	}
	if d.apns == nil && d.webPush == nil {
		return
	}

	user, err := d.users.GetByID(ctx, userID, false)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to load push targets")
		return
	}

	if d.apns != nil && user.PushToken != nil {
		if err := d.apns.Send(ctx, *user.PushToken, n); err != nil {
			d.handleFailure(ctx, userID, "apns", err)
		}
	}
	if d.webPush != nil && user.WebPushSubscription != nil {
		if err := d.webPush.Send(ctx, *user.WebPushSubscription, n); err != nil {
			d.handleFailure(ctx, userID, "webpush", err)
		}
	}
}

func (d *Dispatcher) handleFailure(ctx context.Context, userID int64, channel string, err error) {
	log.Error().Err(err).Int64("user_id", userID).Str("channel", channel).Msg("Push notification failed")
	if !errors.Is(err, push.ErrSubscriptionGone) {
		return
	}

	empty := ""
	var clearErr error
	if channel == "apns" {
		clearErr = d.users.UpdatePushTargets(ctx, userID, &empty, nil)
	} else {
		clearErr = d.users.UpdatePushTargets(ctx, userID, nil, &empty)
	}
	if clearErr != nil {
		log.Error().Err(clearErr).Int64("user_id", userID).Str("channel", channel).Msg("Failed to remove stale push target")
	}
}
