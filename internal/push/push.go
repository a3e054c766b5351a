// Package push delivers notifications to offline users through APNs and Web Push.
package push

import "errors"

// Notification is the platform-neutral content of a push message
type Notification struct {
	Type  string
	Title string
	Body  string
	Data  map[string]any
}

// ErrSubscriptionGone is returned when the push service reports the target no longer exists
var ErrSubscriptionGone = errors.New("push target no longer valid")
