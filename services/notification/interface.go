package notification

import (
	"context"
	"errors"

	"beautybook/models"
)

// ErrNoToken means the recipient never registered a device; retrying cannot help.
var ErrNoToken = errors.New("recipient has no FCM token")

// PushSender delivers a payload to the recipient's device.
type PushSender interface {
	Send(ctx context.Context, n models.NotificationPayload) error
}

// TokenSource resolves a recipient's FCM token.
type TokenSource interface {
	GetFCMToken(ctx context.Context, id string) (string, error)
}
