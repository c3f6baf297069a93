package notification

import (
	"context"
	"errors"
	"fmt"

	providerRepo "beautybook/database/repository/provider"
	userRepo "beautybook/database/repository/user"
	"beautybook/models"
	"beautybook/utils"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// MessageSender is satisfied by *messaging.Client.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMSender resolves the recipient's token from users or artists by role and pushes
// through Firebase Cloud Messaging.
type FCMSender struct {
	Messaging MessageSender
	Users     TokenSource
	Providers TokenSource
}

func NewFCMSender(client MessageSender, users, providers TokenSource) *FCMSender {
	return &FCMSender{Messaging: client, Users: users, Providers: providers}
}

func (s *FCMSender) Send(ctx context.Context, n models.NotificationPayload) error {
	source := s.Users
	if n.Role == models.RoleProvider {
		source = s.Providers
	}
	token, err := source.GetFCMToken(ctx, n.RecipientID)
	if errors.Is(err, userRepo.ErrUserNotFound) || errors.Is(err, providerRepo.ErrProviderNotFound) {
		return fmt.Errorf("%s %s: %w", n.Role, n.RecipientID, ErrNoToken)
	}
	if err != nil {
		return fmt.Errorf("could not resolve token for %s %s: %w", n.Role, n.RecipientID, err)
	}
	if token == "" {
		return fmt.Errorf("%s %s: %w", n.Role, n.RecipientID, ErrNoToken)
	}

	msg := buildMessage(token, n)
	response, err := s.Messaging.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send FCM message: %w", err)
	}
	utils.GetLogger().Debug("Push sent",
		zap.String("recipientID", n.RecipientID), zap.String("type", string(n.Type)), zap.String("messageID", response))
	return nil
}

func buildMessage(token string, n models.NotificationPayload) *messaging.Message {
	data := make(map[string]string, len(n.Data)+2)
	for k, v := range n.Data {
		data[k] = v
	}
	if _, ok := data["role"]; !ok {
		data["role"] = string(n.Role)
	}
	data["type"] = string(n.Type)

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: data,
	}
	// providers must see incoming requests promptly
	if n.Role == models.RoleProvider {
		msg.Android = &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		}
		msg.APNS = &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		}
	}
	return msg
}
