package handlers

import (
	"errors"
	"net/http"
	"strings"

	providerRepo "beautybook/database/repository/provider"
	userRepo "beautybook/database/repository/user"
	"beautybook/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DeviceHandler registers push tokens so booking notifications reach the caller's device.
type DeviceHandler struct {
	Users     userRepo.UserRepository
	Providers providerRepo.ProviderRepository
}

func NewDeviceHandler(users userRepo.UserRepository, providers providerRepo.ProviderRepository) *DeviceHandler {
	return &DeviceHandler{Users: users, Providers: providers}
}

type fcmTokenBody struct {
	Token string `json:"token" binding:"required"`
}

// UpdateFCMTokenHandler stores the token on the users or artists record of the caller.
func (h *DeviceHandler) UpdateFCMTokenHandler(c *gin.Context) {
	logger := getLogger(c)
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var body fcmTokenBody
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Token) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}
	token := strings.TrimSpace(body.Token)

	var err error
	if actor.Role == models.RoleProvider {
		err = h.Providers.UpdateFCMToken(c.Request.Context(), actor.ID, token)
	} else {
		err = h.Users.UpdateFCMToken(c.Request.Context(), actor.ID, token)
	}
	switch {
	case errors.Is(err, providerRepo.ErrProviderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Provider not found"})
		return
	case err != nil:
		logger.Error("Failed to update FCM token", zap.String("id", actor.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update FCM token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "FCM token updated"})
}
