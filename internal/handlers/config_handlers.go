package handlers

import (
	"errors"
	"net/http"

	"cafeshift_backend/internal/services"
	"cafeshift_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ConfigHandler holds the platform settings service.
type ConfigHandler struct {
	configService services.ConfigService
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(cs services.ConfigService) *ConfigHandler {
	return &ConfigHandler{configService: cs}
}

func mapConfigError(err error) *utils.APIError {
	switch {
	case errors.Is(err, services.ErrSettingNotFound):
		return utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Platform setting not found.", err.Error())
	case errors.Is(err, services.ErrUnknownSettingKey), errors.Is(err, services.ErrInvalidSetting):
		return utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid platform setting.", err.Error())
	default:
		return utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Settings operation failed.", "Internal error")
	}
}

// GetPlatformConfig returns the effective configuration: defaults overlaid
// with stored overrides.
func (h *ConfigHandler) GetPlatformConfig(c *gin.Context) {
	cfg, err := h.configService.GetPlatformConfig()
	if err != nil {
		utils.LogError(err, "GetPlatformConfig: Error from configService.GetPlatformConfig")
		utils.RespondWithError(c, mapConfigError(err))
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// GetSettings lists the stored overrides.
func (h *ConfigHandler) GetSettings(c *gin.Context) {
	settings, err := h.configService.GetSettings()
	if err != nil {
		utils.LogError(err, "GetSettings: Error from configService.GetSettings")
		utils.RespondWithError(c, mapConfigError(err))
		return
	}
	c.JSON(http.StatusOK, settings)
}

// GetSetting returns one stored override by key.
func (h *ConfigHandler) GetSetting(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		utils.RespondValidationFailed(c, "setting key is required")
		return
	}

	setting, err := h.configService.GetSettingByKey(key)
	if err != nil {
		utils.RespondWithError(c, mapConfigError(err))
		return
	}
	c.JSON(http.StatusOK, setting)
}

// UpsertSetting creates or replaces an override.
func (h *ConfigHandler) UpsertSetting(c *gin.Context) {
	var req services.UpsertSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, "setting_key and setting_value are required")
		return
	}

	setting, err := h.configService.UpsertSetting(req)
	if err != nil {
		utils.LogError(err, "UpsertSetting: Error from configService.UpsertSetting")
		utils.RespondWithError(c, mapConfigError(err))
		return
	}
	c.JSON(http.StatusOK, setting)
}

// DeleteSetting removes an override, reverting that key to its default.
func (h *ConfigHandler) DeleteSetting(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		utils.RespondValidationFailed(c, "setting key is required")
		return
	}

	if err := h.configService.DeleteSettingByKey(key); err != nil {
		utils.LogError(err, "DeleteSetting: Error from configService.DeleteSettingByKey")
		utils.RespondWithError(c, mapConfigError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Setting deleted; default value applies"})
}
