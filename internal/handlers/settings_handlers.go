package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"syspres_app/internal/models"
	"syspres_app/internal/services"
)

type SettingsHandler struct {
	db    *gorm.DB
	audit *services.ActivityLogger
}

func NewSettingsHandler(db *gorm.DB, audit *services.ActivityLogger) *SettingsHandler {
	return &SettingsHandler{db: db, audit: audit}
}

func (h *SettingsHandler) GetSettings(c echo.Context) error {
	var settings models.CompanySettings
	err := h.db.WithContext(c.Request().Context()).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.CompanySettings{Name: "SysPres"}
		err = nil
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

// UpdateSettings upserts the single settings row.
func (h *SettingsHandler) UpdateSettings(c echo.Context) error {
	var req settingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return fmt.Errorf("%w: company name is required", services.ErrValidation)
	}

	ctx := c.Request().Context()
	var settings models.CompanySettings
	err := h.db.WithContext(ctx).First(&settings).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	settings.Name = req.Name
	settings.Rnc = req.Rnc
	settings.Address = req.Address
	settings.Phone = req.Phone
	settings.City = req.City

	if err := h.db.WithContext(ctx).Save(&settings).Error; err != nil {
		return err
	}

	h.audit.Record(ctx, sessionUsername(c), "update", "settings", "", settings.Name)
	return c.JSON(http.StatusOK, settings)
}
