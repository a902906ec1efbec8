package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"syspres_app/internal/services"
)

type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) Dashboard(c echo.Context) error {
	summary, err := h.reports.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *ReportHandler) ClientSummary(c echo.Context) error {
	rows, err := h.reports.ClientSummary(c.Request().Context(), queryUintPtr(c, "client_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}
