package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"syspres_app/internal/models"
	"syspres_app/internal/services"
)

type ClientHandler struct {
	db    *gorm.DB
	audit *services.ActivityLogger
}

func NewClientHandler(db *gorm.DB, audit *services.ActivityLogger) *ClientHandler {
	return &ClientHandler{db: db, audit: audit}
}

func (h *ClientHandler) ListClients(c echo.Context) error {
	query := h.db.WithContext(c.Request().Context()).Order("name asc")
	if search := c.QueryParam("q"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name ILIKE ? OR document LIKE ?", like, like)
	}

	var clients []models.Client
	if err := query.Find(&clients).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, clients)
}

func (h *ClientHandler) GetClient(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	var client models.Client
	if err := h.db.WithContext(c.Request().Context()).
		Preload("Loans", func(db *gorm.DB) *gorm.DB { return db.Order("loans.id desc") }).
		First(&client, id).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, client)
}

func (h *ClientHandler) CreateClient(c echo.Context) error {
	var req clientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	client := req.toModel()
	if err := client.Validate(); err != nil {
		return fmt.Errorf("%w: %v", services.ErrValidation, err)
	}

	ctx := c.Request().Context()
	if err := h.db.WithContext(ctx).Create(client).Error; err != nil {
		return err
	}

	h.audit.Record(ctx, sessionUsername(c), "create", "client",
		fmt.Sprintf("%d", client.ID), client.Name)
	return c.JSON(http.StatusCreated, client)
}

func (h *ClientHandler) UpdateClient(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	var req clientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	var client models.Client
	if err := h.db.WithContext(ctx).First(&client, id).Error; err != nil {
		return err
	}

	updated := req.toModel()
	updated.ID = client.ID
	updated.CreatedAt = client.CreatedAt
	if err := updated.Validate(); err != nil {
		return fmt.Errorf("%w: %v", services.ErrValidation, err)
	}

	if err := h.db.WithContext(ctx).Save(updated).Error; err != nil {
		return err
	}

	h.audit.Record(ctx, sessionUsername(c), "update", "client",
		fmt.Sprintf("%d", updated.ID), updated.Name)
	return c.JSON(http.StatusOK, updated)
}

// DeleteClient removes a client. Clients with an active loan cannot be
// deleted, the loan has to be settled or deleted first.
func (h *ClientHandler) DeleteClient(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	var client models.Client
	if err := h.db.WithContext(ctx).First(&client, id).Error; err != nil {
		return err
	}

	var activeLoans int64
	if err := h.db.WithContext(ctx).Model(&models.Loan{}).
		Where("client_id = ? AND status = ?", id, models.LoanStatusActive).
		Count(&activeLoans).Error; err != nil {
		return err
	}
	if activeLoans > 0 {
		return fmt.Errorf("%w: client has %d active loan(s)", services.ErrStateConflict, activeLoans)
	}

	if err := h.db.WithContext(ctx).Delete(&models.Client{}, id).Error; err != nil {
		return err
	}

	h.audit.Record(ctx, sessionUsername(c), "delete", "client",
		fmt.Sprintf("%d", id), client.Name)
	return c.JSON(http.StatusOK, map[string]string{"message": "client deleted"})
}

func (r *clientRequest) toModel() *models.Client {
	guarantorDoc := r.GuarantorDocument
	if guarantorDoc != nil {
		normalized := models.NormalizeDocument(*guarantorDoc)
		guarantorDoc = &normalized
	}
	return &models.Client{
		Name:              r.Name,
		Document:          models.NormalizeDocument(r.Document),
		Phone:             r.Phone,
		Email:             r.Email,
		Address:           r.Address,
		Company:           r.Company,
		Position:          r.Position,
		MonthlyIncome:     r.MonthlyIncome,
		MonthsEmployed:    r.MonthsEmployed,
		HasGuarantor:      r.HasGuarantor,
		GuarantorName:     r.GuarantorName,
		GuarantorDocument: guarantorDoc,
		GuarantorPhone:    r.GuarantorPhone,
		GuarantorAddress:  r.GuarantorAddress,
	}
}
