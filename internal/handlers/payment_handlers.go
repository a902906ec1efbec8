package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"syspres_app/internal/models"
	"syspres_app/internal/services"
)

type PaymentHandler struct {
	payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

func (h *PaymentHandler) RegisterPayment(c echo.Context) error {
	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	paymentType := models.PaymentTypeNormal
	if req.Type != "" {
		paymentType = models.PaymentType(req.Type)
	}

	payment, err := h.payments.ApplyPayment(c.Request().Context(), services.ApplyPaymentInput{
		ClientID:      req.ClientID,
		LoanID:        req.LoanID,
		Amount:        req.Amount,
		Type:          paymentType,
		Method:        models.ParsePaymentMethod(req.Method),
		CashReceived:  req.CashReceived,
		ReceiptFormat: req.ReceiptFormat,
		Actor:         sessionUsername(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, payment)
}

func (h *PaymentHandler) ListPayments(c echo.Context) error {
	payments, err := h.payments.ListPayments(c.Request().Context(), queryUintPtr(c, "client_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payments)
}

func (h *PaymentHandler) GetReceipt(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	receipt, err := h.payments.Receipt(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, receipt)
}
