package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"syspres_app/internal/services"
)

type LoanHandler struct {
	loans *services.LoanService
}

func NewLoanHandler(loans *services.LoanService) *LoanHandler {
	return &LoanHandler{loans: loans}
}

func (h *LoanHandler) ListLoans(c echo.Context) error {
	loans, err := h.loans.ListLoans(c.Request().Context(), queryUintPtr(c, "client_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loans)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	loan, err := h.loans.GetLoan(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loan)
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	input, err := bindLoanInput(c)
	if err != nil {
		return err
	}

	loan, err := h.loans.CreateLoan(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, loan)
}

func (h *LoanHandler) EditLoan(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	input, err := bindLoanInput(c)
	if err != nil {
		return err
	}

	loan, err := h.loans.EditLoan(c.Request().Context(), id, input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loan)
}

func (h *LoanHandler) DeleteLoan(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	if err := h.loans.DeleteLoan(c.Request().Context(), id, sessionUsername(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "loan deleted"})
}

// PendingInterest exposes the current cycle's uncovered interest, used
// by the desk before offering an interest-only renewal.
func (h *LoanHandler) PendingInterest(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	pending, err := h.loans.PendingCycleInterest(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"loan_id":          id,
		"pending_interest": pending,
	})
}

func (h *LoanHandler) Restructure(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	payment, err := h.loans.RestructureInterestOnly(c.Request().Context(), id, sessionUsername(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payment)
}

func (h *LoanHandler) SettleInstallment(c echo.Context) error {
	loanID, err := paramUint(c, "id")
	if err != nil {
		return err
	}
	installmentID, err := paramUint(c, "installment_id")
	if err != nil {
		return err
	}

	loan, err := h.loans.SettleInstallmentManually(c.Request().Context(), loanID, installmentID, sessionUsername(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loan)
}

func bindLoanInput(c echo.Context) (services.LoanInput, error) {
	var req loanRequest
	if err := c.Bind(&req); err != nil {
		return services.LoanInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	var startDate time.Time
	if req.StartDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.StartDate, time.Local)
		if err != nil {
			return services.LoanInput{}, fmt.Errorf("%w: start_date must be YYYY-MM-DD", services.ErrValidation)
		}
		startDate = parsed
	}

	return services.LoanInput{
		ClientID:     req.ClientID,
		Principal:    req.Principal,
		InterestRate: req.InterestRate,
		NumPayments:  req.NumPayments,
		Frequency:    req.Frequency,
		StartDate:    startDate,
		Notes:        req.Notes,
		Actor:        sessionUsername(c),
	}, nil
}
