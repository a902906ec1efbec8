package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"syspres_app/internal/services"
)

// loginRequest is the credentials payload for POST /auth/login
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// clientRequest is the payload for creating or updating a client
type clientRequest struct {
	Name     string  `json:"name"`
	Document string  `json:"document"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	Address  *string `json:"address"`

	Company        *string          `json:"company"`
	Position       *string          `json:"position"`
	MonthlyIncome  *decimal.Decimal `json:"monthly_income"`
	MonthsEmployed *int             `json:"months_employed"`

	HasGuarantor      bool    `json:"has_guarantor"`
	GuarantorName     *string `json:"guarantor_name"`
	GuarantorDocument *string `json:"guarantor_document"`
	GuarantorPhone    *string `json:"guarantor_phone"`
	GuarantorAddress  *string `json:"guarantor_address"`
}

// loanRequest is the payload for creating or updating a loan
type loanRequest struct {
	ClientID     uint            `json:"client_id"`
	Principal    decimal.Decimal `json:"principal"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	NumPayments  int             `json:"num_payments"`
	Frequency    string          `json:"frequency"`
	StartDate    string          `json:"start_date"` // YYYY-MM-DD, defaults to today
	Notes        *string         `json:"notes"`
}

// paymentRequest is the payload for registering a payment
type paymentRequest struct {
	ClientID      uint            `json:"client_id"`
	LoanID        uint            `json:"loan_id"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`   // normal | interest_only
	Method        string          `json:"method"` // cash | transfer
	CashReceived  decimal.Decimal `json:"cash_received"`
	ReceiptFormat string          `json:"receipt_format"` // A4 | 80mm
}

// settingsRequest is the payload for updating company settings
type settingsRequest struct {
	Name    string  `json:"name"`
	Rnc     *string `json:"rnc"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	City    *string `json:"city"`
}

// paramUint parses a numeric path parameter.
func paramUint(c echo.Context, name string) (uint, error) {
	val, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(400, "invalid "+name)
	}
	return uint(val), nil
}

// queryUintPtr parses an optional numeric query parameter.
func queryUintPtr(c echo.Context, name string) *uint {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	val, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil
	}
	id := uint(val)
	return &id
}

// sessionUsername returns the operator behind the request, for audit
// attribution.
func sessionUsername(c echo.Context) string {
	if session, ok := c.Get("session").(*services.Session); ok {
		return session.Username
	}
	return ""
}
