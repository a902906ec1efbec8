package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentType distinguishes regular waterfall payments from interest-only
// cycle rollovers
type PaymentType string

const (
	PaymentTypeNormal       PaymentType = "normal"
	PaymentTypeInterestOnly PaymentType = "interest_only"
)

// PaymentMethod is how the money arrived
type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "cash"
	PaymentMethodTransfer      PaymentMethod = "transfer"
	PaymentMethodRestructuring PaymentMethod = "restructuring"
)

// ParsePaymentMethod validates a method value at the boundary. Empty
// defaults to cash, matching the payment desk workflow.
func ParsePaymentMethod(s string) PaymentMethod {
	switch PaymentMethod(s) {
	case PaymentMethodTransfer:
		return PaymentMethodTransfer
	case PaymentMethodRestructuring:
		return PaymentMethodRestructuring
	default:
		return PaymentMethodCash
	}
}

// Payment is one ledger entry of money applied to a loan. Payments are
// immutable once created; corrections are new entries.
type Payment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	ReceiptNumber uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"receipt_number"`

	ClientID uint `gorm:"index;not null" json:"client_id"`
	LoanID   uint `gorm:"index;not null" json:"loan_id"`

	PaidAt time.Time `json:"paid_at"`

	TotalPaid      decimal.Decimal `gorm:"type:decimal(18,2)" json:"total_paid"`
	Balance        decimal.Decimal `gorm:"type:decimal(18,2)" json:"balance"` // loan balance right after this payment
	CapitalPaid    decimal.Decimal `gorm:"type:decimal(18,2)" json:"capital_paid"`
	InterestPaid   decimal.Decimal `gorm:"type:decimal(18,2)" json:"interest_paid"`
	CashReceived   decimal.Decimal `gorm:"type:decimal(18,2)" json:"cash_received"`
	ChangeReturned decimal.Decimal `gorm:"type:decimal(18,2)" json:"change_returned"`

	Type          PaymentType   `gorm:"type:varchar(30);default:'normal'" json:"type"`
	Method        PaymentMethod `gorm:"type:varchar(20);default:'cash'" json:"method"`
	ReceiptFormat string        `gorm:"type:varchar(20);default:'A4'" json:"receipt_format"`
	AppliedBy     string        `gorm:"type:varchar(100);default:'system'" json:"applied_by"`

	// Relationships
	Client  *Client         `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Loan    *Loan           `gorm:"foreignKey:LoanID" json:"loan,omitempty"`
	Details []PaymentDetail `gorm:"foreignKey:PaymentID" json:"details,omitempty"`
}

// PaymentDetail records how much of a payment landed on one installment
type PaymentDetail struct {
	ID uint `gorm:"primarykey" json:"id"`

	PaymentID     uint `gorm:"index;not null" json:"payment_id"`
	InstallmentID uint `gorm:"not null" json:"installment_id"`
	Number        int  `json:"number"` // sequence number of the installment

	Label         string          `gorm:"type:varchar(60)" json:"label"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount"`
	BalanceBefore decimal.Decimal `gorm:"type:decimal(18,2)" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(18,2)" json:"balance_after"`

	Payment     *Payment     `gorm:"foreignKey:PaymentID" json:"payment,omitempty"`
	Installment *Installment `gorm:"foreignKey:InstallmentID" json:"installment,omitempty"`
}
