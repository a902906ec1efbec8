package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentStatus tracks how much of an installment has been covered
type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "pending"
	InstallmentStatusPartial InstallmentStatus = "partial"
	InstallmentStatusPaid    InstallmentStatus = "paid"
)

// Installment is one scheduled repayment unit of a loan
type Installment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	LoanID  uint      `gorm:"index;not null" json:"loan_id"`
	Number  int       `json:"number"` // 1..N, unique per loan
	DueDate time.Time `json:"due_date"`

	Amount decimal.Decimal   `gorm:"type:decimal(18,2)" json:"amount"`
	Paid   decimal.Decimal   `gorm:"type:decimal(18,2)" json:"paid"`
	Status InstallmentStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	PaidAt *time.Time        `json:"paid_at,omitempty"` // set only when fully paid

	Loan *Loan `gorm:"foreignKey:LoanID" json:"loan,omitempty"`
}

// Outstanding returns the installment's remaining balance, never negative.
func (i *Installment) Outstanding(r Rounder) decimal.Decimal {
	rem := r.Round(i.Amount.Sub(i.Paid))
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}
