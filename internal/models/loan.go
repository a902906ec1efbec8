package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus represents the lifecycle state of a loan
type LoanStatus string

const (
	LoanStatusActive  LoanStatus = "active"
	LoanStatusSettled LoanStatus = "settled"
)

// PaymentFrequency represents how often installments come due
type PaymentFrequency string

const (
	FrequencyDaily    PaymentFrequency = "daily"
	FrequencyWeekly   PaymentFrequency = "weekly"
	FrequencyBiweekly PaymentFrequency = "biweekly"
	FrequencyMonthly  PaymentFrequency = "monthly"
)

// ParsePaymentFrequency validates a frequency value at the boundary.
func ParsePaymentFrequency(s string) (PaymentFrequency, error) {
	switch PaymentFrequency(s) {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return PaymentFrequency(s), nil
	case "":
		return FrequencyMonthly, nil
	}
	return "", fmt.Errorf("unknown payment frequency %q", s)
}

// AddTo returns the due date for the step-th period after base.
// Biweekly is a fixed 15-day period; monthly clamps to the last day of
// shorter months (Jan 31 + 1 month = Feb 28).
func (f PaymentFrequency) AddTo(base time.Time, step int) time.Time {
	switch f {
	case FrequencyDaily:
		return base.AddDate(0, 0, step)
	case FrequencyWeekly:
		return base.AddDate(0, 0, 7*step)
	case FrequencyBiweekly:
		return base.AddDate(0, 0, 15*step)
	default:
		return addMonthsClamped(base, step)
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, 0, 0, 0, 0, t.Location())
}

// Loan represents a client loan with its amortized terms
type Loan struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ClientID uint `gorm:"index;not null" json:"client_id"`

	Principal    decimal.Decimal  `gorm:"type:decimal(18,2)" json:"principal"`
	InterestRate decimal.Decimal  `gorm:"type:decimal(5,2)" json:"interest_rate"` // percent, 0-100
	NumPayments  int              `json:"num_payments"`
	Frequency    PaymentFrequency `gorm:"type:varchar(20);default:'monthly'" json:"frequency"`
	StartDate    time.Time        `json:"start_date"`

	InterestAmount   decimal.Decimal `gorm:"type:decimal(18,2)" json:"interest_amount"`
	TotalPayable     decimal.Decimal `gorm:"type:decimal(18,2)" json:"total_payable"`
	InstallmentValue decimal.Decimal `gorm:"type:decimal(18,2)" json:"installment_value"`
	Balance          decimal.Decimal `gorm:"type:decimal(18,2)" json:"balance"`

	Status LoanStatus `gorm:"type:varchar(30);default:'active'" json:"status"`
	Notes  *string    `gorm:"type:varchar(250)" json:"notes,omitempty"`

	// Relationships
	Client       *Client       `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Installments []Installment `gorm:"foreignKey:LoanID" json:"installments,omitempty"`
}

// LoanTerms is the output of the amortization calculator
type LoanTerms struct {
	InterestAmount   decimal.Decimal
	TotalPayable     decimal.Decimal
	InstallmentValue decimal.Decimal
}

// ComputeLoanTerms amortizes a loan with a flat rate on principal:
// interest = principal * rate/100, total = principal + interest,
// installment = total / numPayments. Every step goes through the rounder.
func ComputeLoanTerms(principal, rate decimal.Decimal, numPayments int, r Rounder) (LoanTerms, error) {
	if !principal.IsPositive() {
		return LoanTerms{}, fmt.Errorf("principal must be greater than zero")
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return LoanTerms{}, fmt.Errorf("interest rate must be between 0 and 100")
	}
	if numPayments < 1 {
		return LoanTerms{}, fmt.Errorf("number of payments must be at least 1")
	}

	return RecomputeTerms(principal, rate, numPayments, r), nil
}

// RecomputeTerms amortizes without input validation. Restructuring uses
// it directly: a rolled-over loan may legitimately end up with zero
// remaining capital.
func RecomputeTerms(principal, rate decimal.Decimal, numPayments int, r Rounder) LoanTerms {
	interest := r.Round(principal.Mul(rate.Div(decimal.NewFromInt(100))))
	total := r.Round(principal.Add(interest))
	installment := decimal.Zero
	if numPayments > 0 {
		installment = r.Round(total.Div(decimal.NewFromInt(int64(numPayments))))
	}

	return LoanTerms{
		InterestAmount:   interest,
		TotalPayable:     total,
		InstallmentValue: installment,
	}
}

// ApplyTerms writes freshly computed terms onto the loan and resets its
// balance to the full total payable.
func (l *Loan) ApplyTerms(t LoanTerms) {
	l.InterestAmount = t.InterestAmount
	l.TotalPayable = t.TotalPayable
	l.InstallmentValue = t.InstallmentValue
	l.Balance = t.TotalPayable
	if l.Balance.IsPositive() {
		l.Status = LoanStatusActive
	} else {
		l.Status = LoanStatusSettled
	}
}

// BuildInstallments generates the schedule for the loan's current terms.
// Pure function of the loan: callers discard any previous schedule and
// persist the result whenever terms change.
func (l *Loan) BuildInstallments() []Installment {
	installments := make([]Installment, 0, l.NumPayments)
	for i := 1; i <= l.NumPayments; i++ {
		installments = append(installments, Installment{
			LoanID:  l.ID,
			Number:  i,
			DueDate: l.Frequency.AddTo(l.StartDate, i),
			Amount:  l.InstallmentValue,
			Paid:    decimal.Zero,
			Status:  InstallmentStatusPending,
		})
	}
	return installments
}

// RecalcBalance recomputes the loan balance from its installments and
// flips the status to settled once nothing is outstanding.
func (l *Loan) RecalcBalance(r Rounder) {
	sum := decimal.Zero
	for i := range l.Installments {
		sum = sum.Add(l.Installments[i].Outstanding(r))
	}
	l.Balance = r.Round(sum)
	if l.Balance.IsPositive() {
		l.Status = LoanStatusActive
	} else {
		l.Status = LoanStatusSettled
	}
}
