package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeLoanTerms(t *testing.T) {
	tests := []struct {
		name            string
		principal       string
		rate            string
		numPayments     int
		rounder         Rounder
		wantInterest    string
		wantTotal       string
		wantInstallment string
	}{
		{
			name:            "whole peso terms",
			principal:       "10000",
			rate:            "5",
			numPayments:     4,
			rounder:         Rounder{Places: 0},
			wantInterest:    "500",
			wantTotal:       "10500",
			wantInstallment: "2625",
		},
		{
			name:            "installment needs rounding",
			principal:       "1000",
			rate:            "10",
			numPayments:     3,
			rounder:         Rounder{Places: 2},
			wantInterest:    "100",
			wantTotal:       "1100",
			wantInstallment: "366.67",
		},
		{
			name:            "zero rate",
			principal:       "5000",
			rate:            "0",
			numPayments:     5,
			rounder:         Rounder{Places: 2},
			wantInterest:    "0",
			wantTotal:       "5000",
			wantInstallment: "1000",
		},
		{
			name:            "single payment",
			principal:       "750.50",
			rate:            "12",
			numPayments:     1,
			rounder:         Rounder{Places: 2},
			wantInterest:    "90.06",
			wantTotal:       "840.56",
			wantInstallment: "840.56",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms, err := ComputeLoanTerms(
				decimal.RequireFromString(tt.principal),
				decimal.RequireFromString(tt.rate),
				tt.numPayments,
				tt.rounder,
			)
			if err != nil {
				t.Fatalf("ComputeLoanTerms returned error: %v", err)
			}
			if got := terms.InterestAmount.String(); got != tt.wantInterest {
				t.Errorf("InterestAmount = %s; want %s", got, tt.wantInterest)
			}
			if got := terms.TotalPayable.String(); got != tt.wantTotal {
				t.Errorf("TotalPayable = %s; want %s", got, tt.wantTotal)
			}
			if got := terms.InstallmentValue.String(); got != tt.wantInstallment {
				t.Errorf("InstallmentValue = %s; want %s", got, tt.wantInstallment)
			}
		})
	}
}

func TestComputeLoanTermsValidation(t *testing.T) {
	tests := []struct {
		name        string
		principal   string
		rate        string
		numPayments int
	}{
		{name: "zero principal", principal: "0", rate: "5", numPayments: 4},
		{name: "negative principal", principal: "-100", rate: "5", numPayments: 4},
		{name: "negative rate", principal: "1000", rate: "-1", numPayments: 4},
		{name: "rate above 100", principal: "1000", rate: "101", numPayments: 4},
		{name: "zero payments", principal: "1000", rate: "5", numPayments: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeLoanTerms(
				decimal.RequireFromString(tt.principal),
				decimal.RequireFromString(tt.rate),
				tt.numPayments,
				DefaultRounder,
			)
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestRecomputeTermsZeroPrincipal(t *testing.T) {
	terms := RecomputeTerms(decimal.Zero, decimal.RequireFromString("5"), 4, DefaultRounder)
	if !terms.InterestAmount.IsZero() || !terms.TotalPayable.IsZero() || !terms.InstallmentValue.IsZero() {
		t.Errorf("zero principal should produce zero terms, got %+v", terms)
	}
}

func TestParsePaymentFrequency(t *testing.T) {
	tests := []struct {
		input   string
		want    PaymentFrequency
		wantErr bool
	}{
		{input: "daily", want: FrequencyDaily},
		{input: "weekly", want: FrequencyWeekly},
		{input: "biweekly", want: FrequencyBiweekly},
		{input: "monthly", want: FrequencyMonthly},
		{input: "", want: FrequencyMonthly},
		{input: "yearly", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("input "+tt.input, func(t *testing.T) {
			got, err := ParsePaymentFrequency(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParsePaymentFrequency(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePaymentFrequency(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePaymentFrequency(%q) = %q; want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPaymentFrequencyAddTo(t *testing.T) {
	tests := []struct {
		name      string
		frequency PaymentFrequency
		base      time.Time
		step      int
		want      time.Time
	}{
		{
			name:      "monthly keeps day of month",
			frequency: FrequencyMonthly,
			base:      date(2025, time.January, 15),
			step:      1,
			want:      date(2025, time.February, 15),
		},
		{
			name:      "monthly third step",
			frequency: FrequencyMonthly,
			base:      date(2025, time.January, 15),
			step:      3,
			want:      date(2025, time.April, 15),
		},
		{
			name:      "monthly clamps to end of february",
			frequency: FrequencyMonthly,
			base:      date(2025, time.January, 31),
			step:      1,
			want:      date(2025, time.February, 28),
		},
		{
			name:      "monthly clamp in leap year",
			frequency: FrequencyMonthly,
			base:      date(2024, time.January, 31),
			step:      1,
			want:      date(2024, time.February, 29),
		},
		{
			name:      "monthly across year boundary",
			frequency: FrequencyMonthly,
			base:      date(2025, time.November, 30),
			step:      3,
			want:      date(2026, time.February, 28),
		},
		{
			name:      "daily",
			frequency: FrequencyDaily,
			base:      date(2025, time.March, 1),
			step:      3,
			want:      date(2025, time.March, 4),
		},
		{
			name:      "weekly",
			frequency: FrequencyWeekly,
			base:      date(2025, time.March, 1),
			step:      2,
			want:      date(2025, time.March, 15),
		},
		{
			name:      "biweekly is a fixed fifteen days",
			frequency: FrequencyBiweekly,
			base:      date(2025, time.March, 1),
			step:      2,
			want:      date(2025, time.March, 31),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.frequency.AddTo(tt.base, tt.step)
			if !got.Equal(tt.want) {
				t.Errorf("AddTo(%s, %d) = %s; want %s",
					tt.base.Format("2006-01-02"), tt.step,
					got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestBuildInstallments(t *testing.T) {
	loan := Loan{
		ID:          7,
		NumPayments: 4,
		Frequency:   FrequencyMonthly,
		StartDate:   date(2025, time.January, 15),
	}
	loan.ApplyTerms(RecomputeTerms(
		decimal.RequireFromString("10000"),
		decimal.RequireFromString("5"),
		loan.NumPayments,
		Rounder{Places: 0},
	))

	installments := loan.BuildInstallments()
	if len(installments) != 4 {
		t.Fatalf("expected 4 installments, got %d", len(installments))
	}

	wantDue := []time.Time{
		date(2025, time.February, 15),
		date(2025, time.March, 15),
		date(2025, time.April, 15),
		date(2025, time.May, 15),
	}
	for i, inst := range installments {
		if inst.LoanID != loan.ID {
			t.Errorf("installment %d: LoanID = %d; want %d", i+1, inst.LoanID, loan.ID)
		}
		if inst.Number != i+1 {
			t.Errorf("installment %d: Number = %d", i+1, inst.Number)
		}
		if !inst.DueDate.Equal(wantDue[i]) {
			t.Errorf("installment %d: DueDate = %s; want %s", i+1,
				inst.DueDate.Format("2006-01-02"), wantDue[i].Format("2006-01-02"))
		}
		if inst.Amount.String() != "2625" {
			t.Errorf("installment %d: Amount = %s; want 2625", i+1, inst.Amount.String())
		}
		if inst.Status != InstallmentStatusPending {
			t.Errorf("installment %d: Status = %q; want pending", i+1, inst.Status)
		}
	}
}

func TestRecalcBalance(t *testing.T) {
	r := Rounder{Places: 2}
	amount := decimal.RequireFromString("2625")

	loan := Loan{Status: LoanStatusActive}
	loan.Installments = []Installment{
		{Amount: amount, Paid: amount, Status: InstallmentStatusPaid},
		{Amount: amount, Paid: decimal.RequireFromString("1000"), Status: InstallmentStatusPartial},
		{Amount: amount, Paid: decimal.Zero, Status: InstallmentStatusPending},
	}

	loan.RecalcBalance(r)
	if got := loan.Balance.String(); got != "4250" {
		t.Errorf("Balance = %s; want 4250", got)
	}
	if loan.Status != LoanStatusActive {
		t.Errorf("Status = %q; want active", loan.Status)
	}

	for i := range loan.Installments {
		loan.Installments[i].Paid = amount
	}
	loan.RecalcBalance(r)
	if !loan.Balance.IsZero() {
		t.Errorf("Balance = %s; want 0", loan.Balance.String())
	}
	if loan.Status != LoanStatusSettled {
		t.Errorf("Status = %q; want settled", loan.Status)
	}
}
