package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"syspres_app/internal/models"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "syspres_test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

func newTestServices(t *testing.T) (*gorm.DB, *LoanService, *PaymentService) {
	t.Helper()
	db := newTestDB(t)
	clock := fixedClock{now: time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)}
	rounder := models.Rounder{Places: 0}
	log := zap.NewNop()
	loans := NewLoanService(db, nil, nil, clock, rounder, log)
	payments := NewPaymentService(db, nil, nil, clock, rounder, log)
	return db, loans, payments
}

// seedLoan creates a client with a 10000 loan at 5% over 4 weekly
// installments of 2625 (total payable 10500).
func seedLoan(t *testing.T, db *gorm.DB, loans *LoanService) *models.Loan {
	t.Helper()
	client := models.Client{Name: "Maria Perez", Document: "001-1234567-8"}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("create client: %v", err)
	}

	loan, err := loans.CreateLoan(context.Background(), LoanInput{
		ClientID:     client.ID,
		Principal:    dec("10000"),
		InterestRate: dec("5"),
		NumPayments:  4,
		Frequency:    "weekly",
		Actor:        "teller",
	})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}
	return loan
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

func TestApplyPaymentCashShortfallLeavesLoanUntouched(t *testing.T) {
	db, loans, payments := newTestServices(t)
	loan := seedLoan(t, db, loans)
	ctx := context.Background()

	_, err := payments.ApplyPayment(ctx, ApplyPaymentInput{
		ClientID:     loan.ClientID,
		LoanID:       loan.ID,
		Amount:       dec("2625"),
		Type:         models.PaymentTypeNormal,
		Method:       models.PaymentMethodCash,
		CashReceived: dec("2000"),
	})
	if !errors.Is(err, ErrInsufficientCash) {
		t.Fatalf("expected ErrInsufficientCash, got %v", err)
	}

	reloaded, err := loans.GetLoan(ctx, loan.ID)
	if err != nil {
		t.Fatalf("reload loan: %v", err)
	}
	if reloaded.Balance.String() != "10500" {
		t.Errorf("Balance = %s; want 10500", reloaded.Balance)
	}
	for _, inst := range reloaded.Installments {
		if !inst.Paid.IsZero() || inst.Status != models.InstallmentStatusPending {
			t.Errorf("installment %d: paid %s status %q; want untouched pending", inst.Number, inst.Paid, inst.Status)
		}
	}
	if n := countRows(t, db, &models.Payment{}); n != 0 {
		t.Errorf("payment rows = %d; want 0", n)
	}
}

func TestApplyPaymentTransferCannotExceedPendingBalance(t *testing.T) {
	db, loans, payments := newTestServices(t)
	loan := seedLoan(t, db, loans)
	ctx := context.Background()

	_, err := payments.ApplyPayment(ctx, ApplyPaymentInput{
		ClientID: loan.ClientID,
		LoanID:   loan.ID,
		Amount:   dec("20000"),
		Type:     models.PaymentTypeNormal,
		Method:   models.PaymentMethodTransfer,
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	reloaded, err := loans.GetLoan(ctx, loan.ID)
	if err != nil {
		t.Fatalf("reload loan: %v", err)
	}
	if reloaded.Balance.String() != "10500" {
		t.Errorf("Balance = %s; want 10500", reloaded.Balance)
	}
	if n := countRows(t, db, &models.Payment{}); n != 0 {
		t.Errorf("payment rows = %d; want 0", n)
	}
}

func TestApplyPaymentRejectsWrongClient(t *testing.T) {
	db, loans, payments := newTestServices(t)
	loan := seedLoan(t, db, loans)

	_, err := payments.ApplyPayment(context.Background(), ApplyPaymentInput{
		ClientID:     loan.ClientID + 1,
		LoanID:       loan.ID,
		Amount:       dec("2625"),
		Type:         models.PaymentTypeNormal,
		Method:       models.PaymentMethodCash,
		CashReceived: dec("2625"),
	})
	if !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict, got %v", err)
	}
}

func TestFullCashPaymentSettlesLoan(t *testing.T) {
	db, loans, payments := newTestServices(t)
	loan := seedLoan(t, db, loans)
	ctx := context.Background()

	payment, err := payments.ApplyPayment(ctx, ApplyPaymentInput{
		ClientID:     loan.ClientID,
		LoanID:       loan.ID,
		Amount:       dec("10500"),
		Type:         models.PaymentTypeNormal,
		Method:       models.PaymentMethodCash,
		CashReceived: dec("10500"),
	})
	if err != nil {
		t.Fatalf("apply payment: %v", err)
	}
	if payment.TotalPaid.String() != "10500" {
		t.Errorf("TotalPaid = %s; want 10500", payment.TotalPaid)
	}
	if payment.CapitalPaid.String() != "10000" || payment.InterestPaid.String() != "500" {
		t.Errorf("capital/interest = %s/%s; want 10000/500", payment.CapitalPaid, payment.InterestPaid)
	}
	if !payment.Balance.IsZero() {
		t.Errorf("payment balance snapshot = %s; want 0", payment.Balance)
	}
	if len(payment.Details) != 4 {
		t.Errorf("details = %d; want 4", len(payment.Details))
	}

	reloaded, err := loans.GetLoan(ctx, loan.ID)
	if err != nil {
		t.Fatalf("reload loan: %v", err)
	}
	if reloaded.Status != models.LoanStatusSettled {
		t.Errorf("Status = %q; want settled", reloaded.Status)
	}
	if !reloaded.Balance.IsZero() {
		t.Errorf("Balance = %s; want 0", reloaded.Balance)
	}

	// A settled loan cannot be rolled into an interest-only cycle.
	_, err = payments.ApplyPayment(ctx, ApplyPaymentInput{
		ClientID:     loan.ClientID,
		LoanID:       loan.ID,
		Type:         models.PaymentTypeInterestOnly,
		Method:       models.PaymentMethodCash,
		CashReceived: dec("500"),
	})
	if !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict for interest-only on settled loan, got %v", err)
	}
}

func TestDeleteLoanLifecycle(t *testing.T) {
	db, loans, payments := newTestServices(t)
	loan := seedLoan(t, db, loans)
	ctx := context.Background()

	if err := loans.DeleteLoan(ctx, loan.ID, "teller"); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict deleting an active loan, got %v", err)
	}

	_, err := payments.ApplyPayment(ctx, ApplyPaymentInput{
		ClientID:     loan.ClientID,
		LoanID:       loan.ID,
		Amount:       dec("10500"),
		Type:         models.PaymentTypeNormal,
		Method:       models.PaymentMethodCash,
		CashReceived: dec("10500"),
	})
	if err != nil {
		t.Fatalf("apply payment: %v", err)
	}

	if err := loans.DeleteLoan(ctx, loan.ID, "teller"); err != nil {
		t.Fatalf("delete settled loan: %v", err)
	}

	if n := countRows(t, db, &models.Loan{}); n != 0 {
		t.Errorf("loan rows = %d; want 0", n)
	}
	if n := countRows(t, db, &models.Installment{}); n != 0 {
		t.Errorf("installment rows = %d; want 0", n)
	}
	if n := countRows(t, db, &models.Payment{}); n != 0 {
		t.Errorf("payment rows = %d; want 0", n)
	}
	if n := countRows(t, db, &models.PaymentDetail{}); n != 0 {
		t.Errorf("payment detail rows = %d; want 0", n)
	}
}

func TestEditLoanUnknownClient(t *testing.T) {
	db, loans, _ := newTestServices(t)
	loan := seedLoan(t, db, loans)

	_, err := loans.EditLoan(context.Background(), loan.ID, LoanInput{
		ClientID:     loan.ClientID + 99,
		Principal:    dec("5000"),
		InterestRate: dec("5"),
		NumPayments:  2,
		Frequency:    "monthly",
	})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestReceiptCarriesCompanyHeading(t *testing.T) {
	db, loans, payments := newTestServices(t)
	ctx := context.Background()

	rnc := "1-31-56897-2"
	company := models.CompanySettings{Name: "Prestamos Arco Iris", Rnc: &rnc}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("create company settings: %v", err)
	}

	loan := seedLoan(t, db, loans)
	payment, err := payments.ApplyPayment(ctx, ApplyPaymentInput{
		ClientID:     loan.ClientID,
		LoanID:       loan.ID,
		Amount:       dec("2625"),
		Type:         models.PaymentTypeNormal,
		Method:       models.PaymentMethodCash,
		CashReceived: dec("2625"),
	})
	if err != nil {
		t.Fatalf("apply payment: %v", err)
	}

	receipt, err := payments.Receipt(ctx, payment.ID)
	if err != nil {
		t.Fatalf("build receipt: %v", err)
	}
	if receipt.Company.Name != "Prestamos Arco Iris" {
		t.Errorf("company name = %q", receipt.Company.Name)
	}
	if receipt.Company.Rnc == nil || *receipt.Company.Rnc != rnc {
		t.Errorf("company rnc = %v; want %s", receipt.Company.Rnc, rnc)
	}
	if receipt.Payment.ID != payment.ID {
		t.Errorf("receipt payment = %d; want %d", receipt.Payment.ID, payment.ID)
	}
	if len(receipt.Payment.Details) != 1 {
		t.Errorf("receipt details = %d; want 1", len(receipt.Payment.Details))
	}
}
