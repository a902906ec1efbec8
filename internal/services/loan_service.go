package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"syspres_app/internal/models"
)

// LoanService owns the loan lifecycle: creation with a fresh schedule,
// edits while untouched, manual installment settlement, interest-only
// restructuring and deletion of settled loans.
type LoanService struct {
	db      *gorm.DB
	locks   *RedisCache
	audit   *ActivityLogger
	clock   Clock
	rounder models.Rounder
	logger  *zap.Logger
}

func NewLoanService(db *gorm.DB, locks *RedisCache, audit *ActivityLogger, clock Clock, rounder models.Rounder, logger *zap.Logger) *LoanService {
	return &LoanService{
		db:      db,
		locks:   locks,
		audit:   audit,
		clock:   clock,
		rounder: rounder,
		logger:  logger,
	}
}

// LoanInput carries the terms requested for a new or edited loan
type LoanInput struct {
	ClientID     uint
	Principal    decimal.Decimal
	InterestRate decimal.Decimal
	NumPayments  int
	Frequency    string
	StartDate    time.Time
	Notes        *string
	Actor        string
}

// CreateLoan computes the loan's terms, persists it and builds its
// installment schedule in one transaction.
func (s *LoanService) CreateLoan(ctx context.Context, in LoanInput) (*models.Loan, error) {
	frequency, err := models.ParsePaymentFrequency(in.Frequency)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	terms, err := models.ComputeLoanTerms(in.Principal, in.InterestRate, in.NumPayments, s.rounder)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	var client models.Client
	if err := s.db.WithContext(ctx).First(&client, in.ClientID).Error; err != nil {
		return nil, err
	}

	startDate := in.StartDate
	if startDate.IsZero() {
		startDate = Today(s.clock)
	}

	loan := &models.Loan{
		ClientID:     in.ClientID,
		Principal:    in.Principal,
		InterestRate: in.InterestRate,
		NumPayments:  in.NumPayments,
		Frequency:    frequency,
		StartDate:    startDate,
		Notes:        in.Notes,
	}
	loan.ApplyTerms(terms)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(loan).Error; err != nil {
			return err
		}
		installments := loan.BuildInstallments()
		return tx.Create(&installments).Error
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, in.Actor, "created", "loan",
		fmt.Sprintf("loan #%d", loan.ID),
		fmt.Sprintf("client %s, principal %s", client.Name, loan.Principal.StringFixed(2)))

	return loan, nil
}

// EditLoan replaces the loan's terms and rebuilds the whole schedule.
// Only allowed while no installment has been paid.
func (s *LoanService) EditLoan(ctx context.Context, loanID uint, in LoanInput) (*models.Loan, error) {
	frequency, err := models.ParsePaymentFrequency(in.Frequency)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	terms, err := models.ComputeLoanTerms(in.Principal, in.InterestRate, in.NumPayments, s.rounder)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	var client models.Client
	if err := s.db.WithContext(ctx).First(&client, in.ClientID).Error; err != nil {
		return nil, err
	}

	var loan *models.Loan
	err = s.withLoanLock(ctx, loanID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			loan, err = lockLoan(tx, loanID)
			if err != nil {
				return err
			}

			installments, err := loadInstallments(tx, loanID)
			if err != nil {
				return err
			}
			for i := range installments {
				if installments[i].Status == models.InstallmentStatusPaid {
					return fmt.Errorf("%w: loan has paid installments and can no longer be edited", ErrStateConflict)
				}
			}

			loan.ClientID = in.ClientID
			loan.Principal = in.Principal
			loan.InterestRate = in.InterestRate
			loan.NumPayments = in.NumPayments
			loan.Frequency = frequency
			if !in.StartDate.IsZero() {
				loan.StartDate = in.StartDate
			}
			loan.Notes = in.Notes
			loan.ApplyTerms(terms)

			if err := tx.Where("loan_id = ?", loanID).Delete(&models.Installment{}).Error; err != nil {
				return err
			}
			rebuilt := loan.BuildInstallments()
			if err := tx.Create(&rebuilt).Error; err != nil {
				return err
			}
			loan.Installments = rebuilt

			return tx.Omit("Installments").Save(loan).Error
		})
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, in.Actor, "updated", "loan",
		fmt.Sprintf("loan #%d", loan.ID),
		fmt.Sprintf("terms replaced, principal %s over %d payments", loan.Principal.StringFixed(2), loan.NumPayments))

	return loan, nil
}

// GetLoan loads one loan with its client and ordered schedule.
func (s *LoanService) GetLoan(ctx context.Context, loanID uint) (*models.Loan, error) {
	var loan models.Loan
	err := s.db.WithContext(ctx).
		Preload("Client").
		Preload("Installments", func(db *gorm.DB) *gorm.DB { return db.Order("number asc") }).
		First(&loan, loanID).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// ListLoans returns loans newest first, optionally only one client's.
func (s *LoanService) ListLoans(ctx context.Context, clientID *uint) ([]models.Loan, error) {
	query := s.db.WithContext(ctx).Preload("Client").Order("id desc")
	if clientID != nil {
		query = query.Where("client_id = ?", *clientID)
	}

	var loans []models.Loan
	if err := query.Find(&loans).Error; err != nil {
		return nil, err
	}
	return loans, nil
}

// PendingCycleInterest exposes the current cycle's uncovered interest,
// shown at the payment desk before choosing an interest-only payment.
func (s *LoanService) PendingCycleInterest(ctx context.Context, loanID uint) (decimal.Decimal, error) {
	var loan models.Loan
	if err := s.db.WithContext(ctx).First(&loan, loanID).Error; err != nil {
		return decimal.Decimal{}, err
	}
	return cyclePendingInterest(s.db.WithContext(ctx), &loan, s.rounder)
}

// SettleInstallmentManually marks one installment fully paid as a manual
// override. The loan's balance and status are recomputed, but no payment
// ledger entry is written.
func (s *LoanService) SettleInstallmentManually(ctx context.Context, loanID, installmentID uint, actor string) (*models.Loan, error) {
	var loan *models.Loan
	var number int

	err := s.withLoanLock(ctx, loanID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			loan, err = lockLoan(tx, loanID)
			if err != nil {
				return err
			}

			installments, err := loadInstallments(tx, loanID)
			if err != nil {
				return err
			}

			var target *models.Installment
			for i := range installments {
				if installments[i].ID == installmentID {
					target = &installments[i]
					break
				}
			}
			if target == nil {
				return gorm.ErrRecordNotFound
			}
			if target.Status == models.InstallmentStatusPaid {
				return fmt.Errorf("%w: installment %d is already paid", ErrStateConflict, target.Number)
			}

			now := s.clock.Now()
			target.Paid = target.Amount
			target.Status = models.InstallmentStatusPaid
			target.PaidAt = &now
			number = target.Number
			if err := tx.Save(target).Error; err != nil {
				return err
			}

			loan.Installments = installments
			loan.RecalcBalance(s.rounder)
			return tx.Omit("Installments").Save(loan).Error
		})
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, "updated", "loan",
		fmt.Sprintf("loan #%d", loan.ID),
		fmt.Sprintf("installment %d settled manually", number))

	return loan, nil
}

// RestructureInterestOnly collects the current cycle's pending interest
// as a restructuring payment and rolls the loan into a new cycle
// starting today. Rejected when the loan is settled or the cycle's
// interest is already covered.
func (s *LoanService) RestructureInterestOnly(ctx context.Context, loanID uint, actor string) (*models.Payment, error) {
	var payment *models.Payment

	err := s.withLoanLock(ctx, loanID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			loan, err := lockLoan(tx, loanID)
			if err != nil {
				return err
			}
			if loan.Status == models.LoanStatusSettled {
				return fmt.Errorf("%w: a settled loan cannot be restructured", ErrStateConflict)
			}

			cycleInterest, err := cyclePendingInterest(tx, loan, s.rounder)
			if err != nil {
				return err
			}
			if !cycleInterest.IsPositive() {
				return fmt.Errorf("%w: the current cycle's interest is already covered", ErrStateConflict)
			}

			if err := restructureLoan(tx, loan, cycleInterest, Today(s.clock), s.rounder); err != nil {
				return err
			}

			payment = &models.Payment{
				ReceiptNumber:  uuid.New(),
				ClientID:       loan.ClientID,
				LoanID:         loan.ID,
				PaidAt:         s.clock.Now().UTC(),
				TotalPaid:      cycleInterest,
				Balance:        loan.Balance,
				CapitalPaid:    decimal.Zero,
				InterestPaid:   cycleInterest,
				CashReceived:   cycleInterest,
				ChangeReturned: decimal.Zero,
				Type:           models.PaymentTypeInterestOnly,
				Method:         models.PaymentMethodRestructuring,
				AppliedBy:      actorOrSystem(actor),
			}
			return tx.Create(payment).Error
		})
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, "updated", "loan",
		fmt.Sprintf("loan #%d", payment.LoanID),
		fmt.Sprintf("restructured for interest-only payment of %s", payment.InterestPaid.StringFixed(2)))

	return payment, nil
}

// DeleteLoan removes a settled loan and every dependent row. Children
// are deleted explicitly inside the transaction instead of leaning on
// storage-level cascades.
func (s *LoanService) DeleteLoan(ctx context.Context, loanID uint, actor string) error {
	err := s.withLoanLock(ctx, loanID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			loan, err := lockLoan(tx, loanID)
			if err != nil {
				return err
			}
			if loan.Status != models.LoanStatusSettled {
				return fmt.Errorf("%w: only settled loans can be deleted", ErrStateConflict)
			}

			paymentIDs := tx.Model(&models.Payment{}).Select("id").Where("loan_id = ?", loanID)
			if err := tx.Where("payment_id IN (?)", paymentIDs).Delete(&models.PaymentDetail{}).Error; err != nil {
				return err
			}
			if err := tx.Where("loan_id = ?", loanID).Delete(&models.Payment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("loan_id = ?", loanID).Delete(&models.Installment{}).Error; err != nil {
				return err
			}
			return tx.Delete(&models.Loan{}, loanID).Error
		})
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, actor, "deleted", "loan",
		fmt.Sprintf("loan #%d", loanID), "loan and payment history removed")

	return nil
}

func (s *LoanService) withLoanLock(ctx context.Context, loanID uint, fn func() error) error {
	if s.locks == nil {
		return fn()
	}
	return s.locks.WithLoanLock(ctx, loanID, fn)
}
