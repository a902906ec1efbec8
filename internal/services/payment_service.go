package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"syspres_app/internal/models"
)

// PaymentService applies incoming payments against a loan's pending
// installments (waterfall) or rolls the loan into a new interest-only
// cycle. All writes of one payment happen in a single transaction with
// the loan row locked, so two submissions against the same loan can
// never double-spend the same pending balance.
type PaymentService struct {
	db      *gorm.DB
	locks   *RedisCache
	audit   *ActivityLogger
	clock   Clock
	rounder models.Rounder
	logger  *zap.Logger
}

func NewPaymentService(db *gorm.DB, locks *RedisCache, audit *ActivityLogger, clock Clock, rounder models.Rounder, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		db:      db,
		locks:   locks,
		audit:   audit,
		clock:   clock,
		rounder: rounder,
		logger:  logger,
	}
}

// ApplyPaymentInput carries one payment submission from the desk
type ApplyPaymentInput struct {
	ClientID      uint
	LoanID        uint
	Amount        decimal.Decimal
	Type          models.PaymentType
	Method        models.PaymentMethod
	CashReceived  decimal.Decimal
	ReceiptFormat string
	Actor         string
}

// ApplyPayment registers a payment per the requested type. Normal
// payments waterfall across pending installments oldest-first;
// interest-only payments cover the current cycle's pending interest and
// restructure the loan into a fresh cycle.
func (s *PaymentService) ApplyPayment(ctx context.Context, in ApplyPaymentInput) (*models.Payment, error) {
	var payment *models.Payment

	err := s.withLoanLock(ctx, in.LoanID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			loan, err := lockLoan(tx, in.LoanID)
			if err != nil {
				return err
			}
			if loan.ClientID != in.ClientID {
				return fmt.Errorf("%w: loan #%d does not belong to client #%d", ErrStateConflict, in.LoanID, in.ClientID)
			}

			switch in.Type {
			case models.PaymentTypeInterestOnly:
				payment, err = s.applyInterestOnly(tx, loan, in)
			case models.PaymentTypeNormal, "":
				payment, err = s.applyWaterfall(tx, loan, in)
			default:
				err = fmt.Errorf("%w: unknown payment type %q", ErrValidation, in.Type)
			}
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, in.Actor, "created", "payment",
		fmt.Sprintf("payment #%d", payment.ID),
		fmt.Sprintf("loan #%d, paid %s, balance now %s", payment.LoanID, payment.TotalPaid.StringFixed(2), payment.Balance.StringFixed(2)))

	return payment, nil
}

// applyWaterfall is the normal mode: allocate the amount across pending
// installments in sequence order, then split capital/interest by the
// loan's original principal-to-total ratio.
func (s *PaymentService) applyWaterfall(tx *gorm.DB, loan *models.Loan, in ApplyPaymentInput) (*models.Payment, error) {
	amount := s.rounder.Round(in.Amount)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount to apply must be greater than zero", ErrValidation)
	}

	installments, err := loadInstallments(tx, loan.ID)
	if err != nil {
		return nil, err
	}
	if !hasPending(installments, s.rounder) {
		return nil, fmt.Errorf("%w: loan has no pending installments", ErrStateConflict)
	}

	now := s.clock.Now()
	details, leftover := allocateToInstallments(installments, amount, now, s.rounder)

	cash := decimal.Zero
	change := decimal.Zero
	if in.Method == models.PaymentMethodCash {
		cash = s.rounder.Round(in.CashReceived)
		if cash.LessThan(amount) {
			return nil, fmt.Errorf("%w: received %s for an amount of %s", ErrInsufficientCash, cash.StringFixed(2), amount.StringFixed(2))
		}
	} else if leftover.IsPositive() {
		// Overpaying is only meaningful for cash, where it becomes change.
		return nil, fmt.Errorf("%w: amount exceeds the loan's pending balance", ErrValidation)
	}

	totalPaid := decimal.Zero
	for i := range details {
		totalPaid = totalPaid.Add(details[i].Amount)
	}
	totalPaid = s.rounder.Round(totalPaid)
	capital, interest := splitCapitalInterest(totalPaid, loan.Principal, loan.TotalPayable, s.rounder)
	if in.Method == models.PaymentMethodCash {
		change = s.rounder.Round(cash.Sub(totalPaid))
	}

	for i := range installments {
		if err := tx.Save(&installments[i]).Error; err != nil {
			return nil, err
		}
	}

	loan.Installments = installments
	loan.RecalcBalance(s.rounder)
	if err := tx.Omit("Installments").Save(loan).Error; err != nil {
		return nil, err
	}

	payment := &models.Payment{
		ReceiptNumber:  uuid.New(),
		ClientID:       loan.ClientID,
		LoanID:         loan.ID,
		PaidAt:         now.UTC(),
		TotalPaid:      totalPaid,
		Balance:        loan.Balance,
		CapitalPaid:    capital,
		InterestPaid:   interest,
		CashReceived:   cash,
		ChangeReturned: change,
		Type:           models.PaymentTypeNormal,
		Method:         in.Method,
		ReceiptFormat:  receiptFormat(in.ReceiptFormat),
		AppliedBy:      actorOrSystem(in.Actor),
		Details:        details,
	}
	if err := tx.Create(payment).Error; err != nil {
		return nil, err
	}

	return payment, nil
}

// applyInterestOnly covers the current cycle's outstanding interest and
// restructures the loan for a new cycle. No details are emitted: the
// interest does not map to specific installments.
func (s *PaymentService) applyInterestOnly(tx *gorm.DB, loan *models.Loan, in ApplyPaymentInput) (*models.Payment, error) {
	if loan.Status == models.LoanStatusSettled {
		return nil, fmt.Errorf("%w: a settled loan cannot be restructured", ErrStateConflict)
	}

	cycleInterest, err := cyclePendingInterest(tx, loan, s.rounder)
	if err != nil {
		return nil, err
	}
	if !cycleInterest.IsPositive() {
		return nil, fmt.Errorf("%w: the current cycle's interest is already covered", ErrStateConflict)
	}

	cash := decimal.Zero
	change := decimal.Zero
	if in.Method == models.PaymentMethodCash {
		cash = s.rounder.Round(in.CashReceived)
		if cash.LessThan(cycleInterest) {
			return nil, fmt.Errorf("%w: received %s for cycle interest of %s", ErrInsufficientCash, cash.StringFixed(2), cycleInterest.StringFixed(2))
		}
		change = s.rounder.Round(cash.Sub(cycleInterest))
	}

	if err := restructureLoan(tx, loan, cycleInterest, Today(s.clock), s.rounder); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		ReceiptNumber:  uuid.New(),
		ClientID:       loan.ClientID,
		LoanID:         loan.ID,
		PaidAt:         s.clock.Now().UTC(),
		TotalPaid:      cycleInterest,
		Balance:        loan.Balance,
		CapitalPaid:    decimal.Zero,
		InterestPaid:   cycleInterest,
		CashReceived:   cash,
		ChangeReturned: change,
		Type:           models.PaymentTypeInterestOnly,
		Method:         in.Method,
		ReceiptFormat:  receiptFormat(in.ReceiptFormat),
		AppliedBy:      actorOrSystem(in.Actor),
	}
	if err := tx.Create(payment).Error; err != nil {
		return nil, err
	}

	return payment, nil
}

// ListPayments returns the payment history, newest first, optionally
// filtered by client.
func (s *PaymentService) ListPayments(ctx context.Context, clientID *uint) ([]models.Payment, error) {
	query := s.db.WithContext(ctx).
		Preload("Client").
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("number asc") }).
		Order("paid_at desc, id desc")
	if clientID != nil {
		query = query.Where("client_id = ?", *clientID)
	}

	var payments []models.Payment
	if err := query.Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// Receipt assembles the printable receipt payload for one payment.
func (s *PaymentService) Receipt(ctx context.Context, paymentID uint) (*ReceiptData, error) {
	var payment models.Payment
	err := s.db.WithContext(ctx).
		Preload("Client").
		Preload("Loan").
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("number asc") }).
		First(&payment, paymentID).Error
	if err != nil {
		return nil, err
	}

	var company models.CompanySettings
	if err := s.db.WithContext(ctx).First(&company).Error; err != nil {
		// Receipts still print with the default heading when settings
		// were never configured.
		company = models.CompanySettings{Name: "SysPres"}
	}

	return &ReceiptData{Company: company, Payment: payment}, nil
}

// ReceiptData is everything a receipt renderer needs
type ReceiptData struct {
	Company models.CompanySettings `json:"company"`
	Payment models.Payment         `json:"payment"`
}

func (s *PaymentService) withLoanLock(ctx context.Context, loanID uint, fn func() error) error {
	if s.locks == nil {
		return fn()
	}
	return s.locks.WithLoanLock(ctx, loanID, fn)
}

// --- engine helpers shared with the loan lifecycle service ---

// lockLoan reads the loan under FOR UPDATE so concurrent operations on
// the same loan serialize on the row. SQLite has no FOR UPDATE; its
// writes already serialize on a database-level lock.
func lockLoan(tx *gorm.DB, loanID uint) (*models.Loan, error) {
	query := tx
	if tx.Dialector.Name() != "sqlite" {
		query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var loan models.Loan
	if err := query.First(&loan, loanID).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

func loadInstallments(tx *gorm.DB, loanID uint) ([]models.Installment, error) {
	var installments []models.Installment
	err := tx.Where("loan_id = ?", loanID).Order("number asc").Find(&installments).Error
	return installments, err
}

func hasPending(installments []models.Installment, r models.Rounder) bool {
	for i := range installments {
		if installments[i].Outstanding(r).IsPositive() {
			return true
		}
	}
	return false
}

// allocateToInstallments walks installments in sequence order and applies
// the amount to each positive balance until the amount runs out. It
// mutates the touched installments and returns one detail per touched
// installment plus whatever could not be applied.
func allocateToInstallments(installments []models.Installment, amount decimal.Decimal, now time.Time, r models.Rounder) ([]models.PaymentDetail, decimal.Decimal) {
	var details []models.PaymentDetail
	remaining := amount

	for i := range installments {
		if !remaining.IsPositive() {
			break
		}
		inst := &installments[i]

		before := inst.Outstanding(r)
		if !before.IsPositive() {
			continue
		}

		applied := decimal.Min(remaining, before)
		inst.Paid = r.Round(inst.Paid.Add(applied))
		after := inst.Outstanding(r)

		if after.IsPositive() {
			inst.Status = models.InstallmentStatusPartial
		} else {
			inst.Status = models.InstallmentStatusPaid
			paidAt := now
			inst.PaidAt = &paidAt
		}

		label := fmt.Sprintf("balance of installment %d", inst.Number)
		if after.IsPositive() {
			label = fmt.Sprintf("advance on installment %d", inst.Number)
		}

		details = append(details, models.PaymentDetail{
			InstallmentID: inst.ID,
			Number:        inst.Number,
			Label:         label,
			Amount:        applied,
			BalanceBefore: before,
			BalanceAfter:  after,
		})

		remaining = r.Round(remaining.Sub(applied))
	}

	return details, remaining
}

// splitCapitalInterest divides a paid total proportionally by the loan's
// original principal-to-total ratio. The interest leg takes the rounding
// residue so the two always sum to the total exactly.
func splitCapitalInterest(totalPaid, principal, totalPayable decimal.Decimal, r models.Rounder) (capital, interest decimal.Decimal) {
	if !totalPayable.IsPositive() {
		return decimal.Zero, totalPaid
	}
	capital = r.Round(totalPaid.Mul(principal.Div(totalPayable)))
	interest = totalPaid.Sub(capital)
	return capital, interest
}

// cyclePendingInterest is the loan's interest amount net of interest
// already collected since the current cycle started.
func cyclePendingInterest(tx *gorm.DB, loan *models.Loan, r models.Rounder) (decimal.Decimal, error) {
	var collected decimal.Decimal
	err := tx.Model(&models.Payment{}).
		Where("loan_id = ? AND paid_at >= ?", loan.ID, loan.StartDate).
		Select("COALESCE(SUM(interest_paid), 0)").
		Scan(&collected).Error
	if err != nil {
		return decimal.Decimal{}, err
	}

	return pendingAfterCollected(loan.InterestAmount, collected, r), nil
}

// pendingAfterCollected clamps interest still owed at zero.
func pendingAfterCollected(interestAmount, collected decimal.Decimal, r models.Rounder) decimal.Decimal {
	pending := r.Round(interestAmount.Sub(collected))
	if pending.IsNegative() {
		return decimal.Zero
	}
	return pending
}

// restructureLoan rolls the loan into a new cycle: the remaining capital
// becomes the new principal, terms are recomputed, and the schedule is
// rebuilt from today. The whole previous schedule is discarded.
func restructureLoan(tx *gorm.DB, loan *models.Loan, cycleInterest decimal.Decimal, today time.Time, r models.Rounder) error {
	rollLoanIntoNewCycle(loan, cycleInterest, today, r)

	if err := tx.Where("loan_id = ?", loan.ID).Delete(&models.Installment{}).Error; err != nil {
		return err
	}
	installments := loan.BuildInstallments()
	if len(installments) > 0 {
		if err := tx.Create(&installments).Error; err != nil {
			return err
		}
	}
	loan.Installments = installments

	return tx.Omit("Installments").Save(loan).Error
}

// rollLoanIntoNewCycle is the pure half of restructuring: new principal
// is the balance net of the cycle interest being collected, and all
// terms are recomputed from it.
func rollLoanIntoNewCycle(loan *models.Loan, cycleInterest decimal.Decimal, today time.Time, r models.Rounder) {
	remainingCapital := r.Round(loan.Balance.Sub(cycleInterest))
	if remainingCapital.IsNegative() {
		remainingCapital = decimal.Zero
	}

	loan.StartDate = today
	loan.Principal = remainingCapital
	loan.ApplyTerms(models.RecomputeTerms(remainingCapital, loan.InterestRate, loan.NumPayments, r))
}

func receiptFormat(format string) string {
	if format == "80mm" {
		return "80mm"
	}
	return "A4"
}

func actorOrSystem(actor string) string {
	if actor == "" {
		return "system"
	}
	return actor
}
