package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"syspres_app/internal/models"
)

// ReportService aggregates portfolio numbers for the dashboard and the
// per-client summary report.
type ReportService struct {
	db      *gorm.DB
	cache   *RedisCache
	audit   *ActivityLogger
	clock   Clock
	rounder models.Rounder
}

func NewReportService(db *gorm.DB, cache *RedisCache, audit *ActivityLogger, clock Clock, rounder models.Rounder) *ReportService {
	return &ReportService{db: db, cache: cache, audit: audit, clock: clock, rounder: rounder}
}

// DashboardSummary is the landing-page portfolio overview
type DashboardSummary struct {
	ActiveLoans       int                  `json:"active_loans"`
	LoansInArrears    int                  `json:"loans_in_arrears"`
	OverdueTotal      decimal.Decimal      `json:"overdue_total"`
	CapitalLent       decimal.Decimal      `json:"capital_lent"`
	GlobalReceivable  decimal.Decimal      `json:"global_receivable"`
	InterestCollected decimal.Decimal      `json:"interest_collected"`
	RecentActivity    []models.ActivityLog `json:"recent_activity"`
}

// Dashboard builds the portfolio overview, cached briefly since it scans
// the whole book.
func (s *ReportService) Dashboard(ctx context.Context) (DashboardSummary, error) {
	if s.cache == nil {
		return s.buildDashboard(ctx)
	}
	return GetOrSet(s.cache, ctx, "dashboard:summary", 30*time.Second, func() (DashboardSummary, error) {
		return s.buildDashboard(ctx)
	})
}

func (s *ReportService) buildDashboard(ctx context.Context) (DashboardSummary, error) {
	var summary DashboardSummary

	var activeLoans []models.Loan
	err := s.db.WithContext(ctx).
		Where("status = ?", models.LoanStatusActive).
		Find(&activeLoans).Error
	if err != nil {
		return summary, err
	}

	summary.ActiveLoans = len(activeLoans)
	summary.CapitalLent = decimal.Zero
	summary.GlobalReceivable = decimal.Zero
	for i := range activeLoans {
		summary.CapitalLent = summary.CapitalLent.Add(activeLoans[i].Principal)
		summary.GlobalReceivable = summary.GlobalReceivable.Add(activeLoans[i].Balance)
	}

	today := Today(s.clock)
	var overdue []models.Installment
	err = s.db.WithContext(ctx).
		Where("status <> ? AND due_date < ?", models.InstallmentStatusPaid, today).
		Find(&overdue).Error
	if err != nil {
		return summary, err
	}

	inArrears := make(map[uint]struct{})
	summary.OverdueTotal = decimal.Zero
	for i := range overdue {
		inArrears[overdue[i].LoanID] = struct{}{}
		summary.OverdueTotal = summary.OverdueTotal.Add(overdue[i].Outstanding(s.rounder))
	}
	summary.LoansInArrears = len(inArrears)
	summary.OverdueTotal = s.rounder.Round(summary.OverdueTotal)

	var interestCollected decimal.Decimal
	err = s.db.WithContext(ctx).Model(&models.Payment{}).
		Select("COALESCE(SUM(interest_paid), 0)").
		Scan(&interestCollected).Error
	if err != nil {
		return summary, err
	}
	summary.InterestCollected = s.rounder.Round(interestCollected)

	summary.RecentActivity, err = s.audit.Recent(ctx, 10)
	if err != nil {
		return summary, err
	}

	return summary, nil
}

// ClientSummaryRow aggregates one client's lending history
type ClientSummaryRow struct {
	ClientID             uint            `json:"client_id"`
	Name                 string          `json:"name"`
	Document             string          `json:"document"`
	Loans                int             `json:"loans"`
	CapitalLent          decimal.Decimal `json:"capital_lent"`
	InterestGenerated    decimal.Decimal `json:"interest_generated"`
	InterestCollected    decimal.Decimal `json:"interest_collected"`
	InterestOnlyPayments int             `json:"interest_only_payments"`
	TotalPayable         decimal.Decimal `json:"total_payable"`
}

// ClientSummary builds the per-client report, for all clients or one.
func (s *ReportService) ClientSummary(ctx context.Context, clientID *uint) ([]ClientSummaryRow, error) {
	clientQuery := s.db.WithContext(ctx).Preload("Loans").Order("name asc")
	if clientID != nil {
		clientQuery = clientQuery.Where("id = ?", *clientID)
	}

	var clients []models.Client
	if err := clientQuery.Find(&clients).Error; err != nil {
		return nil, err
	}

	rows := make([]ClientSummaryRow, 0, len(clients))
	for i := range clients {
		client := &clients[i]
		row := ClientSummaryRow{
			ClientID:          client.ID,
			Name:              client.Name,
			Document:          client.Document,
			Loans:             len(client.Loans),
			CapitalLent:       decimal.Zero,
			InterestGenerated: decimal.Zero,
			TotalPayable:      decimal.Zero,
		}
		for j := range client.Loans {
			row.CapitalLent = row.CapitalLent.Add(client.Loans[j].Principal)
			row.InterestGenerated = row.InterestGenerated.Add(client.Loans[j].InterestAmount)
			row.TotalPayable = row.TotalPayable.Add(client.Loans[j].TotalPayable)
		}

		var interestCollected decimal.Decimal
		err := s.db.WithContext(ctx).Model(&models.Payment{}).
			Where("client_id = ?", client.ID).
			Select("COALESCE(SUM(interest_paid), 0)").
			Scan(&interestCollected).Error
		if err != nil {
			return nil, err
		}
		row.InterestCollected = s.rounder.Round(interestCollected)

		var interestOnly int64
		err = s.db.WithContext(ctx).Model(&models.Payment{}).
			Where("client_id = ? AND type = ?", client.ID, models.PaymentTypeInterestOnly).
			Count(&interestOnly).Error
		if err != nil {
			return nil, err
		}
		row.InterestOnlyPayments = int(interestOnly)

		rows = append(rows, row)
	}

	return rows, nil
}
