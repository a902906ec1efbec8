package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	documentPattern = regexp.MustCompile(`^\d{3}-\d{7}-\d$`)
	phonePattern    = regexp.MustCompile(`^\d{3}-\d{3}-\d{4}$`)
	nonDigits       = regexp.MustCompile(`\D`)
)

// Client is a borrower, optionally backed by a guarantor
type Client struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name     string  `gorm:"type:varchar(120);not null" json:"name"`
	Document string  `gorm:"type:varchar(30);uniqueIndex;not null" json:"document"`
	Phone    *string `gorm:"type:varchar(30)" json:"phone,omitempty"`
	Email    *string `gorm:"type:varchar(120)" json:"email,omitempty"`
	Address  *string `gorm:"type:varchar(200)" json:"address,omitempty"`

	Company        *string          `gorm:"type:varchar(120)" json:"company,omitempty"`
	Position       *string          `gorm:"type:varchar(100)" json:"position,omitempty"`
	MonthlyIncome  *decimal.Decimal `gorm:"type:decimal(18,2)" json:"monthly_income,omitempty"`
	MonthsEmployed *int             `json:"months_employed,omitempty"`

	HasGuarantor      bool    `json:"has_guarantor"`
	GuarantorName     *string `gorm:"type:varchar(120)" json:"guarantor_name,omitempty"`
	GuarantorDocument *string `gorm:"type:varchar(30)" json:"guarantor_document,omitempty"`
	GuarantorPhone    *string `gorm:"type:varchar(30)" json:"guarantor_phone,omitempty"`
	GuarantorAddress  *string `gorm:"type:varchar(200)" json:"guarantor_address,omitempty"`

	// Relationships
	Loans []Loan `gorm:"foreignKey:ClientID" json:"loans,omitempty"`
}

// NormalizeDocument reformats a national ID to the canonical 000-0000000-0
// shape when it contains exactly 11 digits; anything else passes through
// trimmed for the validator to reject.
func NormalizeDocument(document string) string {
	digits := nonDigits.ReplaceAllString(document, "")
	if len(digits) != 11 {
		return strings.TrimSpace(document)
	}
	return fmt.Sprintf("%s-%s-%s", digits[:3], digits[3:10], digits[10:])
}

// Validate checks the boundary formats once; internally the fields are
// trusted.
func (c *Client) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("client name is required")
	}
	if !documentPattern.MatchString(c.Document) {
		return fmt.Errorf("document must match 000-0000000-0")
	}
	if c.Phone != nil && *c.Phone != "" && !phonePattern.MatchString(*c.Phone) {
		return fmt.Errorf("phone must match 000-000-0000")
	}
	if c.HasGuarantor {
		if c.GuarantorDocument != nil && *c.GuarantorDocument != "" && !documentPattern.MatchString(*c.GuarantorDocument) {
			return fmt.Errorf("guarantor document must match 000-0000000-0")
		}
		if c.GuarantorPhone != nil && *c.GuarantorPhone != "" && !phonePattern.MatchString(*c.GuarantorPhone) {
			return fmt.Errorf("guarantor phone must match 000-000-0000")
		}
	} else {
		// Guarantor fields only make sense when a guarantor exists
		c.GuarantorName = nil
		c.GuarantorDocument = nil
		c.GuarantorPhone = nil
		c.GuarantorAddress = nil
	}
	return nil
}
