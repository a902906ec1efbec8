package models

import "time"

// CompanySettings is the single-row business identity used on receipts
// and report headings
type CompanySettings struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UpdatedAt time.Time `json:"updated_at"`

	Name    string  `gorm:"type:varchar(120);default:'SysPres'" json:"name"`
	Rnc     *string `gorm:"type:varchar(30)" json:"rnc,omitempty"` // tax registration shown on receipts
	Address *string `gorm:"type:varchar(200)" json:"address,omitempty"`
	Phone   *string `gorm:"type:varchar(50)" json:"phone,omitempty"`
	City    *string `gorm:"type:varchar(100)" json:"city,omitempty"`
}
