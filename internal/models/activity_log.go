package models

import "time"

// ActivityLog is an append-only audit record of who did what
type ActivityLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Username  string  `gorm:"type:varchar(100);not null" json:"username"`
	Action    string  `gorm:"type:varchar(40);not null" json:"action"` // created, updated, deleted
	Entity    string  `gorm:"type:varchar(60);not null" json:"entity"`
	EntityRef *string `gorm:"type:varchar(120)" json:"entity_ref,omitempty"`
	Detail    *string `gorm:"type:varchar(250)" json:"detail,omitempty"`
}
