package models

import (
	"strings"
	"time"
)

// Permission gates access to one functional area
type Permission string

const (
	PermissionDashboard Permission = "dashboard"
	PermissionClients   Permission = "clients"
	PermissionLoans     Permission = "loans"
	PermissionPayments  Permission = "payments"
	PermissionReports   Permission = "reports"
	PermissionSettings  Permission = "settings"
)

// AllPermissions is the full grant given to administrators.
var AllPermissions = []Permission{
	PermissionDashboard,
	PermissionClients,
	PermissionLoans,
	PermissionPayments,
	PermissionReports,
	PermissionSettings,
}

// User is an operator account for the payment desk
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username     string  `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	FullName     *string `gorm:"type:varchar(120)" json:"full_name,omitempty"`
	PasswordHash string  `gorm:"type:varchar(100);not null" json:"-"`
	Role         *string `gorm:"type:varchar(100)" json:"role,omitempty"`
	Permissions  string  `gorm:"type:varchar(500)" json:"permissions"` // comma separated
	IsActive     bool    `gorm:"default:true" json:"is_active"`
}

// HasPermission reports whether the user's grant list contains p.
func (u *User) HasPermission(p Permission) bool {
	for _, grant := range strings.Split(u.Permissions, ",") {
		if Permission(strings.TrimSpace(grant)) == p {
			return true
		}
	}
	return false
}

// JoinPermissions serializes a grant list for storage.
func JoinPermissions(perms []Permission) string {
	parts := make([]string, 0, len(perms))
	for _, p := range perms {
		parts = append(parts, string(p))
	}
	return strings.Join(parts, ",")
}
