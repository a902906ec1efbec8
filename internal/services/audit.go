package services

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"syspres_app/internal/models"
)

// ActivityLogger writes the "who did what" audit trail. Recording is
// fire-and-forget: a failed write never fails the business operation.
type ActivityLogger struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewActivityLogger(db *gorm.DB, logger *zap.Logger) *ActivityLogger {
	return &ActivityLogger{db: db, logger: logger}
}

// Record appends one audit entry.
func (a *ActivityLogger) Record(ctx context.Context, username, action, entity, entityRef, detail string) {
	if a == nil || a.db == nil {
		return
	}
	if username == "" {
		username = "system"
	}

	entry := models.ActivityLog{
		Username:  username,
		Action:    action,
		Entity:    entity,
		EntityRef: &entityRef,
		Detail:    &detail,
	}
	if err := a.db.WithContext(ctx).Create(&entry).Error; err != nil {
		a.logger.Warn("activity log write failed",
			zap.String("entity", entity),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

// Recent returns the latest audit entries for the dashboard feed.
func (a *ActivityLogger) Recent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	err := a.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
