package database

import (
	"gorm.io/gorm"

	"github.com/onswift/backend/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.SystemSetting{},
		&models.User{},
		&models.TalentProfile{},
		&models.CreatorProfile{},
		&models.HireRequest{},
		&models.InviteToken{},
		&models.Notification{},
		&models.Project{},
		&models.ProjectSample{},
		&models.Task{},
		&models.Deliverable{},
		&models.DeliverableFile{},
		&models.Conversation{},
		&models.Message{},
		&models.Group{},
		&models.GroupMember{},
		&models.GroupMessage{},
		&models.GroupMessageRead{},
		&models.CalendarConnection{},
		&models.CalendarSyncedTask{},
	)
}
