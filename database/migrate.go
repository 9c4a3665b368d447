package database

import (
	"context"
	"fmt"

	"github.com/yeremiapane/delivery-services/models"
	"github.com/yeremiapane/delivery-services/utils"
	"gorm.io/gorm"
)

// Models lists every table owned by the services.
func Models() []interface{} {
	return []interface{}{
		&models.Account{},
		&models.NotificationType{},
		&models.SentNotification{},
		&models.Order{},
		&models.OutboxEvent{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}

// SeedNotificationTypes fills an empty notification_types table with the
// default templates. It returns how many rows it inserted.
func SeedNotificationTypes(ctx context.Context, db *gorm.DB) (int, error) {
	inserted := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.NotificationType{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		seed := make([]models.NotificationType, len(models.DefaultNotificationTypes))
		copy(seed, models.DefaultNotificationTypes)
		if err := tx.Create(&seed).Error; err != nil {
			return err
		}
		inserted = len(seed)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed notification types: %w", err)
	}
	if inserted > 0 {
		utils.InfoLogger.WithField("count", inserted).Info("Seeded notification types")
	}
	return inserted, nil
}
