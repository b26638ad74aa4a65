package repositories

import (
	"fmt"

	"PortalAuth/config"
	"PortalAuth/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB opens the relational store and migrates the auth engine tables.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.OAuthAccount{},
		&models.ModuleGrant{},
		&models.TempTwoFASecret{},
	); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	logrus.Info("Database migration completed successfully")
	return db, nil
}
