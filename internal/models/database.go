package models

import (
	"fmt"

	"github.com/mirelo/perfhub/backend/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

func AutoMigrate() error {
	return DB.AutoMigrate(
		&Employee{},
		&Project{},
		&ProjectAssignee{},
		&Goal{},
		&Criterion{},
		&Report{},
		&CriterionScore{},
		&ManagerSettings{},
		&EmployeeFrequency{},
		&ProjectFrequency{},
		&Metric{},
		&Invitation{},
		&LLMConfig{},
		&ActivityLog{},
	)
}

func GetDB() *gorm.DB {
	return DB
}

// SeedDefaultData creates the singleton settings row and default metrics if
// they do not exist yet.
func SeedDefaultData() error {
	var settingsCount int64
	DB.Model(&ManagerSettings{}).Count(&settingsCount)
	if settingsCount == 0 {
		settings := ManagerSettings{
			GlobalFrequency:      true,
			SelectedDays:         "Friday",
			AllowLateSubmissions: true,
			HolidayCountry:       "US",
		}
		if err := DB.Create(&settings).Error; err != nil {
			return err
		}
	}

	defaultMetrics := []Metric{
		{Name: "Communication", Description: "Clarity and timeliness of written updates"},
		{Name: "Collaboration", Description: "Cross-team cooperation visible in reports"},
		{Name: "Ownership", Description: "Initiative and follow-through on commitments"},
	}
	for _, m := range defaultMetrics {
		var count int64
		DB.Model(&Metric{}).Where("name = ?", m.Name).Count(&count)
		if count == 0 {
			if err := DB.Create(&m).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
