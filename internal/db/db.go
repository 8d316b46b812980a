package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BruksfildServices01/studio-agenda/internal/config"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
	"github.com/BruksfildServices01/studio-agenda/internal/timezone"
)

// Models é a ordem de migração: referências antes de quem aponta para elas.
func Models() []any {
	return []any{
		&models.Business{},
		&models.User{},
		&models.Client{},
		&models.Service{},
		&models.Material{},
		&models.LoyaltyReward{},
		&models.Appointment{},
		&models.ConsumptionRecord{},
		&models.RewardRedemption{},
		&models.AuditLog{},
	}
}

func NewDB(cfg *config.Config, logger zerolog.Logger) (*gorm.DB, error) {
	level := gormlogger.Warn
	if cfg.IsProduction() {
		level = gormlogger.Error
	}

	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt: true,
		Logger:      gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if err := applyConstraints(db); err != nil {
		return nil, fmt.Errorf("constraints: %w", err)
	}

	res := db.Exec(`
        UPDATE businesses
        SET timezone = ?
        WHERE timezone IS NULL OR timezone = ''
    `, timezone.DefaultTimezone)
	if res.Error != nil {
		logger.Warn().Err(res.Error).Msg("timezone backfill failed")
	}

	return db, nil
}

// applyConstraints cria as checagens que o AutoMigrate não expressa. Os
// erros 23514 que elas geram viram 422 em httperr.
func applyConstraints(db *gorm.DB) error {
	stmts := []string{
		`DO $$ BEGIN
            ALTER TABLE appointments ADD CONSTRAINT chk_appointments_window CHECK (end_time > start_time);
        EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
		`DO $$ BEGIN
            ALTER TABLE appointments ADD CONSTRAINT chk_appointments_price
                CHECK (discount_value >= 0 AND discount_value <= base_value AND final_value >= 0);
        EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
		`DO $$ BEGIN
            ALTER TABLE materials ADD CONSTRAINT chk_materials_stock CHECK (stock >= 0);
        EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	}

	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
