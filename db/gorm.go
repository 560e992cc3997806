package db

import (
	"fmt"
	"time"

	"AudioEditor/config"
	applog "AudioEditor/logger"

	"github.com/cockroachdb/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds the MySQL data source name from the DB_* settings.
func DSN(cfg *config.Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

// ConnectGormDB opens the operation history database and sizes its pool.
func ConnectGormDB(cfg *config.Config) (*gorm.DB, error) {
	gormDB, err := gorm.Open(mysql.Open(DSN(cfg)), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Warn),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database with GORM")
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get underlying sql.DB")
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	applog.Info("Connected to the database with GORM",
		applog.String("host", cfg.DBHost), applog.String("database", cfg.DBName))
	return gormDB, nil
}

// CloseGormDB closes the underlying connection pool.
func CloseGormDB(gormDB *gorm.DB) error {
	if gormDB == nil {
		return nil
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrateModels migrates the given models.
func AutoMigrateModels(gormDB *gorm.DB, models ...interface{}) error {
	if err := gormDB.AutoMigrate(models...); err != nil {
		return errors.Wrap(err, "failed to auto migrate models")
	}
	applog.Info("Models migrated with GORM")
	return nil
}
