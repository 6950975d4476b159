package config

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ConnectDB mở kết nối Postgres theo DATABASE_DSN
func ConnectDB(cfg *Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{}
	if cfg.AppEnv == "prod" {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Warn)
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("fail to connect to db: %w", err)
	}
	return db, nil
}
